package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/exp/slog"
)

// Fault категория сбоя, после которого запрос имеет смысл повторить.
type Fault int

const (
	FaultNone Fault = iota
	FaultConnReset
	FaultDNS
	FaultConnRefused
	FaultTimeout
	FaultConnTerminated
)

func (f Fault) String() string {
	switch f {
	case FaultConnReset:
		return "connection_reset"
	case FaultDNS:
		return "dns"
	case FaultConnRefused:
		return "connection_refused"
	case FaultTimeout:
		return "timeout"
	case FaultConnTerminated:
		return "connection_terminated"
	default:
		return "none"
	}
}

// Classify относит ошибку к одной из восстановимых категорий. Чистая функция.
func Classify(err error) (Fault, bool) {
	if err == nil || errors.Is(err, ErrShuttingDown) || errors.Is(err, context.Canceled) {
		return FaultNone, false
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return FaultDNS, true
	}
	if errors.Is(err, syscall.ECONNRESET) {
		return FaultConnReset, true
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return FaultConnRefused, true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 08xxx connection exception, 57P01..57P03 сервер останавливается или недоступен.
		if strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "57P01" || pgErr.Code == "57P02" || pgErr.Code == "57P03" {
			return FaultConnTerminated, true
		}
		return FaultNone, false
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return FaultTimeout, true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FaultTimeout, true
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return FaultConnTerminated, true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection terminated") || strings.Contains(msg, "conn closed") {
		return FaultConnTerminated, true
	}

	return FaultNone, false
}

func IsRecoverable(err error) bool {
	_, ok := Classify(err)
	return ok
}

// Backoff линейная задержка перед попыткой attempt+1.
func Backoff(attempt int, unit time.Duration) time.Duration {
	return time.Duration(attempt) * unit
}

// QueryError итог неудачного запроса после всех попыток.
type QueryError struct {
	Op          string
	Attempts    int
	Recoverable bool
	Err         error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

type retrier struct {
	attempts int
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	log      *slog.Logger
}

func (r retrier) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := r.attempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		err         error
		recoverable bool
		attempt     int
	)
	for attempt = 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			if attempt > 1 {
				r.log.Info("query succeeded after retry", slog.String("op", op), slog.Int("attempt", attempt))
			}
			return nil
		}

		var fault Fault
		fault, recoverable = Classify(err)
		if !recoverable || attempt == attempts || ctx.Err() != nil {
			break
		}

		wait := Backoff(attempt, r.delay)
		r.log.Warn("recoverable database error, retrying",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.String("fault", fault.String()),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()),
		)
		if serr := r.sleep(ctx, wait); serr != nil {
			break
		}
	}

	if attempt > attempts {
		attempt = attempts
	}
	return &QueryError{Op: op, Attempts: attempt, Recoverable: recoverable, Err: err}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
