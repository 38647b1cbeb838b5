package postgres

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"excelkeeper/internal/app/server/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"
)

var ErrShuttingDown = errors.New("database is shutting down")

// Storage владеет пулом соединений: повтор запросов, проверка здоровья, однократное закрытие.
type Storage struct {
	pool  *pgxpool.Pool
	cfg   config.DB
	log   *slog.Logger
	retry retrier

	shuttingDown atomic.Bool
	closeOnce    sync.Once
	waiting      atomic.Int64
	uses         sync.Map // *pgx.Conn -> *atomic.Int64
}

type PoolStats struct {
	Total   int32 `json:"total"`
	Idle    int32 `json:"idle"`
	Waiting int64 `json:"waiting"`
}

type Health struct {
	Healthy bool
	Time    time.Time
	Version string
	Pool    PoolStats
}

func newStorage(cfg config.DB, log *slog.Logger) *Storage {
	log = log.With(slog.String("component", "postgres"))
	return &Storage{
		cfg: cfg,
		log: log,
		retry: retrier{
			attempts: cfg.MaxAttempts,
			delay:    cfg.RetryDelay,
			sleep:    sleepCtx,
			log:      log,
		},
	}
}

// New создает пул. Соединения открываются лениво, доступность проверяет HealthCheck.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Storage, error) {
	s := newStorage(cfg.DB, log)

	poolCfg, err := s.poolConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	s.pool = pool

	return s, nil
}

func (s *Storage) poolConfig() (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(s.cfg.DatabaseURI)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolCfg.MaxConns = s.cfg.MaxConns
	poolCfg.MinConns = s.cfg.MinConns
	poolCfg.MaxConnIdleTime = s.cfg.IdleTimeout
	poolCfg.ConnConfig.ConnectTimeout = s.cfg.ConnectTimeout
	if s.cfg.StatementTimeout > 0 {
		poolCfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(s.cfg.StatementTimeout.Milliseconds(), 10)
	}
	if s.cfg.RequireTLS {
		if poolCfg.ConnConfig.TLSConfig == nil {
			poolCfg.ConnConfig.TLSConfig = &tls.Config{
				ServerName: poolCfg.ConnConfig.Host,
				MinVersion: tls.VersionTLS12,
			}
		}
		// sslmode=prefer оставляет запасной вариант без TLS.
		fallbacks := poolCfg.ConnConfig.Fallbacks[:0]
		for _, fb := range poolCfg.ConnConfig.Fallbacks {
			if fb.TLSConfig != nil {
				fallbacks = append(fallbacks, fb)
			}
		}
		poolCfg.ConnConfig.Fallbacks = fallbacks
	}

	poolCfg.AfterConnect = s.afterConnect
	poolCfg.BeforeAcquire = s.beforeAcquire
	poolCfg.AfterRelease = s.afterRelease
	poolCfg.BeforeClose = s.beforeClose

	return poolCfg, nil
}

func (s *Storage) afterConnect(_ context.Context, conn *pgx.Conn) error {
	s.uses.Store(conn, new(atomic.Int64))
	s.log.Debug("new database connection", slog.Uint64("pid", uint64(conn.PgConn().PID())))
	return nil
}

func (s *Storage) beforeAcquire(_ context.Context, conn *pgx.Conn) bool {
	if conn.IsClosed() {
		s.log.Warn("dropping closed connection on acquire", slog.Uint64("pid", uint64(conn.PgConn().PID())))
		return false
	}
	return true
}

// afterRelease уничтожает соединение, отслужившее MaxUses запросов.
func (s *Storage) afterRelease(conn *pgx.Conn) bool {
	if s.cfg.MaxUses <= 0 {
		return true
	}

	v, _ := s.uses.LoadOrStore(conn, new(atomic.Int64))
	if n := v.(*atomic.Int64).Add(1); n >= s.cfg.MaxUses {
		s.log.Debug("connection reached max uses", slog.Int64("uses", n))
		s.uses.Delete(conn)
		return false
	}
	return true
}

func (s *Storage) beforeClose(conn *pgx.Conn) {
	s.uses.Delete(conn)
	s.log.Debug("database connection closed", slog.Uint64("pid", uint64(conn.PgConn().PID())))
}

// QueryOption меняет параметры одного вызова Query.
type QueryOption func(*retrier)

// WithAttempts задает число попыток для вызова вместо DB_MAX_ATTEMPTS. n < 1 означает одну попытку.
func WithAttempts(n int) QueryOption {
	return func(r *retrier) {
		r.attempts = n
	}
}

// Query выполняет fn на выделенном соединении с таймаутом и повтором восстановимых ошибок.
func (s *Storage) Query(ctx context.Context, op string, fn func(ctx context.Context, conn *pgxpool.Conn) error, opts ...QueryOption) error {
	if s.IsShuttingDown() {
		return ErrShuttingDown
	}

	retry := s.retry
	for _, opt := range opts {
		opt(&retry)
	}

	return retry.do(ctx, op, func(ctx context.Context) error {
		if s.IsShuttingDown() {
			return ErrShuttingDown
		}

		conn, err := s.acquire(ctx)
		if err != nil {
			return err
		}
		defer conn.Release()

		qctx, cancel := s.withTimeout(ctx, s.cfg.StatementTimeout)
		defer cancel()

		return fn(qctx, conn)
	})
}

func (s *Storage) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	actx, cancel := s.withTimeout(ctx, s.cfg.AcquireTimeout)
	defer cancel()

	s.waiting.Add(1)
	conn, err := s.pool.Acquire(actx)
	s.waiting.Add(-1)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return conn, nil
}

func (s *Storage) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (s *Storage) Exec(ctx context.Context, op, sql string, args ...any) (pgconn.CommandTag, error) {
	var tag pgconn.CommandTag
	err := s.Query(ctx, op, func(ctx context.Context, conn *pgxpool.Conn) error {
		var err error
		tag, err = conn.Exec(ctx, sql, args...)
		return err
	})
	return tag, err
}

// QueryRow сканирует одну строку в dest. pgx.ErrNoRows доступна через errors.Is.
func (s *Storage) QueryRow(ctx context.Context, op, sql string, args []any, dest ...any) error {
	return s.Query(ctx, op, func(ctx context.Context, conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, sql, args...).Scan(dest...)
	})
}

// HealthCheck выполняет тестовый запрос через Query. opts передаются в Query как есть.
func (s *Storage) HealthCheck(ctx context.Context, opts ...QueryOption) (Health, error) {
	h := Health{}
	err := s.Query(ctx, "health_check", func(ctx context.Context, conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, `SELECT now(), version()`).Scan(&h.Time, &h.Version)
	}, opts...)
	h.Pool = s.Stats()
	if err != nil {
		s.log.Error("health check failed", slog.String("error", err.Error()))
		return h, err
	}
	h.Healthy = true
	return h, nil
}

func (s *Storage) Stats() PoolStats {
	stats := PoolStats{Waiting: s.waiting.Load()}
	if s.pool == nil {
		return stats
	}
	st := s.pool.Stat()
	stats.Total = st.TotalConns()
	stats.Idle = st.IdleConns()
	return stats
}

// Monitor периодически пишет статистику пула в debug-лог, пока не отменен ctx.
func (s *Storage) Monitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("pool monitor panic", slog.Any("panic", r))
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := s.Stats()
			s.log.Debug("pool stats",
				slog.Int("total", int(st.Total)),
				slog.Int("idle", int(st.Idle)),
				slog.Int64("waiting", st.Waiting),
				slog.Bool("shutting_down", s.IsShuttingDown()),
			)
		}
	}
}

func (s *Storage) IsShuttingDown() bool {
	return s.shuttingDown.Load()
}

// Close безопасно вызывать повторно: пул закрывается ровно один раз.
func (s *Storage) Close() error {
	s.closeOnce.Do(func() {
		s.shuttingDown.Store(true)

		defer func() {
			if r := recover(); r != nil {
				s.log.Error("panic while closing pool", slog.Any("panic", r))
			}
		}()

		st := s.Stats()
		s.log.Info("closing connection pool",
			slog.Int("total", int(st.Total)),
			slog.Int("idle", int(st.Idle)),
			slog.Int64("waiting", st.Waiting),
		)
		if s.pool != nil {
			s.pool.Close()
		}
		s.log.Info("connection pool closed")
	})
	return nil
}

func (s *Storage) Pool() *pgxpool.Pool {
	return s.pool
}
