// Package throttle подключает лимитеры из internal/ratelimit к HTTP: как huma-мидлварь и как chi-мидлварь.
package throttle

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"excelkeeper/internal/app/server/api/http/apierr"
	"excelkeeper/internal/ratelimit"
	"excelkeeper/internal/utils/clientip"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

const (
	MessageLogin   = "Demasiados intentos de login. Intenta en 15 minutos."
	MessageUpload  = "Demasiados uploads. Espera 5 minutos."
	MessageGeneral = "Demasiadas solicitudes. Intenta más tarde."
)

type Throttle struct {
	limiter ratelimit.Limiter
	message string
	log     *slog.Logger
	now     func() time.Time
}

func New(limiter ratelimit.Limiter, message string, log *slog.Logger) *Throttle {
	return &Throttle{
		limiter: limiter,
		message: message,
		log:     log.With(slog.String("component", "throttle")),
		now:     time.Now,
	}
}

// Middleware учитывает каждый запрос.
func (t *Throttle) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		key := keyFor(ctx.Context(), ctx.RemoteAddr())

		res, err := t.limiter.Allow(ctx.Context(), key)
		t.setHeaders(ctx.SetHeader, res)
		if e := t.reject(res, err, key); e != nil {
			if e.Code == apierr.CodeRateLimited {
				ctx.SetHeader("Retry-After", retryAfter(res, t.now()))
			}
			apierr.Write(ctx, e)
			return
		}

		next(ctx)
	}
}

// FailuresOnly учитывает запрос до обработки и возвращает его лимитеру, если ответ успешный (< 400).
// Параллельные запросы не могут одновременно пройти по одному свободному слоту.
func (t *Throttle) FailuresOnly() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		key := keyFor(ctx.Context(), ctx.RemoteAddr())

		res, err := t.limiter.Allow(ctx.Context(), key)
		t.setHeaders(ctx.SetHeader, res)
		if e := t.reject(res, err, key); e != nil {
			if e.Code == apierr.CodeRateLimited {
				ctx.SetHeader("Retry-After", retryAfter(res, t.now()))
			}
			apierr.Write(ctx, e)
			return
		}

		next(ctx)

		if ctx.Status() >= http.StatusBadRequest {
			return
		}
		if err := t.limiter.Undo(context.WithoutCancel(ctx.Context()), key, res); err != nil {
			t.log.Error("rate limit undo failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
}

// Handler chi-мидлварь, учитывает каждый запрос.
func (t *Throttle) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := keyFor(r.Context(), r.RemoteAddr)

		res, err := t.limiter.Allow(r.Context(), key)
		t.setHeaders(w.Header().Set, res)
		if e := t.reject(res, err, key); e != nil {
			if e.Code == apierr.CodeRateLimited {
				w.Header().Set("Retry-After", retryAfter(res, t.now()))
			}
			apierr.WriteHTTP(w, e)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// reject при ошибке хранилища отказывает (503), при превышении лимита 429.
func (t *Throttle) reject(res ratelimit.Result, err error, key string) *apierr.Error {
	if err != nil {
		t.log.Error("rate limiter unavailable", slog.String("key", key), slog.String("error", err.Error()))
		return apierr.Unavailable()
	}
	if !res.Allowed {
		t.log.Warn("rate limit exceeded", slog.String("key", key), slog.Int("limit", res.Limit))
		return apierr.RateLimited(t.message)
	}
	return nil
}

func (t *Throttle) setHeaders(set func(name, value string), res ratelimit.Result) {
	if res.Limit == 0 {
		return
	}
	set("RateLimit-Limit", strconv.Itoa(res.Limit))
	set("RateLimit-Remaining", strconv.Itoa(res.Remaining))
	set("RateLimit-Reset", strconv.Itoa(int(res.RetryAfter(t.now()).Seconds())))
}

func retryAfter(res ratelimit.Result, now time.Time) string {
	return strconv.Itoa(int(res.RetryAfter(now).Seconds()))
}

// keyFor IP из clientip.Middleware, иначе хост из RemoteAddr.
func keyFor(ctx context.Context, remoteAddr string) string {
	if ip := clientip.FromContext(ctx); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
