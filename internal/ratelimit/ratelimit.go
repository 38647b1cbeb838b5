// Package ratelimit считает запросы по ключу (обычно IP клиента) в фиксированных окнах.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidRule = errors.New("rate limiter requires positive limit and window")

// Rule лимит Limit запросов за Window.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
}

func (r Rule) validate() error {
	if r.Limit <= 0 || r.Window <= 0 {
		return ErrInvalidRule
	}
	return nil
}

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter время до начала следующего окна, не меньше секунды.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now)
	if d < time.Second {
		return time.Second
	}
	return d.Round(time.Second)
}

type Limiter interface {
	// Allow учитывает запрос и сообщает, укладывается ли он в лимит.
	Allow(ctx context.Context, key string) (Result, error)
	// Undo возвращает запрос, учтенный Allow с результатом res. Если окно res уже сменилось, ничего не делает.
	Undo(ctx context.Context, key string, res Result) error
}

func newResult(rule Rule, count int, resetAt time.Time) Result {
	remaining := rule.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= rule.Limit,
		Limit:     rule.Limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

func normalizeKey(key string) string {
	if key == "" {
		return "unknown"
	}
	return key
}
