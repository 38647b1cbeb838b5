package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// undoScript не создает ключ заново и не уходит ниже нуля.
var undoScript = redis.NewScript(`
local count = tonumber(redis.call("GET", KEYS[1]) or "0")
if count > 0 then
  return redis.call("DECR", KEYS[1])
end
return 0
`)

const redisTimeout = 2 * time.Second

// Redis распределенный лимитер. При ошибках Redis запрос не пропускается.
type Redis struct {
	rule   Rule
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedis(client redis.UniversalClient, prefix string, rule Rule) (*Redis, error) {
	if err := rule.validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.New("rate limiter redis client is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "excelkeeper:ratelimit"
	}
	return &Redis{
		rule:   rule,
		client: client,
		prefix: prefix + ":" + rule.Name,
		now:    time.Now,
	}, nil
}

func (l *Redis) slot(key string) (string, time.Time) {
	windowMs := l.rule.Window.Milliseconds()
	return l.slotKey(key, l.now().UTC().UnixMilli()/windowMs)
}

func (l *Redis) slotKey(key string, slot int64) (string, time.Time) {
	windowMs := l.rule.Window.Milliseconds()
	resetAt := time.UnixMilli((slot + 1) * windowMs)
	return fmt.Sprintf("%s:%s:%d", l.prefix, normalizeKey(key), slot), resetAt
}

func (l *Redis) Allow(ctx context.Context, key string) (Result, error) {
	redisKey, resetAt := l.slot(key)

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	count, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, l.rule.Window.Milliseconds()).Int64()
	if err != nil {
		return Result{Limit: l.rule.Limit, ResetAt: resetAt}, fmt.Errorf("rate limit %s: %w", l.rule.Name, err)
	}
	return newResult(l.rule, int(count), resetAt), nil
}

// Undo уменьшает счетчик окна, в котором был учтен res.
func (l *Redis) Undo(ctx context.Context, key string, res Result) error {
	if res.ResetAt.IsZero() {
		return nil
	}
	slot := res.ResetAt.UnixMilli()/l.rule.Window.Milliseconds() - 1
	redisKey, _ := l.slotKey(key, slot)

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	if err := undoScript.Run(ctx, l.client, []string{redisKey}).Err(); err != nil {
		return fmt.Errorf("rate limit %s undo: %w", l.rule.Name, err)
	}
	return nil
}
