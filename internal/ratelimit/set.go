package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// GeneralRule общий лимит на все маршруты.
	GeneralRule = Rule{Name: "general", Limit: 100, Window: time.Minute}
	// LoginRule учитывает только неудачные попытки входа.
	LoginRule  = Rule{Name: "login", Limit: 5, Window: 15 * time.Minute}
	UploadRule = Rule{Name: "upload", Limit: 3, Window: 5 * time.Minute}
)

// Set лимитеры HTTP-шлюза.
type Set struct {
	General Limiter
	Login   Limiter
	Upload  Limiter
}

func NewMemorySet() (Set, error) {
	var (
		s   Set
		err error
	)
	if s.General, err = NewMemory(GeneralRule); err != nil {
		return Set{}, err
	}
	if s.Login, err = NewMemory(LoginRule); err != nil {
		return Set{}, err
	}
	if s.Upload, err = NewMemory(UploadRule); err != nil {
		return Set{}, err
	}
	return s, nil
}

// NewRedisSet лимитеры с общими счетчиками в Redis.
func NewRedisSet(client redis.UniversalClient, prefix string) (Set, error) {
	var (
		s   Set
		err error
	)
	if s.General, err = NewRedis(client, prefix, GeneralRule); err != nil {
		return Set{}, fmt.Errorf("general limiter: %w", err)
	}
	if s.Login, err = NewRedis(client, prefix, LoginRule); err != nil {
		return Set{}, fmt.Errorf("login limiter: %w", err)
	}
	if s.Upload, err = NewRedis(client, prefix, UploadRule); err != nil {
		return Set{}, fmt.Errorf("upload limiter: %w", err)
	}
	return s, nil
}

// Run чистит окна лимитеров в памяти, пока не отменен ctx. Для Redis сразу ждет отмены.
func (s Set) Run(ctx context.Context, interval time.Duration) {
	var wg sync.WaitGroup
	for _, l := range []Limiter{s.General, s.Login, s.Upload} {
		m, ok := l.(*Memory)
		if !ok {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Run(ctx, interval)
		}()
	}
	<-ctx.Done()
	wg.Wait()
}
