package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// Memory лимитер в памяти процесса. Счетчики теряются при перезапуске.
type Memory struct {
	rule Rule
	now  func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

func NewMemory(rule Rule) (*Memory, error) {
	if err := rule.validate(); err != nil {
		return nil, err
	}
	return &Memory{
		rule:    rule,
		now:     time.Now,
		windows: make(map[string]*window),
	}, nil
}

func (m *Memory) current(key string, now time.Time) *window {
	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(m.rule.Window)}
		m.windows[key] = w
	}
	return w
}

func (m *Memory) Allow(_ context.Context, key string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.current(normalizeKey(key), m.now())
	w.count++
	return newResult(m.rule, w.count, w.resetAt), nil
}

func (m *Memory) Undo(_ context.Context, key string, res Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[normalizeKey(key)]
	if ok && w.resetAt.Equal(res.ResetAt) && w.count > 0 {
		w.count--
	}
	return nil
}

// Run удаляет истекшие окна раз в interval, пока не отменен ctx.
func (m *Memory) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

func (m *Memory) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, key)
		}
	}
}

func (m *Memory) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}
