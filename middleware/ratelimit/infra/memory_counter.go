package infra

import (
	"context"
	"sync"
	"time"

	"retail-gateway/middleware/ratelimit/domain"
)

// MemoryCounterStore é um domain.CounterStore em memória (janela fixa).
// Útil para testes e desenvolvimento; não compartilha contagem entre
// instâncias.
type MemoryCounterStore struct {
	mu      sync.Mutex
	windows map[domain.Key]*window

	// now é injetável para testes de rollover.
	now func() time.Time
}

type window struct {
	count   int64
	expires time.Time
}

type MemoryCounterOption func(*MemoryCounterStore)

func WithClock(now func() time.Time) MemoryCounterOption {
	return func(s *MemoryCounterStore) { s.now = now }
}

func NewMemoryCounterStore(opts ...MemoryCounterOption) *MemoryCounterStore {
	s := &MemoryCounterStore{
		windows: make(map[domain.Key]*window),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Incr implementa domain.CounterStore. Janela ausente ou expirada recomeça
// com count=1 (rollover idempotente).
func (s *MemoryCounterStore) Incr(_ context.Context, key domain.Key, windowDur time.Duration) (int64, time.Duration, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || !now.Before(w.expires) {
		w = &window{count: 0, expires: now.Add(windowDur)}
		s.windows[key] = w
	}
	w.count++
	return w.count, w.expires.Sub(now), nil
}

// Cleanup remove janelas expiradas.
func (s *MemoryCounterStore) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, w := range s.windows {
		if !now.Before(w.expires) {
			delete(s.windows, k)
		}
	}
}

// StartJanitor limpa janelas expiradas periodicamente até o ctx encerrar.
func (s *MemoryCounterStore) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
