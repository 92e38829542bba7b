package infra

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCounterStore_CountsMonotonically(t *testing.T) {
	store := NewMemoryCounterStore()

	for want := int64(1); want <= 5; want++ {
		count, remaining, err := store.Incr(context.Background(), "k1", time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != want {
			t.Fatalf("expected count %d, got %d", want, count)
		}
		if remaining <= 0 || remaining > time.Minute {
			t.Fatalf("expected remaining within the window, got %v", remaining)
		}
	}
}

func TestMemoryCounterStore_WindowRollover(t *testing.T) {
	now := time.Now()
	store := NewMemoryCounterStore(WithClock(func() time.Time { return now }))

	for i := 0; i < 3; i++ {
		if _, _, err := store.Incr(context.Background(), "k1", time.Minute); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// janela expira: a contagem recomeça em 1, não continua
	now = now.Add(61 * time.Second)
	count, _, err := store.Incr(context.Background(), "k1", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollover to reset count to 1, got %d", count)
	}
}

func TestMemoryCounterStore_KeysAreIndependent(t *testing.T) {
	store := NewMemoryCounterStore()

	if _, _, err := store.Incr(context.Background(), "a", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	count, _, err := store.Incr(context.Background(), "b", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected independent count 1 for second key, got %d", count)
	}
}

func TestMemoryCounterStore_CleanupRemovesExpired(t *testing.T) {
	now := time.Now()
	store := NewMemoryCounterStore(WithClock(func() time.Time { return now }))

	_, _, _ = store.Incr(context.Background(), "k1", time.Minute)

	now = now.Add(2 * time.Minute)
	store.Cleanup()

	store.mu.Lock()
	size := len(store.windows)
	store.mu.Unlock()
	if size != 0 {
		t.Fatalf("expected expired windows to be removed, %d left", size)
	}
}
