package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"retail-gateway/middleware/ratelimit/domain"
)

// fakeCounter devolve contagens pré-programadas em sequência.
type fakeCounter struct {
	counts    []int64
	remaining time.Duration
	err       error
	calls     int
}

func (f *fakeCounter) Incr(_ context.Context, _ domain.Key, _ time.Duration) (int64, time.Duration, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	count := f.counts[f.calls]
	if f.calls < len(f.counts)-1 {
		f.calls++
	}
	return count, f.remaining, nil
}

func TestService_RemainingDecreases(t *testing.T) {
	svc := Service{
		Counters: &fakeCounter{counts: []int64{1, 2, 3}, remaining: 30 * time.Second},
		Limits:   domain.ClassLimits{Base: 3},
		Window:   time.Minute,
	}

	for i, want := range []int{2, 1, 0} {
		dec := svc.Admit(context.Background(), "user-1", domain.ClassDefault)
		if !dec.Allowed {
			t.Fatalf("request %d: expected allowed", i+1)
		}
		if dec.Remaining != want {
			t.Fatalf("request %d: expected remaining %d, got %d", i+1, want, dec.Remaining)
		}
		if dec.Limit != 3 {
			t.Fatalf("request %d: expected limit 3, got %d", i+1, dec.Limit)
		}
	}
}

func TestService_RejectsOverLimit(t *testing.T) {
	svc := Service{
		Counters: &fakeCounter{counts: []int64{4}, remaining: 12 * time.Second},
		Limits:   domain.ClassLimits{Base: 3},
		Window:   time.Minute,
	}

	dec := svc.Admit(context.Background(), "user-1", domain.ClassDefault)
	if dec.Allowed {
		t.Fatalf("expected rejection when count exceeds limit")
	}
	if dec.Remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", dec.Remaining)
	}
	if dec.RetryAfter != 12*time.Second {
		t.Fatalf("expected retry-after 12s, got %v", dec.RetryAfter)
	}
}

func TestService_FailOpenWhenStoreDown(t *testing.T) {
	svc := Service{
		Counters: &fakeCounter{err: errors.New("connection refused")},
		Limits:   domain.ClassLimits{Base: 3},
		Window:   time.Minute,
	}

	dec := svc.Admit(context.Background(), "user-1", domain.ClassDefault)
	if !dec.Allowed {
		t.Fatalf("expected fail-open allow when counter store is down")
	}
	if !dec.FailOpen {
		t.Fatalf("expected FailOpen flag set")
	}
}

func TestService_ClassMultipliers(t *testing.T) {
	counter := &fakeCounter{counts: []int64{1}, remaining: time.Minute}
	svc := Service{
		Counters: counter,
		Limits:   domain.ClassLimits{Base: 100, Multipliers: domain.DefaultMultipliers()},
		Window:   time.Minute,
	}

	dec := svc.Admit(context.Background(), "admin-1", domain.ClassAdmin)
	if dec.Limit != 500 {
		t.Fatalf("expected admin limit 500, got %d", dec.Limit)
	}

	counter.calls = 0
	dec = svc.Admit(context.Background(), "ip:10.0.0.1", domain.ClassAnonymous)
	if dec.Limit != 50 {
		t.Fatalf("expected anonymous limit 50, got %d", dec.Limit)
	}
}

// fakeLimiterStore devolve um limiter fixo para qualquer chave.
type fakeLimiterStore struct{ allow bool }

type fakeLimiter struct{ allow bool }

func (f fakeLimiter) Allow() bool { return f.allow }

func (f fakeLimiterStore) Get(domain.Key) domain.Limiter { return fakeLimiter{allow: f.allow} }

func TestLocalService_AllowAndDeny(t *testing.T) {
	allowed := LocalService{Store: fakeLimiterStore{allow: true}}
	dec := allowed.Admit(context.Background(), "k", domain.ClassDefault)
	if !dec.Allowed {
		t.Fatalf("expected allow")
	}
	// modo local não expõe contagem
	if dec.Limit != 0 {
		t.Fatalf("expected limit 0 in local mode, got %d", dec.Limit)
	}

	denied := LocalService{Store: fakeLimiterStore{allow: false}, RetryAfter: 2 * time.Second}
	dec = denied.Admit(context.Background(), "k", domain.ClassDefault)
	if dec.Allowed {
		t.Fatalf("expected deny")
	}
	if dec.RetryAfter != 2*time.Second {
		t.Fatalf("expected retry-after 2s, got %v", dec.RetryAfter)
	}
}
