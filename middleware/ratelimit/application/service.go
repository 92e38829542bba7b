package application

import (
	"context"
	"log/slog"
	"time"

	"retail-gateway/middleware/ratelimit/domain"
)

// Admitter decide se um request identificado por (key, class) entra agora.
type Admitter interface {
	Admit(ctx context.Context, key domain.Key, class domain.Class) domain.Decision
}

// Service é a admissão por janela fixa sobre um contador compartilhado.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Counters domain.CounterStore
	Limits   domain.ClassLimits
	Window   time.Duration
	Logger   *slog.Logger
}

// Admit incrementa o contador da chave e compara com o limite da classe.
//
// Política fail-open: se o contador compartilhado estiver indisponível, o
// request passa sem throttling (disponibilidade acima de enforcement) e a
// falha é logada como warning.
func (s Service) Admit(ctx context.Context, key domain.Key, class domain.Class) domain.Decision {
	limit := s.Limits.LimitFor(class)
	window := s.Window
	if window <= 0 {
		window = time.Minute
	}

	count, remaining, err := s.Counters.Incr(ctx, key, window)
	if err != nil {
		s.logger().Warn("rate limit store unavailable, allowing request",
			"key", string(key),
			"class", string(class),
			"error", err)
		return domain.Decision{Allowed: true, Limit: limit, Remaining: limit, FailOpen: true}
	}

	resetAt := time.Now().Add(remaining)

	if count > int64(limit) {
		retryAfter := remaining
		if retryAfter < 0 {
			retryAfter = 0
		}
		return domain.Decision{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retryAfter,
		}
	}

	return domain.Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - int(count),
		ResetAt:   resetAt,
	}
}

func (s Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// LocalService é a admissão por token-bucket local (modo single-node).
// Não expõe Limit/Remaining; só allow/deny com Retry-After fixo.
type LocalService struct {
	Store      domain.LimiterStore
	RetryAfter time.Duration
}

func (s LocalService) Admit(_ context.Context, key domain.Key, _ domain.Class) domain.Decision {
	if s.Store == nil {
		return domain.Decision{Allowed: true}
	}

	retryAfter := s.RetryAfter
	if retryAfter <= 0 {
		retryAfter = 1 * time.Second
	}

	lim := s.Store.Get(key)
	if lim == nil || lim.Allow() {
		return domain.Decision{Allowed: true}
	}
	return domain.Decision{Allowed: false, RetryAfter: retryAfter}
}
