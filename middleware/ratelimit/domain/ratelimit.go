package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"time"
)

// Key identifica o cliente no contador compartilhado.
// Convenção: subject autenticado, ou "ip:<addr>" para anônimos.
type Key string

// Class é a classificação do cliente usada para escolher o limite.
type Class string

const (
	ClassAdmin     Class = "admin"
	ClassService   Class = "service"
	ClassAnonymous Class = "anonymous"
	ClassDefault   Class = "default"
)

// ClassFor deriva a classe a partir dos papéis do cliente.
// Papéis desconhecidos caem na classe default (cliente autenticado comum).
func ClassFor(roles []string) Class {
	for _, r := range roles {
		switch r {
		case "admin":
			return ClassAdmin
		case "service":
			return ClassService
		}
	}
	return ClassDefault
}

// ClassLimits é a tabela classe -> limite por janela.
// Read-only após a inicialização; compartilhada entre requests.
type ClassLimits struct {
	// Base é o limite da classe default.
	Base int
	// Multipliers escala o Base por classe (ex: admin=5, anonymous=0.5).
	Multipliers map[Class]float64
}

// DefaultMultipliers reflete a política padrão do gateway.
func DefaultMultipliers() map[Class]float64 {
	return map[Class]float64{
		ClassAdmin:     5,
		ClassService:   10,
		ClassAnonymous: 0.5,
	}
}

// LimitFor devolve o limite efetivo da classe (mínimo 1).
func (c ClassLimits) LimitFor(class Class) int {
	limit := c.Base
	if m, ok := c.Multipliers[class]; ok {
		limit = int(float64(c.Base) * m)
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}

// CounterStore é o contador distribuído por janela fixa.
//
// Incr incrementa atomicamente o contador de key. Quando o incremento cria o
// contador (count==1), a expiração da janela é gravada no mesmo passo atômico:
// outros clientes nunca observam contador sem TTL. Devolve a contagem após o
// incremento e o tempo restante da janela.
type CounterStore interface {
	Incr(ctx context.Context, key Key, window time.Duration) (count int64, remaining time.Duration, err error)
}

// Limiter representa algo que pode decidir se uma ação é permitida agora.
//
// Observação: a implementação pode ser token-bucket, leaky-bucket, etc.
// A camada de infra pode usar libs como golang.org/x/time/rate.
type Limiter interface {
	Allow() bool
}

// LimiterStore obtém um limiter local por chave (modo single-node).
type LimiterStore interface {
	Get(Key) Limiter
}

// Decision é o resultado da admissão de um request.
type Decision struct {
	Allowed bool

	// Limit/Remaining/ResetAt alimentam os headers X-RateLimit-*.
	// Limit == 0 indica que a implementação não expõe contagem (modo local).
	Limit     int
	Remaining int
	ResetAt   time.Time

	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration

	// FailOpen indica que a loja estava indisponível e o request passou
	// sem ser contabilizado.
	FailOpen bool
}
