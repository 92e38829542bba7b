package infra

import (
	"context"
	"errors"
	"strings"
	"time"

	"retail-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// windowScript incrementa o contador e, se o incremento criou a chave,
// grava a expiração da janela no mesmo script. INCR é atômico no Redis:
// com requests simultâneos exatamente um caller observa count==1 e é ele
// quem grava o TTL, eliminando a corrida create/expire.
var windowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

// RedisCounterStore implementa domain.CounterStore sobre um Redis
// compartilhado entre instâncias do gateway.
type RedisCounterStore struct {
	rdb    redis.Scripter
	prefix string
}

type RedisCounterOption func(*RedisCounterStore)

func WithCounterPrefix(prefix string) RedisCounterOption {
	return func(s *RedisCounterStore) { s.prefix = strings.Trim(prefix, ":") }
}

func NewRedisCounterStore(rdb redis.Scripter, opts ...RedisCounterOption) *RedisCounterStore {
	s := &RedisCounterStore{rdb: rdb, prefix: "ratelimit"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var errBadScriptReply = errors.New("unexpected reply from window script")

// Incr implementa domain.CounterStore.
func (s *RedisCounterStore) Incr(ctx context.Context, key domain.Key, window time.Duration) (int64, time.Duration, error) {
	redisKey := s.prefix + ":" + string(key)

	res, err := windowScript.Run(ctx, s.rdb, []string{redisKey}, window.Milliseconds()).Result()
	if err != nil {
		return 0, 0, err
	}

	items, ok := res.([]interface{})
	if !ok || len(items) != 2 {
		return 0, 0, errBadScriptReply
	}
	count, ok1 := items[0].(int64)
	ttlMs, ok2 := items[1].(int64)
	if !ok1 || !ok2 {
		return 0, 0, errBadScriptReply
	}

	// PTTL devolve -1/-2 em condições degeneradas (chave sem TTL/inexistente);
	// nesse caso assume a janela cheia em vez de propagar valor negativo.
	if ttlMs < 0 {
		ttlMs = window.Milliseconds()
	}

	return count, time.Duration(ttlMs) * time.Millisecond, nil
}
