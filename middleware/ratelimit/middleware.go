package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"time"

	"retail-gateway/middleware/ratelimit/application"
	"retail-gateway/middleware/ratelimit/domain"
	"retail-gateway/web"
)

// Resolver extrai a identidade de throttling do request: a chave do contador
// e a classe que define o limite.
type Resolver func(r *http.Request) (domain.Key, domain.Class)

type Options struct {
	// Admitter decide a admissão (janela compartilhada ou bucket local).
	Admitter application.Admitter
	// Resolver define chave+classe. Se nil, usa IPResolver.
	Resolver Resolver
	// Stats registra decisões (best-effort, erro é ignorado).
	Stats              domain.StatsStore
	TrustXForwardedFor bool
	RejectStatus       int
}

// IPResolver classifica todo cliente como anônimo, chaveado por IP.
func IPResolver(trustXFF bool) Resolver {
	return func(r *http.Request) (domain.Key, domain.Class) {
		return domain.Key("ip:" + ClientIP(r, trustXFF)), domain.ClassAnonymous
	}
}

// SubjectResolver chaveia pelo subject do token quando peek consegue
// extraí-lo, com classe derivada dos papéis; caso contrário delega ao
// fallback (IP + anonymous).
//
// peek NÃO valida o token: o subject serve só para chavear o contador.
// Autenticação de verdade acontece no estágio de auth, depois do throttle.
func SubjectResolver(peek func(r *http.Request) (subject string, roles []string, ok bool), fallback Resolver) Resolver {
	return func(r *http.Request) (domain.Key, domain.Class) {
		if subject, roles, ok := peek(r); ok && subject != "" {
			return domain.Key(subject), domain.ClassFor(roles)
		}
		return fallback(r)
	}
}

// ClientIP extrai o IP do cliente (primeiro X-Forwarded-For quando confiável,
// senão RemoteAddr).
func ClientIP(r *http.Request, trustXFF bool) string {
	if trustXFF {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			if len(parts) > 0 {
				if ip := strings.TrimSpace(parts[0]); ip != "" {
					return ip
				}
			}
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// Middleware aplica o rate limit por cliente e anexa os headers
// X-RateLimit-Limit/-Remaining/-Reset. Rejeições saem como 429 com
// Retry-After; decisões fail-open passam sem headers de contagem.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.Resolver == nil {
		opts.Resolver = IPResolver(opts.TrustXForwardedFor)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, class := opts.Resolver(r)

			dec := opts.Admitter.Admit(r.Context(), key, class)

			if dec.Limit > 0 && !dec.FailOpen {
				w.Header().Set("X-RateLimit-Limit", formatInt(dec.Limit))
				w.Header().Set("X-RateLimit-Remaining", formatInt(dec.Remaining))
				w.Header().Set("X-RateLimit-Reset", formatInt64(dec.ResetAt.Unix()))
			}

			if opts.Stats != nil {
				_ = opts.Stats.Record(r.Context(), domain.StatsEvent{
					Key:     key,
					Class:   class,
					Allowed: dec.Allowed,
					Method:  r.Method,
					Path:    r.URL.Path,
					At:      time.Now(),
				})
			}

			if !dec.Allowed {
				w.Header().Set("Retry-After", formatInt(retryAfterSeconds(dec.RetryAfter)))
				web.Error(w, opts.RejectStatus, "Rate limit exceeded. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds arredonda para cima e nunca anuncia menos de 1 segundo:
// um resto de janela sub-segundo viraria Retry-After: 0 e convidaria retry
// imediato.
func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
