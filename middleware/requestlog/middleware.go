// Package requestlog é o estágio mais externo do pipeline: atribui o
// request ID, mede a latência total (inclusive de respostas curto-circuitadas
// pelos estágios seguintes), loga início/fim e recupera panics como 500.
package requestlog

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"retail-gateway/middleware/ratelimit"
	"retail-gateway/web"

	"github.com/google/uuid"
)

type Options struct {
	Logger *slog.Logger
	// ExcludePrefixes silencia o log de início (health checks, metrics).
	// Erros (status >= 400) são sempre logados.
	ExcludePrefixes    []string
	TrustXForwardedFor bool
}

// DefaultExcludePrefixes cobre as rotas de infraestrutura.
func DefaultExcludePrefixes() []string {
	return []string{"/health", "/metrics"}
}

// Middleware instala o Info no contexto, propaga/gera X-Request-ID e anexa
// X-Request-ID e X-Process-Time em toda resposta.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ExcludePrefixes == nil {
		opts.ExcludePrefixes = DefaultExcludePrefixes()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
			if requestID == "" {
				requestID = uuid.New().String()
			}

			info := &Info{
				ID:       requestID,
				Start:    time.Now(),
				ClientIP: ratelimit.ClientIP(r, opts.TrustXForwardedFor),
			}

			r = r.WithContext(WithInfo(r.Context(), info))
			// garante que estágios seguintes (e o backend) veem o mesmo ID
			r.Header.Set("X-Request-ID", requestID)
			w.Header().Set("X-Request-ID", requestID)

			rec := web.NewStatusRecorder(w)
			rec.OnWriteHeader = func(int) {
				elapsed := time.Since(info.Start).Seconds()
				rec.Header().Set("X-Process-Time", strconv.FormatFloat(elapsed, 'f', 6, 64))
			}

			minimal := excluded(r.URL.Path, opts.ExcludePrefixes)
			if !minimal {
				logger.Info("request started",
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", requestID,
					"client_ip", info.ClientIP,
					"user_agent", r.UserAgent())
			}

			defer func() {
				if rv := recover(); rv != nil {
					logger.Error("request panicked",
						"method", r.Method,
						"path", r.URL.Path,
						"request_id", requestID,
						"panic", rv,
						"stack", string(debug.Stack()))
					if !rec.Written() {
						web.Error(rec, http.StatusInternalServerError, "Internal server error")
					}
					return
				}

				duration := time.Since(info.Start)
				status := rec.Status
				if minimal && status < http.StatusBadRequest {
					return
				}

				fields := []any{
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"duration_ms", duration.Milliseconds(),
					"request_id", requestID,
				}
				if info.UserID != "" {
					fields = append(fields, "user_id", info.UserID)
				}

				if status >= http.StatusBadRequest {
					logger.Warn("request completed", fields...)
				} else {
					logger.Info("request completed", fields...)
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}

func excluded(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
