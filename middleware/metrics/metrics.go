// Package metrics expõe as métricas de request do gateway no formato
// Prometheus: contador por método/rota/status e histograma de duração.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"retail-gateway/web"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests handled by the gateway.",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// RouteResolver mapeia o request para o label de rota das métricas.
type RouteResolver func(*http.Request) string

// MuxRoute resolve o label pelo pattern registrado no mux
// (ex: /api/products/{id}), mantendo a cardinalidade limitada: cada id de
// produto NÃO vira uma série nova. Requests sem rota devolvem "".
func MuxRoute(mux *http.ServeMux) RouteResolver {
	return func(r *http.Request) string {
		_, pattern := mux.Handler(r)
		return pattern
	}
}

// Middleware mede todo request que atravessa o pipeline. resolve pode ser
// nil; nesse caso o label é o path cru.
func Middleware(resolve RouteResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec, ok := w.(*web.StatusRecorder)
			if !ok {
				rec = web.NewStatusRecorder(w)
			}

			// resolvido antes do handler: estágios seguintes trocam o
			// request por cópias (WithContext) e o pattern preenchido pelo
			// mux não é visível aqui depois
			path := r.URL.Path
			if resolve != nil {
				if p := resolve(r); p != "" {
					path = p
				}
			}

			start := time.Now()
			next.ServeHTTP(rec, r)

			requestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.Status)).Inc()
			requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler serve o endpoint /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
