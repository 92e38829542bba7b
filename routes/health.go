package routes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"retail-gateway/web"
)

// Probe testa uma dependência externa. Erro nil = saudável.
type Probe func(ctx context.Context) error

// DependencyHealth é o estado de uma dependência no relatório de health.
type DependencyHealth struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms,omitempty"`
}

type healthReport struct {
	Status        string             `json:"status"`
	Service       string             `json:"service"`
	Timestamp     float64            `json:"timestamp"`
	UptimeSeconds float64            `json:"uptime_seconds"`
	Dependencies  []DependencyHealth `json:"dependencies"`
}

// Health serve os endpoints públicos de saúde: relatório completo, ping e
// readiness (Redis é crítico para o rate limit, então readiness falha sem
// ele).
type Health struct {
	Service string
	Probes  map[string]Probe
	Logger  *slog.Logger

	started time.Time
}

func NewHealth(service string, probes map[string]Probe, logger *slog.Logger) *Health {
	if logger == nil {
		logger = slog.Default()
	}
	return &Health{
		Service: service,
		Probes:  probes,
		Logger:  logger.With("component", "health"),
		started: time.Now(),
	}
}

func (h *Health) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Report)
	mux.HandleFunc("GET /health/ping", h.Ping)
	mux.HandleFunc("GET /health/ready", h.Ready)
}

// Report verifica todas as dependências e agrega o estado geral:
// healthy, degraded (alguma não saudável) ou unhealthy (alguma falhando).
func (h *Health) Report(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	deps := h.checkAll(r.Context())

	overall := "healthy"
	for _, d := range deps {
		if d.Status == "failing" {
			overall = "unhealthy"
			break
		}
		if d.Status != "healthy" {
			overall = "degraded"
		}
	}

	web.WriteJSON(w, http.StatusOK, healthReport{
		Status:        overall,
		Service:       h.Service,
		Timestamp:     float64(now.UnixMilli()) / 1000,
		UptimeSeconds: now.Sub(h.started).Seconds(),
		Dependencies:  deps,
	})
}

func (h *Health) Ping(w http.ResponseWriter, r *http.Request) {
	web.WriteJSON(w, http.StatusOK, map[string]any{
		"message":   "pong",
		"timestamp": float64(time.Now().UnixMilli()) / 1000,
	})
}

// Ready responde 503 enquanto alguma dependência crítica estiver fora.
func (h *Health) Ready(w http.ResponseWriter, r *http.Request) {
	for name, probe := range h.Probes {
		if err := probe(r.Context()); err != nil {
			h.Logger.Warn("readiness probe failed", "dependency", name, "error", err)
			web.Error(w, http.StatusServiceUnavailable,
				"Service is not ready: "+name+" connection failed")
			return
		}
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"timestamp": float64(time.Now().UnixMilli()) / 1000,
	})
}

func (h *Health) checkAll(ctx context.Context) []DependencyHealth {
	deps := make([]DependencyHealth, 0, len(h.Probes))
	for name, probe := range h.Probes {
		start := time.Now()
		err := probe(ctx)
		latency := time.Since(start).Milliseconds()

		if err != nil {
			deps = append(deps, DependencyHealth{
				Name:   name,
				Status: "failing",
				Error:  err.Error(),
			})
			continue
		}
		deps = append(deps, DependencyHealth{
			Name:      name,
			Status:    "healthy",
			LatencyMS: latency,
		})
	}
	return deps
}
