package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_UsesRoutePatternLabel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := Middleware(MuxRoute(mux))(mux)

	// ids diferentes devem cair na MESMA série (pattern), não em uma por id
	for _, path := range []string{"/api/products/1", "/api/products/2", "/api/products/99"} {
		r := httptest.NewRequest(http.MethodGet, "http://gateway"+path, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
	}

	byPattern := testutil.ToFloat64(requestsTotal.WithLabelValues("GET", "GET /api/products/{id}", "200"))
	if byPattern != 3 {
		t.Fatalf("expected 3 requests on the pattern series, got %f", byPattern)
	}

	byRawPath := testutil.ToFloat64(requestsTotal.WithLabelValues("GET", "/api/products/1", "200"))
	if byRawPath != 0 {
		t.Fatalf("expected no series keyed by raw path, got %f", byRawPath)
	}
}

func TestMiddleware_FallsBackToRawPathWithoutResolver(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	h := Middleware(nil)(next)

	r := httptest.NewRequest(http.MethodGet, "http://gateway/standalone", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	got := testutil.ToFloat64(requestsTotal.WithLabelValues("GET", "/standalone", "204"))
	if got != 1 {
		t.Fatalf("expected 1 request on raw path series, got %f", got)
	}
}
