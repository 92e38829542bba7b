package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestError_WritesDetailBody(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, http.StatusNotFound, "Product not found")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json content type, got %q", ct)
	}

	var body ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body.Detail != "Product not found" {
		t.Fatalf("unexpected detail: %q", body.Detail)
	}
}

func TestStatusRecorder_CapturesStatusOnce(t *testing.T) {
	w := httptest.NewRecorder()
	rec := NewStatusRecorder(w)

	rec.WriteHeader(http.StatusTeapot)
	rec.WriteHeader(http.StatusOK) // segunda chamada é ignorada

	if rec.Status != http.StatusTeapot {
		t.Fatalf("expected recorded status 418, got %d", rec.Status)
	}
	if !rec.Written() {
		t.Fatalf("expected Written() true after WriteHeader")
	}
}

func TestStatusRecorder_WriteDefaultsTo200(t *testing.T) {
	w := httptest.NewRecorder()
	rec := NewStatusRecorder(w)

	if rec.Written() {
		t.Fatalf("expected Written() false before any write")
	}
	_, _ = rec.Write([]byte("ok"))

	if rec.Status != http.StatusOK {
		t.Fatalf("expected implicit 200, got %d", rec.Status)
	}
}

func TestStatusRecorder_OnWriteHeaderRunsBeforeStatus(t *testing.T) {
	w := httptest.NewRecorder()
	rec := NewStatusRecorder(w)
	rec.OnWriteHeader = func(int) {
		// headers ainda podem ser alterados neste ponto
		rec.Header().Set("X-Process-Time", "0.000123")
	}

	rec.WriteHeader(http.StatusOK)

	if got := w.Header().Get("X-Process-Time"); got != "0.000123" {
		t.Fatalf("expected hook to set header before status, got %q", got)
	}
}
