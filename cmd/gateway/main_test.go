package main

import (
	"testing"
	"time"
)

func TestReadConfig_Defaults(t *testing.T) {
	// ambiente limpo: tudo cai nos defaults
	for _, k := range []string{
		"LISTEN_ADDR", "LOG_LEVEL", "RATE_MODE", "RATE_LIMIT", "RATE_WINDOW",
		"FALLBACK_ENABLED", "FALLBACK_ON_NOT_FOUND", "PRODUCT_RETRIES",
	} {
		t.Setenv(k, "")
	}

	cfg, err := readConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Fatalf("expected default listen addr :8080, got %q", cfg.ListenAddr)
	}
	if cfg.RateMode != "redis" {
		t.Fatalf("expected default rate mode redis, got %q", cfg.RateMode)
	}
	if cfg.RateWindow != time.Minute {
		t.Fatalf("expected default window 1m, got %v", cfg.RateWindow)
	}
	if cfg.ProductRetries != 0 {
		t.Fatalf("expected retries disabled by default, got %d", cfg.ProductRetries)
	}

	// política de degradação habilitada cobre backend fora do ar E 404
	if !cfg.FallbackEnabled {
		t.Fatalf("expected fallback enabled by default")
	}
	if !cfg.FallbackCoverNotFound {
		t.Fatalf("expected enabled fallback to cover backend 404 by default")
	}
}

func TestReadConfig_RejectsInvalidValues(t *testing.T) {
	t.Setenv("RATE_MODE", "carrier-pigeon")

	if _, err := readConfig(); err == nil {
		t.Fatalf("expected validation error for invalid rate mode")
	}
}
