package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"retail-gateway/backend"
	"retail-gateway/middleware/auth"
	"retail-gateway/middleware/metrics"
	"retail-gateway/middleware/ratelimit"
	"retail-gateway/middleware/ratelimit/application"
	"retail-gateway/middleware/ratelimit/domain"
	"retail-gateway/middleware/ratelimit/infra"
	"retail-gateway/middleware/requestlog"
	"retail-gateway/routes"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
)

// Config concentra toda a configuração do processo, lida do ambiente e
// validada na subida. Campos exportados por exigência do validator.
type Config struct {
	ListenAddr string `validate:"required"`
	LogLevel   string `validate:"oneof=debug info warn error"`
	TrustXFF   bool

	// PublicPrefixes dispensam autenticação (health checks, metrics).
	PublicPrefixes []string

	// RateMode escolhe o enforcement: janela fixa compartilhada no Redis ou
	// token-bucket local (single-node).
	RateMode   string        `validate:"oneof=redis local"`
	RateLimit  int           `validate:"gt=0"`
	RateWindow time.Duration `validate:"gt=0"`
	RateRPS    float64
	RateBurst  int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	StatsEnabled   bool
	StatsPrefix    string
	StatsTTL       time.Duration
	StatsBucket    string
	StatsTrackKeys bool

	ConcurrencyMax     int `validate:"gte=0"`
	ConcurrencyTimeout time.Duration

	OIDCServerURL string `validate:"required,url"`
	OIDCRealm     string `validate:"required"`
	OIDCAudience  string
	OIDCKeyTTL    time.Duration

	ProductServiceURL     string        `validate:"required,url"`
	ProductTimeout        time.Duration `validate:"gt=0"`
	ProductRetries        int           `validate:"gte=0"`
	ProductBackoff        time.Duration
	FallbackEnabled       bool
	FallbackCoverNotFound bool
}

func main() {
	cfg, err := readConfig()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// cliente Redis compartilhado entre contador, stats e health probe
	var rdb *redis.Client
	if cfg.RateMode == "redis" || cfg.StatsEnabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			// o rate limit é fail-open; subir sem Redis é aceitável
			logger.Warn("redis unreachable at startup", "addr", cfg.RedisAddr, "error", err)
		}
	}

	admitter := buildAdmitter(ctx, cfg, rdb, logger)

	var statsStore domain.StatsStore
	if cfg.StatsEnabled && rdb != nil {
		statsStore = infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.StatsPrefix),
			infra.WithStatsTTL(cfg.StatsTTL),
			infra.WithStatsBucket(cfg.StatsBucket),
			infra.WithStatsTrackKeys(cfg.StatsTrackKeys),
		)
	}

	verifier := auth.NewKeycloakVerifier(
		cfg.OIDCServerURL,
		cfg.OIDCRealm,
		cfg.OIDCAudience,
		&http.Client{Timeout: 5 * time.Second},
		logger,
	)
	if cfg.OIDCKeyTTL > 0 {
		verifier.KeyTTL = cfg.OIDCKeyTTL
	}

	backendHTTP := &http.Client{}
	products := backend.NewClient("product", cfg.ProductServiceURL, backendHTTP, logger)
	products.Timeout = cfg.ProductTimeout
	products.Retries = cfg.ProductRetries
	if cfg.ProductBackoff > 0 {
		products.BackoffFactor = cfg.ProductBackoff
	}

	var fallback *backend.Fallback
	if cfg.FallbackEnabled {
		fallback = &backend.Fallback{
			Name:       "mock-product",
			Payload:    routes.DefaultProductFallback,
			OnNotFound: cfg.FallbackCoverNotFound,
		}
	}

	mux := http.NewServeMux()
	routes.NewProducts(products, fallback, logger).Register(mux)
	routes.NewHealth("api-gateway", healthProbes(rdb), logger).Register(mux)
	mux.Handle("GET /metrics", metrics.Handler())

	// pipeline de estágios, do mais externo ao mais interno:
	// requestlog -> metrics -> concurrency -> ratelimit -> auth -> rotas
	h := http.Handler(mux)
	h = auth.Middleware(auth.Options{
		Verifier:       verifier,
		PublicPrefixes: cfg.PublicPrefixes,
		Logger:         logger,
	})(h)
	h = ratelimit.Middleware(ratelimit.Options{
		Admitter: admitter,
		Resolver: ratelimit.SubjectResolver(auth.PeekSubject, ratelimit.IPResolver(cfg.TrustXFF)),
		Stats:    statsStore,
	})(h)
	h = ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Max:            cfg.ConcurrencyMax,
		AcquireTimeout: cfg.ConcurrencyTimeout,
	})(h)
	h = metrics.Middleware(metrics.MuxRoute(mux))(h)
	h = requestlog.Middleware(requestlog.Options{
		Logger:             logger,
		TrustXForwardedFor: cfg.TrustXFF,
	})(h)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("gateway listening", "addr", cfg.ListenAddr, "rate_mode", cfg.RateMode)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("gateway stopped")
}

// buildAdmitter monta o modo de admissão configurado. No modo redis, a
// janela fixa compartilhada; no modo local, o token-bucket por chave com
// janitor de chaves ociosas.
func buildAdmitter(ctx context.Context, cfg Config, rdb *redis.Client, logger *slog.Logger) application.Admitter {
	if cfg.RateMode == "redis" {
		return application.Service{
			Counters: infra.NewRedisCounterStore(rdb),
			Limits: domain.ClassLimits{
				Base:        cfg.RateLimit,
				Multipliers: domain.DefaultMultipliers(),
			},
			Window: cfg.RateWindow,
			Logger: logger,
		}
	}

	store := infra.NewStore(cfg.RateRPS, cfg.RateBurst)
	store.StartJanitor(ctx)
	return application.LocalService{Store: store}
}

func healthProbes(rdb *redis.Client) map[string]routes.Probe {
	probes := map[string]routes.Probe{}
	if rdb != nil {
		probes["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}
	return probes
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func readConfig() (Config, error) {
	cfg := Config{
		ListenAddr: getenvDefault("LISTEN_ADDR", ":8080"),
		LogLevel:   getenvDefault("LOG_LEVEL", "info"),
		TrustXFF:   getenvBoolDefault("TRUST_XFF", false),

		PublicPrefixes: []string{"/health", "/metrics"},

		RateMode:   getenvDefault("RATE_MODE", "redis"),
		RateLimit:  getenvIntDefault("RATE_LIMIT", 100),
		RateWindow: getenvDurationDefault("RATE_WINDOW", time.Minute),
		RateRPS:    getenvFloatDefault("RATE_RPS", 5),
		RateBurst:  getenvIntDefault("RATE_BURST", 10),

		RedisAddr:     getenvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getenvIntDefault("REDIS_DB", 0),

		StatsEnabled:   getenvBoolDefault("RATE_STATS_ENABLED", false),
		StatsPrefix:    getenvDefault("RATE_STATS_PREFIX", "gateway:stats"),
		StatsTTL:       getenvDurationDefault("RATE_STATS_TTL", 24*time.Hour),
		StatsBucket:    getenvDefault("RATE_STATS_BUCKET", "minute"),
		StatsTrackKeys: getenvBoolDefault("RATE_STATS_TRACK_KEYS", false),

		ConcurrencyMax:     getenvIntDefault("CONCURRENCY_MAX", 100),
		ConcurrencyTimeout: getenvDurationDefault("CONCURRENCY_TIMEOUT", 0),

		OIDCServerURL: getenvDefault("KEYCLOAK_SERVER_URL", "http://localhost:8180"),
		OIDCRealm:     getenvDefault("KEYCLOAK_REALM", "retail"),
		OIDCAudience:  os.Getenv("KEYCLOAK_AUDIENCE"),
		OIDCKeyTTL:    getenvDurationDefault("KEYCLOAK_KEY_TTL", 15*time.Minute),

		ProductServiceURL:     getenvDefault("PRODUCT_SERVICE_URL", "http://localhost:8001"),
		ProductTimeout:        getenvDurationDefault("PRODUCT_TIMEOUT", 10*time.Second),
		ProductRetries:        getenvIntDefault("PRODUCT_RETRIES", 0),
		ProductBackoff:        getenvDurationDefault("PRODUCT_BACKOFF", 500*time.Millisecond),
		FallbackEnabled: getenvBoolDefault("FALLBACK_ENABLED", true),
		// política habilitada cobre 404 do backend também; o opt-out
		// existe para quem quer 404 propagado
		FallbackCoverNotFound: getenvBoolDefault("FALLBACK_ON_NOT_FOUND", true),
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
