package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ristore-api/internal/app"
	"github.com/noah-isme/ristore-api/internal/auth"
	"github.com/noah-isme/ristore-api/internal/catalog"
	"github.com/noah-isme/ristore-api/internal/common"
	"github.com/noah-isme/ristore-api/internal/config"
	"github.com/noah-isme/ristore-api/internal/health"
	"github.com/noah-isme/ristore-api/internal/obs"
	"github.com/noah-isme/ristore-api/internal/payment"
	"github.com/noah-isme/ristore-api/internal/ratelimit"
	"github.com/noah-isme/ristore-api/internal/security"
)

type routerConfig struct {
	cfg         *config.Config
	logger      zerolog.Logger
	deps        app.Dependencies
	catalog     *catalog.Handler
	payment     *payment.Handler
	verifier    *auth.Verifier
	health      health.Handler
	httpMetrics *obs.HTTPMetrics
	tracing     bool
	pprof       bool
}

func newRouter(rc routerConfig) http.Handler {
	cfg := rc.cfg

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if rc.tracing {
		r.Use(obs.TracingMiddleware)
	}
	if rc.httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: rc.httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: rc.logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Total-Count", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(security.Headers{
		Enable:     cfg.SecurityHeadersEnabled,
		EnableHSTS: cfg.AppEnv == "production",
	}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.HTTPBodyLimitBytes}.Middleware)

	if rc.httpMetrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}
	if rc.pprof {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	r.Get("/health/live", rc.health.Live)
	r.Get("/health/ready", rc.health.Ready)

	r.Get("/products", rc.catalog.Products)
	r.Get("/products/{slug}", rc.catalog.ProductDetail)
	r.Get("/categories", rc.catalog.Categories)

	limit := ratelimit.Handler{
		Limiter: rc.deps.Limiter,
		Config: ratelimit.Config{
			Key:    ratelimit.ByClientIP("payment"),
			Window: cfg.RateLimitPaymentWindow,
			Max:    cfg.RateLimitPaymentMax,
		},
		OnError: func(err error) {
			rc.logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
	}
	idem := common.Idem{R: rc.deps.Redis, TTL: cfg.IdempotencyTTL}

	r.Route("/payment", func(p chi.Router) {
		p.Use(security.NoStore)
		p.Use(limit.Middleware)
		p.With(idem.Middleware).Post("/create-order", rc.payment.CreateOrder)
		p.Post("/verify", rc.payment.Verify)
	})

	authMiddleware := auth.Middleware{Verifier: rc.verifier}
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(authMiddleware.RequireAuth)
		admin.Use(auth.RequireRole("admin"))
		admin.Post("/products", rc.catalog.CreateProduct)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})
	return r
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
