package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/ristore-api/internal/pricing"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	MigrateOnStart     bool
	CORSAllowedOrigins []string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	PaymentProvider       string
	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayBaseURL       string
	PaymentGatewayTimeout time.Duration
	MinSettlementMinor    int64

	Pricing pricing.Policy

	CatalogDefaultLimit     int
	CatalogMaxLimit         int
	CatalogBestSellerRating decimal.Decimal
	CatalogCacheTTL         time.Duration
	IdempotencyTTL          time.Duration
	RateLimitStrategy       string
	RateLimitPaymentMax     int
	RateLimitPaymentWindow  time.Duration
	HTTPBodyLimitBytes      int64
	SecurityHeadersEnabled  bool
	ShutdownTimeout         time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	p := parser{k: k}
	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        strings.TrimSpace(k.String("DATABASE_URL")),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		MigrateOnStart:     parseBool(k.String("MIGRATE_ON_START")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		JWTSecret:   k.String("JWT_SECRET"),
		JWTIssuer:   valueOrDefault(k.String("JWT_ISSUER"), "ristore"),
		JWTAudience: valueOrDefault(k.String("JWT_AUDIENCE"), "ristore-api"),

		PaymentProvider:       strings.ToLower(valueOrDefault(k.String("PAYMENT_PROVIDER"), "razorpay")),
		RazorpayKeyID:         strings.TrimSpace(k.String("RAZORPAY_KEY_ID")),
		RazorpayKeySecret:     strings.TrimSpace(k.String("RAZORPAY_KEY_SECRET")),
		RazorpayBaseURL:       valueOrDefault(k.String("RAZORPAY_BASE_URL"), "https://api.razorpay.com"),
		PaymentGatewayTimeout: p.duration("PAYMENT_GATEWAY_TIMEOUT", "5s"),
		MinSettlementMinor:    p.integer64("PAYMENT_MIN_SETTLEMENT_MINOR", 10000),

		CatalogDefaultLimit:     p.integer("CATALOG_DEFAULT_LIMIT", 20),
		CatalogMaxLimit:         p.integer("CATALOG_MAX_LIMIT", 100),
		CatalogBestSellerRating: p.dec("CATALOG_BEST_SELLER_MIN_RATING", "4.0"),
		CatalogCacheTTL:         p.duration("CATALOG_CACHE_TTL", "5m"),
		IdempotencyTTL:          p.duration("IDEMPOTENCY_TTL", "10m"),
		RateLimitStrategy:       strings.ToLower(valueOrDefault(k.String("RATE_LIMIT_STRATEGY"), "sliding")),
		RateLimitPaymentMax:     p.integer("RATE_LIMIT_PAYMENT_MAX", 30),
		RateLimitPaymentWindow:  p.duration("RATE_LIMIT_PAYMENT_WINDOW", "1m"),
		HTTPBodyLimitBytes:      p.integer64("HTTP_BODY_LIMIT_BYTES", 1<<20),
		SecurityHeadersEnabled:  parseBoolDefault(k.String("SECURITY_HEADERS_ENABLED"), true),
		ShutdownTimeout:         p.duration("SHUTDOWN_TIMEOUT", "15s"),
	}

	unknownPolicy, err := pricing.ParseUnknownProductPolicy(k.String("PRICING_UNKNOWN_PRODUCT_POLICY"))
	if err != nil {
		p.errs = append(p.errs, err)
	}
	cfg.Pricing = pricing.Policy{
		BaseCurrency:          strings.ToUpper(valueOrDefault(k.String("PRICING_BASE_CURRENCY"), "USD")),
		SettlementCurrency:    strings.ToUpper(valueOrDefault(k.String("PAYMENT_SETTLEMENT_CURRENCY"), "INR")),
		TaxRate:               p.dec("PRICING_TAX_RATE", "0.08"),
		FreeShippingThreshold: p.money("PRICING_FREE_SHIPPING_THRESHOLD", "130.00"),
		FlatShipping:          p.money("PRICING_FLAT_SHIPPING", "9.99"),
		FXRate:                p.dec("PRICING_FX_RATE", "83"),
		DefaultUnitPrice:      p.money("PRICING_DEFAULT_UNIT_PRICE", "99.99"),
		UnknownProduct:        unknownPolicy,
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.RedisURL == "" {
		return errors.New("REDIS_URL is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.PaymentProvider {
	case "razorpay":
		if c.RazorpayKeyID == "" || c.RazorpayKeySecret == "" {
			return errors.New("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required for the razorpay provider")
		}
	case "stub":
		if c.RazorpayKeySecret == "" {
			return errors.New("RAZORPAY_KEY_SECRET is required to verify payment callbacks")
		}
	default:
		return fmt.Errorf("unsupported PAYMENT_PROVIDER %q", c.PaymentProvider)
	}
	switch c.RateLimitStrategy {
	case "sliding", "fixed":
	default:
		return fmt.Errorf("unsupported RATE_LIMIT_STRATEGY %q", c.RateLimitStrategy)
	}
	if c.MinSettlementMinor < 0 {
		return errors.New("PAYMENT_MIN_SETTLEMENT_MINOR cannot be negative")
	}
	if c.CatalogMaxLimit < 1 || c.CatalogDefaultLimit < 1 {
		return errors.New("catalog limits must be positive")
	}
	return c.Pricing.Validate()
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// parser accumulates conversion errors so a misconfigured deployment reports
// every bad key at once instead of silently falling back.
type parser struct {
	k    *koanf.Koanf
	errs []error
}

func (p *parser) raw(key, fallback string) string {
	return valueOrDefault(p.k.String(key), fallback)
}

func (p *parser) duration(key, fallback string) time.Duration {
	d, err := time.ParseDuration(p.raw(key, fallback))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
	}
	return d
}

func (p *parser) integer(key string, fallback int) int {
	v, err := strconv.Atoi(p.raw(key, strconv.Itoa(fallback)))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) integer64(key string, fallback int64) int64 {
	v, err := strconv.ParseInt(p.raw(key, strconv.FormatInt(fallback, 10)), 10, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) dec(key, fallback string) decimal.Decimal {
	d, err := decimal.NewFromString(p.raw(key, fallback))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return decimal.RequireFromString(fallback)
	}
	return d
}

func (p *parser) money(key, fallback string) pricing.Money {
	m, err := pricing.ParseMoney(p.raw(key, fallback))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
	}
	return m
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func parseBool(value string) bool {
	return parseBoolDefault(value, false)
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
