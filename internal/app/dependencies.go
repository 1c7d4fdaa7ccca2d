package app

import (
	"fmt"
	"time"

	validator "github.com/go-playground/validator/v10"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/ristore-api/internal/catalog"
	"github.com/noah-isme/ristore-api/internal/config"
	"github.com/noah-isme/ristore-api/internal/payment"
	"github.com/noah-isme/ristore-api/internal/ratelimit"
	"github.com/noah-isme/ristore-api/internal/resilience"
)

// Dependencies enumerates the shared clients the HTTP modules are built from.
type Dependencies struct {
	Redis     *redis.Client
	Validator *validator.Validate
	Limiter   ratelimit.Limiter
	Gateway   payment.Gateway
}

// New resolves the configurable pieces of the dependency graph.
func New(cfg *config.Config, rdb *redis.Client) (Dependencies, error) {
	limiter, err := NewPaymentLimiter(cfg.RateLimitStrategy, rdb)
	if err != nil {
		return Dependencies{}, err
	}
	gateway, err := NewGateway(cfg)
	if err != nil {
		return Dependencies{}, err
	}
	return Dependencies{
		Redis:     rdb,
		Validator: catalog.NewValidator(),
		Limiter:   limiter,
		Gateway:   gateway,
	}, nil
}

// NewPaymentLimiter wires the Redis-backed limiter guarding payment routes.
func NewPaymentLimiter(strategy string, rdb *redis.Client) (ratelimit.Limiter, error) {
	switch strategy {
	case "", "sliding":
		return ratelimit.SlidingWindow{Client: rdb, Prefix: "rl:"}, nil
	case "fixed":
		fw, err := ratelimit.NewFixedWindow(rdb, "rl-fixed")
		if err != nil {
			return nil, fmt.Errorf("fixed window limiter: %w", err)
		}
		return fw, nil
	default:
		return nil, fmt.Errorf("unsupported rate limit strategy %q", strategy)
	}
}

// NewGateway returns the configured payment gateway.
func NewGateway(cfg *config.Config) (payment.Gateway, error) {
	switch cfg.PaymentProvider {
	case "razorpay":
		return payment.Razorpay{
			KeyID:     cfg.RazorpayKeyID,
			KeySecret: cfg.RazorpayKeySecret,
			BaseURL:   cfg.RazorpayBaseURL,
			HTTP:      resilience.NewHTTPClient("razorpay", cfg.PaymentGatewayTimeout),
		}, nil
	case "stub":
		return payment.Stub{Now: time.Now}, nil
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", cfg.PaymentProvider)
	}
}
