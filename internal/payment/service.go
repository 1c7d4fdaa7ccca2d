package payment

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/ristore-api/internal/obs"
	"github.com/noah-isme/ristore-api/internal/pricing"
)

const defaultGatewayTimeout = 5 * time.Second

var productIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,199}$`)

// PriceSource loads authoritative unit prices for the given product ids.
type PriceSource interface {
	UnitPrices(ctx context.Context, ids []string) (pricing.PriceTable, error)
}

// OrderIntent pairs the gateway's order handle with the locally computed breakdown.
type OrderIntent struct {
	GatewayOrderID string
	Receipt        string
	Order          GatewayOrder
	Breakdown      pricing.Breakdown
}

// Service creates order intents and verifies payment callbacks.
type Service struct {
	gateway       Gateway
	prices        PriceSource
	policy        pricing.Policy
	minSettlement int64
	timeout       time.Duration
	secret        string
	validate      *validator.Validate
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Gateway       Gateway
	Prices        PriceSource
	Policy        pricing.Policy
	MinSettlement int64
	Timeout       time.Duration
	// Secret is the gateway key secret used to sign payment callbacks.
	Secret    string
	Validator *validator.Validate
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Gateway == nil {
		return nil, errors.New("payment: gateway is required")
	}
	if cfg.Prices == nil {
		return nil, errors.New("payment: price source is required")
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}
	v := cfg.Validator
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}
	if err := v.RegisterValidation("productid", func(fl validator.FieldLevel) bool {
		return productIDPattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, err
	}
	return &Service{
		gateway:       cfg.Gateway,
		prices:        cfg.Prices,
		policy:        cfg.Policy,
		minSettlement: cfg.MinSettlement,
		timeout:       timeout,
		secret:        cfg.Secret,
		validate:      v,
	}, nil
}

// Provider names the configured gateway.
func (s *Service) Provider() string {
	return s.gateway.Name()
}

// CreateOrderIntent prices lines from server-held data only, enforces the
// settlement floor and opens an order with the gateway. The gateway is
// called at most once and never when the cart is rejected.
func (s *Service) CreateOrderIntent(ctx context.Context, lines []pricing.Line, currency string) (intent OrderIntent, err error) {
	ctx, span := otel.Tracer("payment").Start(ctx, "payment.create_order_intent")
	defer func() {
		obs.Inc(obs.PaymentOrderTotal, s.gateway.Name(), resultLabel(err))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, resultLabel(err))
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("payment.provider", s.gateway.Name()),
		attribute.Int("cart.lines", len(lines)),
	)

	if err := s.validateLines(lines); err != nil {
		return OrderIntent{}, err
	}
	policy, err := s.policy.ForSettlement(currency)
	if err != nil {
		return OrderIntent{}, &UnsupportedCurrencyError{Currency: currency, Err: err}
	}

	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	prices, err := s.prices.UnitPrices(ctx, ids)
	if err != nil {
		return OrderIntent{}, fmt.Errorf("load prices: %w", err)
	}

	breakdown, err := pricing.ComputeBreakdown(lines, prices, policy)
	if err != nil {
		var unknown *pricing.UnknownProductError
		if errors.As(err, &unknown) {
			return OrderIntent{}, err
		}
		return OrderIntent{}, &InvalidCartError{Reason: "cannot price cart", Err: err}
	}
	span.SetAttributes(
		attribute.Int64("payment.amount", breakdown.ConvertedTotal),
		attribute.String("payment.currency", breakdown.SettlementCurrency),
	)
	if breakdown.ConvertedTotal < s.minSettlement {
		return OrderIntent{}, &BelowMinimumError{Breakdown: breakdown, Minimum: s.minSettlement}
	}

	receipt := "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	order, err := s.gateway.CreateOrder(callCtx, OrderRequest{
		Amount:   breakdown.ConvertedTotal,
		Currency: breakdown.SettlementCurrency,
		Receipt:  receipt,
		Notes:    breakdownNotes(breakdown),
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("provider", s.gateway.Name()).
			Str("receipt", receipt).
			Int64("amount", breakdown.ConvertedTotal).
			Msg("gateway order creation failed")
		return OrderIntent{}, &GatewayUnavailableError{Provider: s.gateway.Name(), Err: err}
	}
	zerolog.Ctx(ctx).Info().
		Str("provider", s.gateway.Name()).
		Str("gateway_order_id", order.ID).
		Str("receipt", receipt).
		Int64("amount", breakdown.ConvertedTotal).
		Str("currency", breakdown.SettlementCurrency).
		Msg("order intent created")
	return OrderIntent{GatewayOrderID: order.ID, Receipt: receipt, Order: order, Breakdown: breakdown}, nil
}

// Verify checks a payment callback against the configured secret.
func (s *Service) Verify(ctx context.Context, cb Callback) (bool, error) {
	ok, err := VerifySignature(cb, s.secret)
	result := "ok"
	switch {
	case errors.Is(err, ErrMalformedCallback):
		result = "malformed"
	case err != nil:
		result = "error"
	case !ok:
		result = "mismatch"
	}
	obs.Inc(obs.PaymentVerifyTotal, result)
	if result != "ok" {
		zerolog.Ctx(ctx).Warn().
			Str("gateway_order_id", cb.GatewayOrderID).
			Str("result", result).
			Msg("payment verification rejected")
	}
	return ok, err
}

func (s *Service) validateLines(lines []pricing.Line) error {
	if len(lines) == 0 {
		return &InvalidCartError{Reason: "cart is empty", Err: pricing.ErrEmptyCart}
	}
	for i, line := range lines {
		if err := s.validate.Var(line.ProductID, "required,productid"); err != nil {
			return &InvalidCartError{Reason: fmt.Sprintf("item %d has a malformed product id", i), Err: err}
		}
		if line.Quantity < 1 {
			return &InvalidCartError{Reason: fmt.Sprintf("item %d quantity must be at least 1", i), Err: pricing.ErrInvalidQuantity}
		}
	}
	return nil
}

func breakdownNotes(b pricing.Breakdown) map[string]string {
	base := strings.ToLower(b.BaseCurrency)
	notes := map[string]string{
		"subtotal_" + base: b.Subtotal.String(),
		"tax_" + base:      b.Tax.String(),
		"shipping_" + base: b.Shipping.String(),
		"total_" + base:    b.Total.String(),
	}
	notes["total_"+strings.ToLower(b.SettlementCurrency)] = pricing.Money(b.ConvertedTotal).String()
	return notes
}

func resultLabel(err error) string {
	var (
		invalid  *InvalidCartError
		unknown  *pricing.UnknownProductError
		currency *UnsupportedCurrencyError
		below    *BelowMinimumError
		gateway  *GatewayUnavailableError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &invalid), errors.As(err, &currency):
		return "invalid_cart"
	case errors.As(err, &unknown):
		return "unknown_product"
	case errors.As(err, &below):
		return "below_minimum"
	case errors.As(err, &gateway):
		return "gateway_error"
	default:
		return "error"
	}
}
