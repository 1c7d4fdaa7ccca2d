package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyCart is returned when no lines are supplied.
	ErrEmptyCart = errors.New("pricing: cart is empty")
	// ErrInvalidQuantity is returned for lines with a quantity below one.
	ErrInvalidQuantity = errors.New("pricing: quantity must be at least 1")
	// ErrAmountOverflow is returned when a line or total exceeds the int64 range.
	ErrAmountOverflow = errors.New("pricing: amount overflow")
)

// UnknownProductError reports a cart line whose product has no server-held price.
type UnknownProductError struct {
	ProductID string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("pricing: unknown product %q", e.ProductID)
}

// UnknownProductPolicy decides how lines without a catalog price are priced.
type UnknownProductPolicy string

const (
	// RejectUnknown fails the computation with UnknownProductError.
	RejectUnknown UnknownProductPolicy = "reject"
	// DefaultPriceForUnknown prices the line at Policy.DefaultUnitPrice.
	DefaultPriceForUnknown UnknownProductPolicy = "default_price"
)

// ParseUnknownProductPolicy maps a configuration value onto a policy. Empty
// input selects RejectUnknown.
func ParseUnknownProductPolicy(value string) (UnknownProductPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(RejectUnknown):
		return RejectUnknown, nil
	case string(DefaultPriceForUnknown), "default":
		return DefaultPriceForUnknown, nil
	default:
		return "", fmt.Errorf("pricing: unsupported unknown product policy %q", value)
	}
}

// Catalog resolves server-held unit prices by product identifier.
type Catalog interface {
	UnitPrice(productID string) (Money, bool)
}

// PriceTable is an in-memory Catalog. It must not be mutated while shared.
type PriceTable map[string]Money

// UnitPrice implements Catalog.
func (t PriceTable) UnitPrice(productID string) (Money, bool) {
	price, ok := t[productID]
	return price, ok
}

// Line describes a cart line: a product reference and a quantity. It never
// carries a price.
type Line struct {
	ProductID string
	Quantity  int
}

// Policy holds the server-side constants used to price a cart.
type Policy struct {
	BaseCurrency          string
	SettlementCurrency    string
	TaxRate               decimal.Decimal
	FreeShippingThreshold Money
	FlatShipping          Money
	FXRate                decimal.Decimal
	DefaultUnitPrice      Money
	UnknownProduct        UnknownProductPolicy
}

// Validate reports configuration values that would produce meaningless totals.
func (p Policy) Validate() error {
	if strings.TrimSpace(p.BaseCurrency) == "" || strings.TrimSpace(p.SettlementCurrency) == "" {
		return errors.New("pricing: base and settlement currencies are required")
	}
	if p.TaxRate.IsNegative() {
		return errors.New("pricing: tax rate cannot be negative")
	}
	if !p.FXRate.IsPositive() {
		return errors.New("pricing: fx rate must be positive")
	}
	if p.FreeShippingThreshold < 0 || p.FlatShipping < 0 || p.DefaultUnitPrice < 0 {
		return errors.New("pricing: amounts cannot be negative")
	}
	if _, err := ParseUnknownProductPolicy(string(p.UnknownProduct)); err != nil {
		return err
	}
	return nil
}

// ForSettlement returns a copy of the policy settling in currency. The
// configured settlement currency keeps its FX rate; settling in the base
// currency uses a rate of one. Any other currency is rejected.
func (p Policy) ForSettlement(currency string) (Policy, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	switch {
	case code == "" || code == strings.ToUpper(p.SettlementCurrency):
		return p, nil
	case code == strings.ToUpper(p.BaseCurrency):
		p.SettlementCurrency = code
		p.FXRate = decimal.NewFromInt(1)
		return p, nil
	default:
		return p, fmt.Errorf("pricing: unsupported settlement currency %q", currency)
	}
}

// Breakdown aggregates computed pricing components. Subtotal, Tax, Shipping
// and Total are in base currency minor units; ConvertedTotal is in settlement
// currency minor units.
type Breakdown struct {
	Subtotal           Money  `json:"subtotal"`
	Tax                Money  `json:"tax"`
	Shipping           Money  `json:"shipping"`
	Total              Money  `json:"total"`
	ConvertedTotal     int64  `json:"convertedTotal"`
	BaseCurrency       string `json:"baseCurrency"`
	SettlementCurrency string `json:"settlementCurrency"`
}

// ComputeBreakdown prices lines using only catalog prices and policy
// constants. It has no side effects and is safe for concurrent use as long as
// catalog is not mutated.
func ComputeBreakdown(lines []Line, catalog Catalog, policy Policy) (Breakdown, error) {
	if len(lines) == 0 {
		return Breakdown{}, ErrEmptyCart
	}
	var subtotal Money
	for _, line := range lines {
		if line.Quantity < 1 {
			return Breakdown{}, fmt.Errorf("%w: product %q", ErrInvalidQuantity, line.ProductID)
		}
		unit, err := policy.unitPrice(catalog, line.ProductID)
		if err != nil {
			return Breakdown{}, err
		}
		lineTotal, ok := mulMoney(unit, line.Quantity)
		if !ok {
			return Breakdown{}, ErrAmountOverflow
		}
		subtotal, ok = addMoney(subtotal, lineTotal)
		if !ok {
			return Breakdown{}, ErrAmountOverflow
		}
	}

	tax := FromDecimal(subtotal.Decimal().Mul(policy.TaxRate))
	shipping := policy.FlatShipping
	if subtotal >= policy.FreeShippingThreshold {
		shipping = 0
	}
	total, ok := addMoney(subtotal, tax)
	if ok {
		total, ok = addMoney(total, shipping)
	}
	if !ok {
		return Breakdown{}, ErrAmountOverflow
	}
	converted := total.Decimal().Mul(policy.FXRate).Shift(minorExponent).Round(0)
	if converted.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return Breakdown{}, ErrAmountOverflow
	}

	return Breakdown{
		Subtotal:           subtotal,
		Tax:                tax,
		Shipping:           shipping,
		Total:              total,
		ConvertedTotal:     converted.IntPart(),
		BaseCurrency:       policy.BaseCurrency,
		SettlementCurrency: policy.SettlementCurrency,
	}, nil
}

func (p Policy) unitPrice(catalog Catalog, productID string) (Money, error) {
	if catalog != nil {
		if price, ok := catalog.UnitPrice(productID); ok {
			return price, nil
		}
	}
	if p.UnknownProduct == DefaultPriceForUnknown {
		return p.DefaultUnitPrice, nil
	}
	return 0, &UnknownProductError{ProductID: productID}
}

func mulMoney(unit Money, qty int) (Money, bool) {
	if unit == 0 || qty == 0 {
		return 0, true
	}
	if unit < 0 || int64(unit) > math.MaxInt64/int64(qty) {
		return 0, false
	}
	return unit * Money(qty), true
}

func addMoney(a, b Money) (Money, bool) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}
