package payment

import (
	"errors"
	"fmt"

	"github.com/noah-isme/ristore-api/internal/pricing"
)

// ErrMalformedCallback is returned when a payment callback is missing a
// field or carries a signature that is not hex encoded.
var ErrMalformedCallback = errors.New("payment: malformed callback")

// InvalidCartError reports a cart that cannot be priced as submitted.
type InvalidCartError struct {
	Reason string
	Err    error
}

func (e *InvalidCartError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment: invalid cart: %s: %v", e.Reason, e.Err)
	}
	return "payment: invalid cart: " + e.Reason
}

func (e *InvalidCartError) Unwrap() error { return e.Err }

// UnsupportedCurrencyError reports a settlement currency the store cannot charge in.
type UnsupportedCurrencyError struct {
	Currency string
	Err      error
}

func (e *UnsupportedCurrencyError) Error() string {
	return fmt.Sprintf("payment: unsupported currency %q", e.Currency)
}

func (e *UnsupportedCurrencyError) Unwrap() error { return e.Err }

// BelowMinimumError reports a cart whose converted total is under the
// settlement floor. It carries the computed breakdown for display.
type BelowMinimumError struct {
	Breakdown pricing.Breakdown
	Minimum   int64
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("payment: converted total %d below minimum %d %s",
		e.Breakdown.ConvertedTotal, e.Minimum, e.Breakdown.SettlementCurrency)
}

// GatewayUnavailableError wraps any failure of the gateway order call.
type GatewayUnavailableError struct {
	Provider string
	Err      error
}

func (e *GatewayUnavailableError) Error() string {
	return fmt.Sprintf("payment: %s gateway unavailable: %v", e.Provider, e.Err)
}

func (e *GatewayUnavailableError) Unwrap() error { return e.Err }
