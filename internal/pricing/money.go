package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// minorExponent is the number of decimal places in one major unit for the
// currencies this store prices and settles in.
const minorExponent = 2

// Money represents a monetary value stored in minor units.
type Money int64

// FromDecimal converts a major-unit decimal into minor units, rounding half up.
func FromDecimal(d decimal.Decimal) Money {
	return Money(d.Shift(minorExponent).Round(0).IntPart())
}

// ParseMoney converts a major-unit string such as "199.99" into minor units.
func ParseMoney(value string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("parse money %q: %w", value, err)
	}
	return FromDecimal(d), nil
}

// Decimal returns the value in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -minorExponent)
}

// String renders the value with exactly two fractional digits.
func (m Money) String() string {
	return m.Decimal().StringFixed(minorExponent)
}

// MarshalJSON encodes the amount as a bare JSON number in major units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a numeric string in major units.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*m = 0
		return nil
	}
	raw = strings.Trim(raw, `"`)
	if raw == "" {
		return fmt.Errorf("parse money: empty value")
	}
	parsed, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
