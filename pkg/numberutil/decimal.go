package numberutil

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultPrecision is the number of fractional digits used for display.
const DefaultPrecision int32 = 2

// Decimaled is anything that knows the decimal count of its on-chain amounts.
type Decimaled interface {
	TokenDecimals() int32
}

// Scale interprets an on-chain integer as amount / 10^decimals without losing precision.
func Scale(amount *big.Int, decimals int32) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(amount, -decimals)
}

// Unscale converts a scaled amount back into its on-chain integer, truncating toward zero any
// digit finer than 10^-decimals.
func Unscale(value decimal.Decimal, decimals int32) *big.Int {
	return value.Shift(decimals).BigInt()
}

// OneUnit returns 10^decimals, the on-chain integer of one whole token.
func OneUnit(decimals int32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

// FormatDecimal renders value with exactly precision fractional digits. Halves round away from
// zero, which is round-half-up for every non-negative amount.
func FormatDecimal(value decimal.Decimal, precision int32) string {
	return value.StringFixed(precision)
}

// Format renders amount / 10^decimals of token. Without a token it returns the empty string, the
// "unknown" sentinel, instead of guessing a magnitude.
func Format(amount *big.Int, token Decimaled, precision int32) string {
	if token == nil || amount == nil {
		return ""
	}

	return FormatDecimal(Scale(amount, token.TokenDecimals()), precision)
}

// ParseUnits turns a human entered amount such as "12.5" into its on-chain integer.
func ParseUnits(s string, decimals int32) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return big.NewInt(0), nil
	}

	value, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	if value.IsNegative() {
		return nil, fmt.Errorf("invalid amount %q: must not be negative", s)
	}

	if -value.Exponent() > decimals {
		return nil, fmt.Errorf("invalid amount %q: more than %d fractional digits", s, decimals)
	}

	return Unscale(value, decimals), nil
}
