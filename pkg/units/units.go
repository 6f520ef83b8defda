// Package units converts token amounts between base units (the integers a
// contract stores) and token units (what a user types and reads).
package units

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ToDecimal converts a base unit amount into token units. A nil amount is zero.
func ToDecimal(v *big.Int, decimals uint8) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -int32(decimals))
}

// ToBaseUnits converts a token amount into base units. Digits past the
// token's precision are rounded half away from zero.
func ToBaseUnits(d decimal.Decimal, decimals uint8) *big.Int {
	return d.Shift(int32(decimals)).Round(0).BigInt()
}

// FormatUnits renders a base unit amount in token units without trailing zeros.
func FormatUnits(v *big.Int, decimals uint8) string {
	return ToDecimal(v, decimals).String()
}

// ParseUnits parses a token amount such as "12.5" into base units.
func ParseUnits(s string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return ToBaseUnits(d, decimals), nil
}

// FormatNumber inserts thousand separators into the integer part of a
// plain decimal string: "1234567.5" becomes "1,234,567.5".
func FormatNumber(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

// Display formats a base unit amount for humans, e.g. "1,000.25 RSS3".
func Display(v *big.Int, decimals uint8, symbol string) string {
	out := FormatNumber(FormatUnits(v, decimals))
	if symbol != "" {
		out += " " + symbol
	}
	return out
}
