package models

import (
	"math/big"

	"github.com/rss3-network/gateway-dashboard/pkg/units"
)

// TokenBalance is an amount of the billing token in base units.
type TokenBalance struct {
	Amount   *big.Int
	Decimals uint8
	Symbol   string
}

// String renders the balance in token units with thousand separators.
func (b *TokenBalance) String() string {
	if b == nil {
		return "0"
	}
	return units.Display(b.Amount, b.Decimals, b.Symbol)
}

// Allowance is the amount the billing contract may spend on the wallet's behalf.
type Allowance struct {
	Amount   *big.Int
	Decimals uint8
}

// Covers reports whether the allowance is enough to spend amount.
func (a *Allowance) Covers(amount *big.Int) bool {
	if a == nil || a.Amount == nil {
		return amount == nil || amount.Sign() <= 0
	}
	return amount.Cmp(a.Amount) <= 0
}
