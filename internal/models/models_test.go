package models

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAllowanceCovers(t *testing.T) {
	a := &Allowance{Amount: big.NewInt(100), Decimals: 18}
	assert.True(t, a.Covers(big.NewInt(100)))
	assert.True(t, a.Covers(big.NewInt(0)))
	assert.False(t, a.Covers(big.NewInt(101)))

	var missing *Allowance
	assert.True(t, missing.Covers(big.NewInt(0)))
	assert.False(t, missing.Covers(big.NewInt(1)))
}

func TestWithdrawalRequestPending(t *testing.T) {
	var none *WithdrawalRequest
	assert.False(t, none.Pending())
	assert.False(t, (&WithdrawalRequest{Amount: decimal.Zero}).Pending())
	assert.True(t, (&WithdrawalRequest{Amount: decimal.NewFromInt(5)}).Pending())
}

func TestTokenBalanceString(t *testing.T) {
	b := &TokenBalance{Amount: new(big.Int).Mul(big.NewInt(12345), big.NewInt(1e17)), Decimals: 18, Symbol: "RSS3"}
	assert.Equal(t, "1,234.5 RSS3", b.String())

	var missing *TokenBalance
	assert.Equal(t, "0", missing.String())
}

func TestNotificationString(t *testing.T) {
	n := &Notification{Title: "Deposit confirmed", Message: "10 RSS3 deposited", TxHash: "0xabc"}
	assert.Equal(t, "Deposit confirmed\n10 RSS3 deposited\nTransaction: 0xabc", n.String())
}
