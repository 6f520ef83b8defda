package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EpochInterval is how often the billing system settles withdrawal requests.
const EpochInterval = 18 * time.Hour

// WithdrawalRequest is the user's active withdrawal request as reported by
// the gateway. Amount is in token units. A new request replaces the old
// one; amounts are never summed.
type WithdrawalRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Pending reports whether a withdrawal is waiting for the next epoch.
func (w *WithdrawalRequest) Pending() bool {
	return w != nil && w.Amount.IsPositive()
}

// RequestWithdrawalInput is the body of a withdrawal request.
type RequestWithdrawalInput struct {
	Amount float64 `json:"amount"`
}
