package models

import (
	"context"
	"math/big"
)

// BillingContracts is the wallet-aware view of the token and billing
// contracts. Writes return once the transaction is broadcast; callers wait
// for it with WaitForTransaction.
type BillingContracts interface {
	TokenBalance(ctx context.Context) (*TokenBalance, error)
	DepositedBalance(ctx context.Context) (*TokenBalance, error)
	Allowance(ctx context.Context) (*Allowance, error)

	Approve(ctx context.Context, amount *big.Int) (*PendingTx, error)
	Deposit(ctx context.Context, amount *big.Int) (*PendingTx, error)
	WaitForTransaction(ctx context.Context, tx *PendingTx) (*TxReceipt, error)
}
