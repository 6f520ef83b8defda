package models

import "math/big"

// PendingTx is a contract write that has been broadcast but not yet mined.
type PendingTx struct {
	Hash   string
	Method string
	Amount *big.Int
}

// TxReceipt is the outcome of waiting for a PendingTx.
type TxReceipt struct {
	Hash        string
	BlockNumber uint64
	Success     bool
}
