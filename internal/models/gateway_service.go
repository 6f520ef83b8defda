package models

import "context"

// GatewayService is the subset of the gateway API used by the dashboard.
type GatewayService interface {
	CreateKey(ctx context.Context, input CreateKeyInput) (*Key, error)
	GetKey(ctx context.Context, id int64) (*Key, error)
	UpdateKey(ctx context.Context, id int64, name string) error
	ReassignKeySecret(ctx context.Context, id int64) (*Key, error)

	GetCurrentWithdrawalRequest(ctx context.Context) (*WithdrawalRequest, error)
	RequestWithdrawal(ctx context.Context, amount float64) error
}
