// Package billing implements the billing panel: balances, the deposit
// modal, the withdraw modal and a watcher for pending withdrawals.
package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/rss3-network/gateway-dashboard/internal/confirm"
	"github.com/rss3-network/gateway-dashboard/internal/models"
	"github.com/rss3-network/gateway-dashboard/pkg/logger"
	"github.com/rss3-network/gateway-dashboard/pkg/units"
)

// Balances is what the panel header shows. Display values are token
// units with thousand separators; missing data shows as 0.
type Balances struct {
	Wallet           *models.TokenBalance `json:"-"`
	Deposited        *models.TokenBalance `json:"-"`
	WalletDisplay    string               `json:"wallet"`
	DepositedDisplay string               `json:"deposited"`
	Symbol           string               `json:"symbol"`
}

type Panel struct {
	logger    *logger.Logger
	contracts models.BillingContracts

	Deposit  *DepositFlow
	Withdraw *WithdrawFlow
}

func NewPanel(logger *logger.Logger, contracts models.BillingContracts, gateway models.GatewayService, confirmer confirm.Confirmer, notificator models.NotificationService) *Panel {
	return &Panel{
		logger:    logger.Named("billing"),
		contracts: contracts,
		Deposit:   NewDepositFlow(logger, contracts, confirmer, notificator),
		Withdraw:  NewWithdrawFlow(logger, contracts, gateway, confirmer, notificator),
	}
}

// Balances reads both balances. It always returns a renderable value;
// the error reports what could not be loaded.
func (p *Panel) Balances(ctx context.Context) (*Balances, error) {
	var errs []error

	wallet, err := p.contracts.TokenBalance(ctx)
	if err != nil {
		p.logger.Warn("Failed to load wallet balance", "error", err)
		errs = append(errs, fmt.Errorf("wallet balance: %w", err))
	}
	deposited, err := p.contracts.DepositedBalance(ctx)
	if err != nil {
		p.logger.Warn("Failed to load deposited balance", "error", err)
		errs = append(errs, fmt.Errorf("deposited balance: %w", err))
	}

	symbol := symbolOf(wallet)
	if wallet == nil {
		symbol = symbolOf(deposited)
	}
	return &Balances{
		Wallet:           wallet,
		Deposited:        deposited,
		WalletDisplay:    display(wallet),
		DepositedDisplay: display(deposited),
		Symbol:           symbol,
	}, errors.Join(errs...)
}

func display(b *models.TokenBalance) string {
	if b == nil {
		return "0"
	}
	return units.FormatNumber(units.FormatUnits(b.Amount, b.Decimals))
}
