package billing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rss3-network/gateway-dashboard/internal/confirm"
	"github.com/rss3-network/gateway-dashboard/internal/models"
	"github.com/rss3-network/gateway-dashboard/pkg/logger"
	"github.com/rss3-network/gateway-dashboard/pkg/units"
)

// WithdrawFlow is the withdraw modal. Withdrawals are requests to the
// gateway settled at the end of an epoch; a new request replaces the
// pending one.
type WithdrawFlow struct {
	modal

	logger      *logger.Logger
	contracts   models.BillingContracts
	gateway     models.GatewayService
	confirmer   confirm.Confirmer
	notificator models.NotificationService

	deposited *models.TokenBalance
}

func NewWithdrawFlow(logger *logger.Logger, contracts models.BillingContracts, gateway models.GatewayService, confirmer confirm.Confirmer, notificator models.NotificationService) *WithdrawFlow {
	w := &WithdrawFlow{
		logger:      logger.Named("withdraw"),
		contracts:   contracts,
		gateway:     gateway,
		confirmer:   confirmer,
		notificator: notificator,
	}
	w.form = newAmountForm()
	return w
}

// Refresh loads the deposited balance, which bounds the amount. An
// unknown balance bounds it at zero.
func (w *WithdrawFlow) Refresh(ctx context.Context) error {
	deposited, err := w.contracts.DepositedBalance(ctx)

	w.mu.Lock()
	w.deposited = deposited
	w.mu.Unlock()

	bound := decimal.Zero
	if deposited != nil {
		bound = units.ToDecimal(deposited.Amount, deposited.Decimals)
	}
	w.setBound(bound)

	if err != nil {
		return fmt.Errorf("failed to load deposited balance: %w", err)
	}
	return nil
}

// Symbol is the token symbol of the deposited balance, RSS3 until it loads.
func (w *WithdrawFlow) Symbol() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return symbolOf(w.deposited)
}

// Warning returns the text shown when a withdrawal is already pending, or
// an empty string when there is none.
func (w *WithdrawFlow) Warning(ctx context.Context) (string, error) {
	current, err := w.gateway.GetCurrentWithdrawalRequest(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get current withdrawal request: %w", err)
	}
	return PendingWarning(current, w.Symbol()), nil
}

// PendingWarning renders the replacement warning for current.
func PendingWarning(current *models.WithdrawalRequest, symbol string) string {
	if !current.Pending() {
		return ""
	}
	return fmt.Sprintf("%s %s is pending withdrawal. If you withdraw again now, the pending withdrawal will be replaced by this one.",
		units.FormatNumber(current.Amount.String()), symbol)
}

// WithdrawPrompt asks to confirm a withdrawal of amount. warning may be empty.
func WithdrawPrompt(amount decimal.Decimal, symbol, warning string) confirm.Prompt {
	body := fmt.Sprintf("Please confirm that you want to withdraw %s %s from your deposited $%s.", amount.String(), symbol, symbol)
	if warning != "" {
		body += "\n\n" + warning
	}
	return confirm.Prompt{
		Title:        "Please confirm your action",
		Body:         body,
		ConfirmLabel: "Withdraw",
		CancelLabel:  "Cancel",
	}
}

// Submit validates the amount, asks for confirmation and sends the
// withdrawal request. On success the modal closes and the form resets.
func (w *WithdrawFlow) Submit(ctx context.Context) (Step, error) {
	if !w.begin() {
		return StepIdle, ErrBusy
	}

	step, err := w.submit(ctx)
	if err != nil {
		w.end()
		return step, err
	}
	w.finish()
	return step, nil
}

// round drops the digits past the token's precision. An amount that
// rounds to zero base units is rejected like an empty one.
func (w *WithdrawFlow) round(amount decimal.Decimal) (decimal.Decimal, error) {
	w.mu.Lock()
	deposited := w.deposited
	w.mu.Unlock()
	if deposited == nil {
		return amount, nil
	}

	value := units.ToBaseUnits(amount, deposited.Decimals)
	if value.Sign() == 0 {
		return amount, ErrZeroAmount
	}
	return units.ToDecimal(value, deposited.Decimals), nil
}

func (w *WithdrawFlow) submit(ctx context.Context) (Step, error) {
	amount, err := w.validate()
	if err != nil {
		return StepIdle, err
	}
	if amount, err = w.round(amount); err != nil {
		return StepIdle, err
	}

	symbol := w.Symbol()
	warning, err := w.Warning(ctx)
	if err != nil {
		// the warning is informative only
		w.logger.Warn("Failed to load pending withdrawal", "error", err)
	}

	ok, err := w.confirmer.Confirm(ctx, WithdrawPrompt(amount, symbol, warning))
	if err != nil {
		return StepIdle, fmt.Errorf("failed to confirm withdrawal: %w", err)
	}
	if !ok {
		return StepIdle, confirm.ErrCancelled
	}

	if err := w.gateway.RequestWithdrawal(ctx, amount.InexactFloat64()); err != nil {
		w.logger.Error("Withdrawal request failed", "amount", amount.String(), "error", err)
		w.notificator.SendNotification(&models.Notification{
			Kind:    models.NotificationFailed,
			Title:   "Withdrawal request failed",
			Message: err.Error(),
		})
		return StepIdle, err
	}

	w.logger.Info("Withdrawal requested", "amount", amount.String())
	w.notificator.SendNotification(&models.Notification{
		Kind:  models.NotificationWithdrawRequested,
		Title: "Withdrawal requested",
		Message: fmt.Sprintf("%s %s will be withdrawn at the end of the current epoch (every %d hours).",
			units.FormatNumber(amount.String()), symbol, int(models.EpochInterval.Hours())),
	})
	return StepRequested, nil
}
