package billing

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rss3-network/gateway-dashboard/internal/confirm"
	"github.com/rss3-network/gateway-dashboard/internal/models"
	"github.com/rss3-network/gateway-dashboard/pkg/logger"
	"github.com/rss3-network/gateway-dashboard/pkg/units"
)

const defaultSymbol = "RSS3"

// DepositFlow is the deposit modal. Depositing more than the current
// allowance takes two submits: the first raises the allowance, the second
// deposits.
type DepositFlow struct {
	modal

	logger      *logger.Logger
	contracts   models.BillingContracts
	confirmer   confirm.Confirmer
	notificator models.NotificationService

	// nil until loaded
	balance   *models.TokenBalance
	allowance *models.Allowance
}

func NewDepositFlow(logger *logger.Logger, contracts models.BillingContracts, confirmer confirm.Confirmer, notificator models.NotificationService) *DepositFlow {
	d := &DepositFlow{
		logger:      logger.Named("deposit"),
		contracts:   contracts,
		confirmer:   confirmer,
		notificator: notificator,
	}
	d.form = newAmountForm()
	return d
}

// Refresh loads the wallet balance and the allowance. Whatever fails to
// load stays unknown, which makes Submit a no-op.
func (d *DepositFlow) Refresh(ctx context.Context) error {
	balance, balanceErr := d.contracts.TokenBalance(ctx)
	allowance, allowanceErr := d.contracts.Allowance(ctx)

	d.mu.Lock()
	d.balance, d.allowance = balance, allowance
	d.mu.Unlock()

	bound := decimal.Zero
	if balance != nil {
		bound = units.ToDecimal(balance.Amount, balance.Decimals)
	}
	d.setBound(bound)

	if balanceErr != nil {
		return fmt.Errorf("failed to load wallet balance: %w", balanceErr)
	}
	if allowanceErr != nil {
		return fmt.Errorf("failed to load allowance: %w", allowanceErr)
	}
	return nil
}

func (d *DepositFlow) state() (*models.TokenBalance, *models.Allowance) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.balance, d.allowance
}

// requested converts the amount to base units the same way the wallet
// does, rounding digits beyond the token's precision.
func requested(amount decimal.Decimal, decimals uint8) (*big.Int, error) {
	return units.ParseUnits(amount.String(), decimals)
}

// NeedsApproval reports whether the amount exceeds the allowance. It is
// false while the balance or the allowance is unknown.
func (d *DepositFlow) NeedsApproval() bool {
	balance, allowance := d.state()
	if balance == nil || allowance == nil {
		return false
	}
	amount, err := requested(d.Amount(), balance.Decimals)
	if err != nil {
		return false
	}
	return !allowance.Covers(amount)
}

// SubmitLabel is the label of the submit button.
func (d *DepositFlow) SubmitLabel() string {
	if d.NeedsApproval() {
		return "Approve"
	}
	return "Deposit"
}

// ApprovalPrompt describes the allowance increase needed for amount.
func ApprovalPrompt(amount decimal.Decimal, allowance *models.Allowance, symbol string) confirm.Prompt {
	if symbol == "" {
		symbol = defaultSymbol
	}
	current := "0"
	if allowance != nil {
		current = units.FormatUnits(allowance.Amount, allowance.Decimals)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Please increase your allowance to %s %s.\n", amount.String(), symbol)
	fmt.Fprintf(&body, "Current allowance: %s %s\n", current, symbol)
	fmt.Fprintf(&body, "*Allowance is a predetermined limit set by you on how much $%s can be managed by the %s Billing contract.", symbol, symbol)

	return confirm.Prompt{
		Title:        "One More Step: Approve Token Allowance",
		Body:         body.String(),
		ConfirmLabel: "Approve",
		CancelLabel:  "Cancel",
	}
}

// Submit approves or deposits the amount. On a deposit confirmed on chain
// the modal closes and the form resets. On any failure the modal stays
// open with its values.
func (d *DepositFlow) Submit(ctx context.Context) (Step, error) {
	if !d.begin() {
		return StepIdle, ErrBusy
	}

	step, err := d.submit(ctx)
	if err != nil || step != StepDeposited {
		d.end()
		return step, err
	}
	d.finish()
	return step, nil
}

func (d *DepositFlow) submit(ctx context.Context) (Step, error) {
	amount, err := d.validate()
	if err != nil {
		return StepIdle, err
	}

	balance, allowance := d.state()
	if balance == nil || allowance == nil {
		d.logger.Debug("Balance or allowance not loaded, ignoring submit")
		return StepIdle, nil
	}

	value, err := requested(amount, balance.Decimals)
	if err != nil {
		return StepIdle, fmt.Errorf("failed to convert amount: %w", err)
	}
	// amounts below one base unit round to zero
	if value.Sign() == 0 {
		return StepIdle, ErrZeroAmount
	}

	if !allowance.Covers(value) {
		return d.approve(ctx, amount, value, balance, allowance)
	}
	return d.deposit(ctx, amount, value, balance)
}

func (d *DepositFlow) approve(ctx context.Context, amount decimal.Decimal, value *big.Int, balance *models.TokenBalance, allowance *models.Allowance) (Step, error) {
	ok, err := d.confirmer.Confirm(ctx, ApprovalPrompt(amount, allowance, balance.Symbol))
	if err != nil {
		return StepIdle, fmt.Errorf("failed to confirm approval: %w", err)
	}
	if !ok {
		return StepIdle, confirm.ErrCancelled
	}

	tx, err := d.contracts.Approve(ctx, value)
	if err != nil {
		return StepIdle, d.fail("Approval failed", err, "")
	}
	if _, err := d.contracts.WaitForTransaction(ctx, tx); err != nil {
		return StepIdle, d.fail("Approval failed", err, tx.Hash)
	}

	d.mu.Lock()
	d.allowance = &models.Allowance{Amount: value, Decimals: balance.Decimals}
	d.mu.Unlock()

	d.notificator.SendNotification(&models.Notification{
		Kind:    models.NotificationApproved,
		Title:   "Allowance approved",
		Message: fmt.Sprintf("The billing contract may now spend %s %s. Submit again to deposit.", amount.String(), symbolOf(balance)),
		TxHash:  tx.Hash,
	})
	return StepApproved, nil
}

func (d *DepositFlow) deposit(ctx context.Context, amount decimal.Decimal, value *big.Int, balance *models.TokenBalance) (Step, error) {
	tx, err := d.contracts.Deposit(ctx, value)
	if err != nil {
		return StepIdle, d.fail("Deposit failed", err, "")
	}
	if _, err := d.contracts.WaitForTransaction(ctx, tx); err != nil {
		return StepIdle, d.fail("Deposit failed", err, tx.Hash)
	}

	d.notificator.SendNotification(&models.Notification{
		Kind:    models.NotificationDeposited,
		Title:   "Deposit confirmed",
		Message: fmt.Sprintf("%s %s deposited.", units.FormatNumber(amount.String()), symbolOf(balance)),
		TxHash:  tx.Hash,
	})

	// balances moved; a failed reload leaves them unknown
	if err := d.Refresh(ctx); err != nil {
		d.logger.Warn("Failed to reload balances after deposit", "error", err)
	}
	return StepDeposited, nil
}

func (d *DepositFlow) fail(title string, err error, txHash string) error {
	d.logger.Error(title, "error", err, "tx", txHash)
	d.notificator.SendNotification(&models.Notification{
		Kind:    models.NotificationFailed,
		Title:   title,
		Message: err.Error(),
		TxHash:  txHash,
	})
	return err
}

func symbolOf(b *models.TokenBalance) string {
	if b == nil || b.Symbol == "" {
		return defaultSymbol
	}
	return b.Symbol
}
