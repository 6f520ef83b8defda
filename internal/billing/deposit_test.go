package billing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rss3-network/gateway-dashboard/internal/confirm"
	"github.com/rss3-network/gateway-dashboard/internal/form"
	"github.com/rss3-network/gateway-dashboard/internal/models"
	"github.com/rss3-network/gateway-dashboard/pkg/logger"
)

func newDeposit(t *testing.T, c *fakeContracts, answer bool) (*DepositFlow, *confirm.Static, *recorder) {
	t.Helper()
	confirmer := &confirm.Static{Answer: answer}
	notes := &recorder{}
	d := NewDepositFlow(logger.NewNop(), c, confirmer, notes)
	require.NoError(t, d.Refresh(context.Background()))
	d.Open()
	return d, confirmer, notes
}

func TestDepositAmountBounds(t *testing.T) {
	d, _, _ := newDeposit(t, newFakeContracts(100, 0, 1000), true)
	assert.True(t, d.Max().Equal(decimal.NewFromInt(100)))

	d.SetAmount(decimal.NewFromInt(-1))
	_, err := d.Submit(context.Background())
	assert.ErrorIs(t, err, form.ErrValidation)
	assert.Equal(t, "Amount must not be negative", d.Errors()["amount"])

	d.SetAmount(decimal.RequireFromString("100.5"))
	_, err = d.Submit(context.Background())
	assert.ErrorIs(t, err, form.ErrValidation)
	assert.Equal(t, "Insufficient balance (max: 100)", d.Errors()["amount"])
	assert.True(t, d.IsOpen())
	assert.False(t, d.Busy())
}

func TestDepositZeroAmount(t *testing.T) {
	c := newFakeContracts(100, 0, 1000)
	d, _, _ := newDeposit(t, c, true)

	_, err := d.Submit(context.Background())
	assert.ErrorIs(t, err, ErrZeroAmount)
	assert.Empty(t, c.methods())
}

func TestDepositBelowOneBaseUnit(t *testing.T) {
	c := newFakeContracts(100, 0, 100)
	d, confirmer, notes := newDeposit(t, c, true)

	d.SetAmount(decimal.RequireFromString("0.0000000000000000001"))
	step, err := d.Submit(context.Background())
	assert.ErrorIs(t, err, ErrZeroAmount)
	assert.Equal(t, StepIdle, step)
	assert.Empty(t, c.methods())
	assert.Nil(t, confirmer.Last)
	assert.Empty(t, notes.kinds())
	assert.True(t, d.IsOpen())
	assert.False(t, d.Busy())
}

func TestNeedsApproval(t *testing.T) {
	d, _, _ := newDeposit(t, newFakeContracts(100, 0, 10), true)

	d.SetAmount(decimal.NewFromInt(10))
	assert.False(t, d.NeedsApproval())
	assert.Equal(t, "Deposit", d.SubmitLabel())

	d.SetAmount(decimal.RequireFromString("10.000000000000000001"))
	assert.True(t, d.NeedsApproval())
	assert.Equal(t, "Approve", d.SubmitLabel())
}

func TestNeedsApprovalUnknownAllowance(t *testing.T) {
	c := newFakeContracts(100, 0, 0)
	c.allowance = nil
	d := NewDepositFlow(logger.NewNop(), c, &confirm.Static{Answer: true}, &recorder{})
	assert.Error(t, d.Refresh(context.Background()))

	d.SetAmount(decimal.NewFromInt(50))
	assert.False(t, d.NeedsApproval())

	step, err := d.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepIdle, step)
	assert.Empty(t, c.methods())
}

func TestDepositApproveThenDeposit(t *testing.T) {
	c := newFakeContracts(100, 5, 0)
	d, confirmer, notes := newDeposit(t, c, true)
	ctx := context.Background()

	d.SetAmount(decimal.NewFromInt(40))
	step, err := d.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepApproved, step)
	assert.Equal(t, []string{"approve"}, c.methods())
	require.NotNil(t, confirmer.Last)
	assert.Equal(t, "One More Step: Approve Token Allowance", confirmer.Last.Title)
	assert.Contains(t, confirmer.Last.Body, "Please increase your allowance to 40 RSS3.")
	assert.Contains(t, confirmer.Last.Body, "Current allowance: 0 RSS3")
	assert.Equal(t, "Approve", confirmer.Last.ConfirmLabel)

	// approval does not deposit or close the modal
	assert.True(t, d.IsOpen())
	assert.True(t, d.Amount().Equal(decimal.NewFromInt(40)))
	assert.False(t, d.NeedsApproval())

	step, err = d.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepDeposited, step)
	assert.Equal(t, []string{"approve", "deposit"}, c.methods())

	assert.False(t, d.IsOpen())
	assert.True(t, d.Amount().IsZero())
	assert.False(t, d.IsDirty())
	assert.True(t, d.Max().Equal(decimal.NewFromInt(60)))
	assert.Equal(t, []models.NotificationKind{models.NotificationApproved, models.NotificationDeposited}, notes.kinds())
}

func TestDepositApprovalDeclined(t *testing.T) {
	c := newFakeContracts(100, 0, 0)
	d, _, _ := newDeposit(t, c, false)

	d.SetAmount(decimal.NewFromInt(1))
	_, err := d.Submit(context.Background())
	assert.ErrorIs(t, err, confirm.ErrCancelled)
	assert.Empty(t, c.methods())
	assert.True(t, d.IsOpen())
}

func TestDepositWithinAllowanceSkipsConfirmation(t *testing.T) {
	c := newFakeContracts(100, 0, 100)
	d, confirmer, _ := newDeposit(t, c, false)

	d.SetMax()
	step, err := d.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepDeposited, step)
	assert.Nil(t, confirmer.Last)
	assert.Equal(t, []string{"deposit"}, c.methods())
}

func TestFailedDepositKeepsModalOpen(t *testing.T) {
	c := newFakeContracts(100, 0, 100)
	c.waitErr = assert.AnError
	d, _, notes := newDeposit(t, c, true)

	d.SetAmount(decimal.NewFromInt(30))
	_, err := d.Submit(context.Background())
	assert.ErrorIs(t, err, assert.AnError)

	assert.True(t, d.IsOpen())
	assert.True(t, d.Amount().Equal(decimal.NewFromInt(30)))
	assert.False(t, d.Busy())
	require.Len(t, notes.sent, 1)
	assert.Equal(t, models.NotificationFailed, notes.sent[0].Kind)
	assert.Equal(t, "0x01", notes.sent[0].TxHash)
}

func TestDepositCloseAndDismiss(t *testing.T) {
	d, _, _ := newDeposit(t, newFakeContracts(100, 0, 100), true)

	// untouched form closes on an outside click
	assert.True(t, d.Dismiss())
	assert.False(t, d.IsOpen())

	d.Open()
	d.SetAmount(decimal.NewFromInt(3))
	assert.False(t, d.Dismiss())
	assert.True(t, d.IsOpen())

	require.NoError(t, d.Close())
	assert.False(t, d.IsOpen())
	assert.True(t, d.Amount().IsZero())
	// the bound survives the reset
	assert.True(t, d.Max().Equal(decimal.NewFromInt(100)))
}

func TestDepositCloseRefusedWhileBusy(t *testing.T) {
	d, _, _ := newDeposit(t, newFakeContracts(100, 0, 100), true)

	require.True(t, d.begin())
	assert.ErrorIs(t, d.Close(), ErrBusy)
	assert.False(t, d.Dismiss())
	_, err := d.Submit(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	d.end()

	assert.NoError(t, d.Close())
}
