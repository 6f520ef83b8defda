package billing

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rss3-network/gateway-dashboard/internal/form"
)

var (
	// ErrBusy is returned when the modal has a request in flight.
	ErrBusy = errors.New("a request is already in progress")
	// ErrZeroAmount is returned when submitting an empty amount.
	ErrZeroAmount = errors.New("amount must be greater than zero")
)

// Step is the outcome of a successful submit.
type Step int

const (
	// StepIdle means nothing was sent because data was still loading.
	StepIdle Step = iota
	// StepApproved means the allowance was raised; submit again to deposit.
	StepApproved
	// StepDeposited means the deposit was mined; the modal closed and its form reset.
	StepDeposited
	// StepRequested means the gateway accepted the withdrawal request.
	StepRequested
)

func (s Step) String() string {
	switch s {
	case StepApproved:
		return "approved"
	case StepDeposited:
		return "deposited"
	case StepRequested:
		return "requested"
	default:
		return "idle"
	}
}

// modal is an amount form shown in a dialog. Closing the dialog resets the
// form; it cannot be closed while a request is in flight.
type modal struct {
	mu     sync.Mutex
	opened bool
	busy   bool
	form   *form.Form[form.AmountInput]
}

func newAmountForm() *form.Form[form.AmountInput] {
	return form.New(form.AmountInput{Amount: decimal.Zero, Max: decimal.Zero}, form.DefaultMessages)
}

func (m *modal) Open() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = true
}

func (m *modal) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened
}

// Close resets the form and closes the modal.
func (m *modal) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return ErrBusy
	}
	m.closeLocked()
	return nil
}

// Dismiss is a click outside the modal. It only closes an untouched form
// and reports whether the modal was closed.
func (m *modal) Dismiss() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy || m.form.IsDirty() {
		return false
	}
	m.closeLocked()
	return true
}

func (m *modal) closeLocked() {
	// the bound follows the balance, not the initial values
	bound := m.form.Values().Max
	m.form.Reset()
	m.setBound(bound)
	m.opened = false
}

func (m *modal) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

func (m *modal) begin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return false
	}
	m.busy = true
	return true
}

func (m *modal) end() {
	m.mu.Lock()
	m.busy = false
	m.mu.Unlock()
}

// finish ends the request and closes the modal.
func (m *modal) finish() {
	m.mu.Lock()
	m.busy = false
	m.closeLocked()
	m.mu.Unlock()
}

func (m *modal) SetAmount(amount decimal.Decimal) {
	m.form.Update(func(v *form.AmountInput) { v.Amount = amount })
}

func (m *modal) Amount() decimal.Decimal {
	return m.form.Values().Amount
}

func (m *modal) Max() decimal.Decimal {
	return m.form.Values().Max
}

// SetMax fills the amount with the whole available balance.
func (m *modal) SetMax() {
	m.form.Update(func(v *form.AmountInput) { v.Amount = v.Max })
}

func (m *modal) IsDirty() bool {
	return m.form.IsDirty()
}

func (m *modal) Errors() map[string]string {
	return m.form.Errors()
}

func (m *modal) setBound(bound decimal.Decimal) {
	m.form.Update(func(v *form.AmountInput) { v.Max = bound })
}

// validate checks the amount against the bound. A zero amount is rejected
// before validation, as the submit button is disabled for it.
func (m *modal) validate() (decimal.Decimal, error) {
	amount := m.Amount()
	if amount.IsZero() {
		return amount, ErrZeroAmount
	}
	if err := m.form.Validate(); err != nil {
		return amount, err
	}
	return amount, nil
}
