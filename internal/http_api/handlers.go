package http_api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/rss3-network/gateway-dashboard/internal/billing"
	"github.com/rss3-network/gateway-dashboard/internal/confirm"
	"github.com/rss3-network/gateway-dashboard/internal/form"
	"github.com/rss3-network/gateway-dashboard/internal/gateway"
	"github.com/rss3-network/gateway-dashboard/internal/settings"
)

// AmountRequest is the body of deposit and withdraw requests. Confirm
// answers the confirmation dialog the flow may show.
type AmountRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Confirm bool            `json:"confirm"`
}

type ConfirmRequest struct {
	Confirm bool `json:"confirm"`
}

type NameRequest struct {
	Name string `json:"name"`
}

// StepResponse reports what a billing submit did.
type StepResponse struct {
	Success bool   `json:"success"`
	Step    string `json:"step"`
	Message string `json:"message,omitempty"`
}

// KeyResponse is a key as shown on the settings page. The passkey is
// masked unless revealed.
type KeyResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Passkey string `json:"passkey"`
}

// DepositPreview is the deposit modal as it would render: whether the
// submit button approves or deposits the current amount.
type DepositPreview struct {
	Open          bool            `json:"open"`
	Amount        decimal.Decimal `json:"amount"`
	Max           decimal.Decimal `json:"max"`
	NeedsApproval bool            `json:"needs_approval"`
	SubmitLabel   string          `json:"submit_label"`
}

type WithdrawalResponse struct {
	Amount  decimal.Decimal `json:"amount"`
	Pending bool            `json:"pending"`
	Symbol  string          `json:"symbol"`
	Warning string          `json:"warning,omitempty"`
}

// ErrorResponse is the body of every failed request. Fields holds
// validation errors; Prompt holds a confirmation that must be accepted.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
	Prompt  *confirm.Prompt   `json:"prompt,omitempty"`
}

// respondError maps flow errors to status codes.
func (s *HTTPServer) respondError(c *gin.Context, err error, prompt *confirm.Prompt) {
	var (
		validationErr *form.ValidationError
		gatewayErr    *gateway.Error
	)
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid input", Fields: validationErr.Fields})
	case errors.Is(err, billing.ErrZeroAmount):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, confirm.ErrCancelled):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Confirmation required", Prompt: prompt})
	case errors.Is(err, billing.ErrBusy), errors.Is(err, settings.ErrBusy):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, gateway.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
	case errors.As(err, &gatewayErr):
		s.logger.Error("Gateway request failed", "error", err, "request_id", c.GetString(ctxRequestID))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: gatewayErr.Message})
	default:
		s.logger.Error("Request failed", "error", err, "request_id", c.GetString(ctxRequestID))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

func keyID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid key id"})
		return 0, false
	}
	return id, true
}

// createKey is a handler for POST /keys.
func (s *HTTPServer) createKey(c *gin.Context) {
	var req NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	key, err := settings.CreateKey(c.Request.Context(), s.gateway, req.Name)
	if err != nil {
		s.respondError(c, err, nil)
		return
	}

	s.logger.Info("Key created", "id", key.ID)
	c.JSON(http.StatusCreated, KeyResponse{ID: key.ID, Name: key.Name, Passkey: key.Passkey})
}

// getKey is a handler for GET /keys/:id. The passkey is masked unless
// ?reveal=true is given.
func (s *HTTPServer) getKey(c *gin.Context) {
	id, ok := keyID(c)
	if !ok {
		return
	}

	key, err := s.gateway.GetKey(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err, nil)
		return
	}

	passkey := settings.Mask(key.Passkey)
	if c.Query("reveal") == "true" {
		passkey = key.Passkey
	}
	c.JSON(http.StatusOK, KeyResponse{ID: key.ID, Name: key.Name, Passkey: passkey})
}

// renameKey is a handler for PUT /keys/:id/name.
func (s *HTTPServer) renameKey(c *gin.Context) {
	id, ok := keyID(c)
	if !ok {
		return
	}
	var req NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	f := settings.NewNameForm(s.logger, s.gateway, id, "")
	f.SetName(req.Name)
	if err := f.Submit(c.Request.Context()); err != nil {
		s.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "name": f.Name()})
}

// regenerateKey is a handler for POST /keys/:id/regenerate. Without
// confirm the prompt is returned with 409 and nothing changes.
func (s *HTTPServer) regenerateKey(c *gin.Context) {
	id, ok := keyID(c)
	if !ok {
		return
	}
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	answer := &confirm.Request{Answer: req.Confirm}
	ctx := confirm.WithRequest(c.Request.Context(), answer)

	f := settings.NewKeyForm(s.logger, s.gateway, confirm.FromContext{}, s.notificator, id, "")
	key, err := f.Regenerate(ctx)
	if err != nil {
		s.respondError(c, err, answer.Prompt)
		return
	}
	c.JSON(http.StatusOK, KeyResponse{ID: key.ID, Name: key.Name, Passkey: key.Passkey})
}

// requireBilling rejects billing routes when no contracts are configured.
func (s *HTTPServer) requireBilling(c *gin.Context) {
	if s.panel == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{Error: "billing is not configured"})
		return
	}
	c.Next()
}

// balances is a handler for GET /billing/balances. Balances that fail to
// load render as 0 and the failure is reported alongside.
func (s *HTTPServer) balances(c *gin.Context) {
	b, err := s.panel.Balances(c.Request.Context())
	resp := gin.H{
		"wallet":    b.WalletDisplay,
		"deposited": b.DepositedDisplay,
		"symbol":    b.Symbol,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// deposit is a handler for POST /billing/deposit. An amount above the
// allowance needs confirm and results in step "approved"; the same
// request must then be sent again to deposit.
func (s *HTTPServer) deposit(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	flow := s.panel.Deposit
	if !s.depositMu.TryLock() {
		s.respondError(c, billing.ErrBusy, nil)
		return
	}
	defer s.depositMu.Unlock()

	answer := &confirm.Request{Answer: req.Confirm}
	ctx := confirm.WithRequest(c.Request.Context(), answer)

	if err := flow.Refresh(ctx); err != nil {
		s.logger.Warn("Failed to refresh deposit data", "error", err)
	}
	flow.Open()
	flow.SetAmount(req.Amount)

	step, err := flow.Submit(ctx)
	if err != nil {
		s.respondError(c, err, answer.Prompt)
		return
	}
	resp := StepResponse{Success: step != billing.StepIdle, Step: step.String()}
	switch step {
	case billing.StepIdle:
		resp.Message = "balance or allowance is not available yet"
	case billing.StepApproved:
		resp.Message = "allowance approved, submit again to deposit"
	}
	c.JSON(http.StatusOK, resp)
}

// depositPreview is a handler for GET /billing/deposit. ?amount= sets the
// amount of the modal before it is rendered.
func (s *HTTPServer) depositPreview(c *gin.Context) {
	flow := s.panel.Deposit
	if !s.depositMu.TryLock() {
		s.respondError(c, billing.ErrBusy, nil)
		return
	}
	defer s.depositMu.Unlock()

	if raw, ok := c.GetQuery("amount"); ok {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid amount"})
			return
		}
		flow.SetAmount(amount)
	}
	if err := flow.Refresh(c.Request.Context()); err != nil {
		s.logger.Warn("Failed to refresh deposit data", "error", err)
	}

	c.JSON(http.StatusOK, DepositPreview{
		Open:          flow.IsOpen(),
		Amount:        flow.Amount(),
		Max:           flow.Max(),
		NeedsApproval: flow.NeedsApproval(),
		SubmitLabel:   flow.SubmitLabel(),
	})
}

// modalControl is what the close routes need from a billing modal.
type modalControl interface {
	IsOpen() bool
	Close() error
	Dismiss() bool
}

// closeModal closes a modal and resets its form. With ?dismiss=true it
// behaves like a click outside the modal and leaves an edited form open.
func (s *HTTPServer) closeModal(get func() modalControl) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := get()
		if c.Query("dismiss") == "true" {
			c.JSON(http.StatusOK, gin.H{"closed": m.Dismiss()})
			return
		}
		if err := m.Close(); err != nil {
			s.respondError(c, err, nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"closed": !m.IsOpen()})
	}
}

// withdrawal is a handler for GET /billing/withdrawal.
func (s *HTTPServer) withdrawal(c *gin.Context) {
	flow := s.panel.Withdraw
	// the symbol comes from the deposited balance; skip the reload while a
	// withdrawal is being submitted
	if s.withdrawMu.TryLock() {
		if err := flow.Refresh(c.Request.Context()); err != nil {
			s.logger.Warn("Failed to refresh deposited balance", "error", err)
		}
		s.withdrawMu.Unlock()
	}

	current, err := s.gateway.GetCurrentWithdrawalRequest(c.Request.Context())
	if err != nil {
		s.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, WithdrawalResponse{
		Amount:  current.Amount,
		Pending: current.Pending(),
		Symbol:  flow.Symbol(),
		Warning: billing.PendingWarning(current, flow.Symbol()),
	})
}

// withdraw is a handler for POST /billing/withdraw.
func (s *HTTPServer) withdraw(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	flow := s.panel.Withdraw
	if !s.withdrawMu.TryLock() {
		s.respondError(c, billing.ErrBusy, nil)
		return
	}
	defer s.withdrawMu.Unlock()

	answer := &confirm.Request{Answer: req.Confirm}
	ctx := confirm.WithRequest(c.Request.Context(), answer)

	if err := flow.Refresh(ctx); err != nil {
		s.logger.Warn("Failed to refresh deposited balance", "error", err)
	}
	flow.Open()
	flow.SetAmount(req.Amount)

	step, err := flow.Submit(ctx)
	if err != nil {
		s.respondError(c, err, answer.Prompt)
		return
	}
	c.JSON(http.StatusOK, StepResponse{Success: true, Step: step.String()})
}
