package billing

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rss3-network/gateway-dashboard/internal/models"
)

func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

// fakeContracts applies transactions immediately. Fields set to nil are
// reported as load failures.
type fakeContracts struct {
	mu        sync.Mutex
	balance   *big.Int
	deposited *big.Int
	allowance *big.Int

	sendErr error
	waitErr error
	txs     []*models.PendingTx
}

func newFakeContracts(balance, deposited, allowance int64) *fakeContracts {
	return &fakeContracts{balance: tokens(balance), deposited: tokens(deposited), allowance: tokens(allowance)}
}

var errUnavailable = errors.New("rpc unavailable")

func (c *fakeContracts) TokenBalance(context.Context) (*models.TokenBalance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.balance == nil {
		return nil, errUnavailable
	}
	return &models.TokenBalance{Amount: new(big.Int).Set(c.balance), Decimals: 18, Symbol: "RSS3"}, nil
}

func (c *fakeContracts) DepositedBalance(context.Context) (*models.TokenBalance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deposited == nil {
		return nil, errUnavailable
	}
	return &models.TokenBalance{Amount: new(big.Int).Set(c.deposited), Decimals: 18, Symbol: "RSS3"}, nil
}

func (c *fakeContracts) Allowance(context.Context) (*models.Allowance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.allowance == nil {
		return nil, errUnavailable
	}
	return &models.Allowance{Amount: new(big.Int).Set(c.allowance), Decimals: 18}, nil
}

func (c *fakeContracts) send(method string, amount *big.Int) (*models.PendingTx, error) {
	if c.sendErr != nil {
		return nil, c.sendErr
	}
	tx := &models.PendingTx{Hash: fmt.Sprintf("0x%02d", len(c.txs)+1), Method: method, Amount: amount}
	c.txs = append(c.txs, tx)
	return tx, nil
}

func (c *fakeContracts) Approve(_ context.Context, amount *big.Int) (*models.PendingTx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send("approve", amount)
}

func (c *fakeContracts) Deposit(_ context.Context, amount *big.Int) (*models.PendingTx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send("deposit", amount)
}

func (c *fakeContracts) WaitForTransaction(_ context.Context, tx *models.PendingTx) (*models.TxReceipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.waitErr != nil {
		return &models.TxReceipt{Hash: tx.Hash}, c.waitErr
	}
	switch tx.Method {
	case "approve":
		c.allowance = tx.Amount
	case "deposit":
		c.allowance = new(big.Int).Sub(c.allowance, tx.Amount)
		c.balance = new(big.Int).Sub(c.balance, tx.Amount)
		c.deposited = new(big.Int).Add(c.deposited, tx.Amount)
	}
	return &models.TxReceipt{Hash: tx.Hash, BlockNumber: uint64(len(c.txs)), Success: true}, nil
}

func (c *fakeContracts) methods() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.txs))
	for _, tx := range c.txs {
		out = append(out, tx.Method)
	}
	return out
}

type fakeGateway struct {
	mu          sync.Mutex
	current     decimal.Decimal
	currentErr  error
	requested   []float64
	withdrawErr error
}

func (g *fakeGateway) CreateKey(context.Context, models.CreateKeyInput) (*models.Key, error) {
	return nil, errors.New("not used")
}

func (g *fakeGateway) GetKey(context.Context, int64) (*models.Key, error) {
	return nil, errors.New("not used")
}

func (g *fakeGateway) UpdateKey(context.Context, int64, string) error { return errors.New("not used") }

func (g *fakeGateway) ReassignKeySecret(context.Context, int64) (*models.Key, error) {
	return nil, errors.New("not used")
}

func (g *fakeGateway) GetCurrentWithdrawalRequest(context.Context) (*models.WithdrawalRequest, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.currentErr != nil {
		return nil, g.currentErr
	}
	return &models.WithdrawalRequest{Amount: g.current}, nil
}

func (g *fakeGateway) RequestWithdrawal(_ context.Context, amount float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.withdrawErr != nil {
		return g.withdrawErr
	}
	g.requested = append(g.requested, amount)
	g.current = decimal.NewFromFloat(amount)
	return nil
}

func (g *fakeGateway) setCurrent(d decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current = d
}

type recorder struct {
	mu   sync.Mutex
	sent []*models.Notification
}

func (r *recorder) SendNotification(n *models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recorder) kinds() []models.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.NotificationKind, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.Kind)
	}
	return out
}
