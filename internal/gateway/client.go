// Package gateway talks to the gateway REST API on behalf of the signed-in
// user. Authentication is carried by the session cookie; the client never
// logs in by itself.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"gopkg.in/h2non/gentleman.v2"
	gctx "gopkg.in/h2non/gentleman.v2/context"

	"github.com/rss3-network/gateway-dashboard/internal/models"
	"github.com/rss3-network/gateway-dashboard/pkg/logger"
)

const (
	keysPath       = "/api/gateway/keys"
	withdrawalPath = "/api/gateway/billing/withdrawal"

	RequestIDHeader = "X-Request-ID"
)

var ErrNotFound = errors.New("not found")

// Error is a non-2xx answer from the gateway.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway responded with status %d", e.Status)
	}
	return fmt.Sprintf("gateway responded with status %d: %s", e.Status, e.Message)
}

func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

type Client struct {
	logger *logger.Logger
	cli    *gentleman.Client
}

var _ models.GatewayService = (*Client)(nil)

// NewClient creates a client for the gateway at baseURL. When sessionToken
// is set it is sent as cookie sessionCookie on every request.
func NewClient(baseURL, sessionCookie, sessionToken string, log *logger.Logger) *Client {
	cli := gentleman.New().URL(baseURL)
	cli.SetHeader("Content-Type", "application/json")
	if sessionToken != "" {
		cli.AddCookie(&http.Cookie{Name: sessionCookie, Value: sessionToken})
	}
	return &Client{logger: log.Named("gateway"), cli: cli}
}

func (c *Client) CreateKey(ctx context.Context, input models.CreateKeyInput) (*models.Key, error) {
	req := c.request(ctx, http.MethodPost, keysPath)
	req.JSON(input)

	key := &models.Key{}
	if err := c.send(req, key); err != nil {
		return nil, fmt.Errorf("failed to create key: %w", err)
	}
	return key, nil
}

func (c *Client) GetKey(ctx context.Context, id int64) (*models.Key, error) {
	req := c.request(ctx, http.MethodGet, keyPath(id))

	key := &models.Key{}
	if err := c.send(req, key); err != nil {
		return nil, fmt.Errorf("failed to get key %d: %w", id, err)
	}
	return key, nil
}

func (c *Client) UpdateKey(ctx context.Context, id int64, name string) error {
	req := c.request(ctx, http.MethodPut, keyPath(id))
	req.JSON(models.UpdateKeyInput{Name: name})

	if err := c.send(req, nil); err != nil {
		return fmt.Errorf("failed to update key %d: %w", id, err)
	}
	return nil
}

// ReassignKeySecret asks the gateway for a new passkey. The old one stops
// working as soon as the gateway answers.
func (c *Client) ReassignKeySecret(ctx context.Context, id int64) (*models.Key, error) {
	req := c.request(ctx, http.MethodPatch, keyPath(id))

	key := &models.Key{}
	if err := c.send(req, key); err != nil {
		return nil, fmt.Errorf("failed to reassign key %d secret: %w", id, err)
	}
	return key, nil
}

// GetCurrentWithdrawalRequest returns the active withdrawal request. A
// missing request is reported as a zero amount, not as an error.
func (c *Client) GetCurrentWithdrawalRequest(ctx context.Context) (*models.WithdrawalRequest, error) {
	req := c.request(ctx, http.MethodGet, withdrawalPath)

	w := &models.WithdrawalRequest{}
	err := c.send(req, w)
	if errors.Is(err, ErrNotFound) {
		return &models.WithdrawalRequest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal request: %w", err)
	}
	return w, nil
}

func (c *Client) RequestWithdrawal(ctx context.Context, amount float64) error {
	req := c.request(ctx, http.MethodPost, withdrawalPath)
	req.JSON(models.RequestWithdrawalInput{Amount: amount})

	if err := c.send(req, nil); err != nil {
		return fmt.Errorf("failed to request withdrawal: %w", err)
	}
	return nil
}

func keyPath(id int64) string {
	return keysPath + "/" + strconv.FormatInt(id, 10)
}

// request builds a request bound to ctx and tagged with a fresh request ID.
func (c *Client) request(ctx context.Context, method, path string) *gentleman.Request {
	req := c.cli.Request()
	req.Method(method)
	req.AddPath(path)
	req.SetHeader(RequestIDHeader, uuid.NewString())
	req.UseRequest(func(gc *gctx.Context, h gctx.Handler) {
		gc.Request = gc.Request.WithContext(boundContext{Context: ctx, values: gc.Request.Context()})
		h.Next(gc)
	})
	return req
}

// boundContext takes cancellation from the caller's context while keeping
// the values gentleman stored on the request.
type boundContext struct {
	context.Context
	values context.Context
}

func (b boundContext) Value(key interface{}) interface{} {
	if v := b.values.Value(key); v != nil {
		return v
	}
	return b.Context.Value(key)
}

// send dispatches req and decodes a successful body into out when out is
// not nil.
func (c *Client) send(req *gentleman.Request, out interface{}) error {
	resp, err := req.Send()
	if err != nil {
		return err
	}
	defer resp.Close()

	if !resp.Ok {
		gwErr := &Error{Status: resp.StatusCode, Message: errorMessage(resp.Bytes())}
		c.logger.Debug("Gateway request failed", "status", resp.StatusCode, "message", gwErr.Message,
			"request_id", resp.Header.Get(RequestIDHeader))
		return gwErr
	}

	if out == nil {
		return nil
	}
	if err := resp.JSON(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorMessage picks the human readable message out of an error body.
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return string(body)
	}
	for _, path := range []string{"error", "message", "msg", "error.message"} {
		if v := gjson.GetBytes(body, path); v.Exists() && v.Type == gjson.String {
			return v.String()
		}
	}
	return ""
}
