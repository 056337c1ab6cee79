package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	ErrGateway       = errors.New("payment gateway error")
	ErrNotConfigured = errors.New("payment gateway not configured")
)

// Gateway is the payment provider. Signatures are checked on its side; the
// verdict of Verify is final.
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*OrderHandle, error)
	Verify(ctx context.Context, cb Callback) (Verdict, error)
}

type OrderHandle struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
	KeyID    string `json:"key_id,omitempty"`
}

// Callback is what the checkout widget posts back after the customer paid.
type Callback struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

type Verdict struct {
	Success   bool
	Reason    string
	OrderID   string
	PaymentID string
}

type Client struct {
	http  *resty.Client
	keyID string
}

func NewClient(baseURL, keyID, keySecret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(keyID, keySecret).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	return &Client{http: c, keyID: keyID}
}

type gatewayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func describe(resp *resty.Response) string {
	if e, ok := resp.Error().(*gatewayError); ok && e.Error.Description != "" {
		return e.Error.Description
	}
	return string(resp.Body())
}

func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*OrderHandle, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrGateway)
	}

	var out OrderHandle
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"amount":   amount,
			"currency": currency,
			"receipt":  receipt,
		}).
		SetResult(&out).
		SetError(&gatewayError{}).
		Post("/orders")
	if err != nil {
		return nil, fmt.Errorf("%w: create order: %v", ErrGateway, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: create order failed with status %d: %s", ErrGateway, resp.StatusCode(), describe(resp))
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: create order: empty order id", ErrGateway)
	}
	out.KeyID = c.keyID
	return &out, nil
}

func (c *Client) Verify(ctx context.Context, cb Callback) (Verdict, error) {
	if cb.OrderID == "" || cb.PaymentID == "" {
		return Verdict{Success: false, Reason: "missing payment reference", OrderID: cb.OrderID}, nil
	}

	var out struct {
		Verified bool   `json:"verified"`
		Status   string `json:"status"`
		Reason   string `json:"reason"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(cb).
		SetResult(&out).
		SetError(&gatewayError{}).
		Post("/payments/verify")
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: verify: %v", ErrGateway, err)
	}
	if resp.IsError() {
		return Verdict{}, fmt.Errorf("%w: verify failed with status %d: %s", ErrGateway, resp.StatusCode(), describe(resp))
	}

	v := Verdict{Success: out.Verified, Reason: out.Reason, OrderID: cb.OrderID, PaymentID: cb.PaymentID}
	if !v.Success && v.Reason == "" {
		v.Reason = "payment not verified"
		if out.Status != "" {
			v.Reason = "payment " + out.Status
		}
	}
	return v, nil
}

// Disabled is used when no gateway is configured.
type Disabled struct{}

func (Disabled) CreateOrder(context.Context, int64, string, string) (*OrderHandle, error) {
	return nil, ErrNotConfigured
}

func (Disabled) Verify(context.Context, Callback) (Verdict, error) {
	return Verdict{}, ErrNotConfigured
}
