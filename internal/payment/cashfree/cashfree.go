// Package cashfree is a client for the Cashfree Payment Gateway orders API.
package cashfree

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aijobhunter/jobhunter/internal/model"
)

const (
	SandboxBaseURL    = "https://sandbox.cashfree.com"
	ProductionBaseURL = "https://api.cashfree.com"
	APIVersion        = "2023-08-01"
)

// Order statuses reported by GET /pg/orders/{id}.
const (
	OrderStatusActive     = "ACTIVE"
	OrderStatusPaid       = "PAID"
	OrderStatusExpired    = "EXPIRED"
	OrderStatusTerminated = "TERMINATED"
)

type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	httpClient   *http.Client
	logger       *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithBaseURL(u string) Option {
	return func(cl *Client) {
		cl.baseURL = strings.TrimRight(u, "/")
	}
}

// NewClient returns a client for env "production" or, for anything else, the
// sandbox.
func NewClient(clientID, clientSecret, env string, logger *slog.Logger, opts ...Option) *Client {
	base := SandboxBaseURL
	if strings.EqualFold(env, "production") {
		base = ProductionBaseURL
	}
	c := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      base,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		logger:       logger.With("component", "cashfree"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if API credentials are set.
func (c *Client) Configured() bool {
	return c.clientID != "" && c.clientSecret != ""
}

type OrderRequest struct {
	OrderID   string
	Amount    float64
	Currency  string
	Customer  model.Customer
	ReturnURL string
	NotifyURL string
}

type orderMeta struct {
	ReturnURL string `json:"return_url,omitempty"`
	NotifyURL string `json:"notify_url,omitempty"`
}

type createOrderBody struct {
	OrderID         string         `json:"order_id"`
	OrderAmount     float64        `json:"order_amount"`
	OrderCurrency   string         `json:"order_currency"`
	CustomerDetails model.Customer `json:"customer_details"`
	OrderMeta       orderMeta      `json:"order_meta"`
}

// Order is the gateway's view of an order.
type Order struct {
	CFOrderID        flexString `json:"cf_order_id"`
	OrderID          string     `json:"order_id"`
	OrderAmount      float64    `json:"order_amount"`
	OrderCurrency    string     `json:"order_currency"`
	OrderStatus      string     `json:"order_status"`
	PaymentSessionID string     `json:"payment_session_id"`
	OrderExpiryTime  string     `json:"order_expiry_time"`
}

// CreateOrder registers a new order and returns the payment session to hand to
// the checkout SDK.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	payload := createOrderBody{
		OrderID:         req.OrderID,
		OrderAmount:     req.Amount,
		OrderCurrency:   req.Currency,
		CustomerDetails: req.Customer,
		OrderMeta:       orderMeta{ReturnURL: req.ReturnURL, NotifyURL: req.NotifyURL},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	var order Order
	if err := c.do(ctx, http.MethodPost, "/pg/orders", body, &order); err != nil {
		c.logger.Error("create order failed",
			"order_id", req.OrderID,
			"amount", req.Amount,
			"currency", req.Currency,
			"has_phone", req.Customer.Phone != "",
			"has_email", req.Customer.Email != "",
			"error", err,
		)
		return nil, err
	}
	c.logger.Info("order created", "order_id", order.OrderID, "cf_order_id", string(order.CFOrderID))
	return &order, nil
}

// GetOrderStatus fetches the current state of an order.
func (c *Client) GetOrderStatus(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodGet, "/pg/orders/"+url.PathEscape(orderID), nil, &order); err != nil {
		c.logger.Error("get order status failed", "order_id", orderID, "error", err)
		return nil, err
	}
	return &order, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	if !c.Configured() {
		return fmt.Errorf("cashfree client not configured: missing credentials")
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-client-id", c.clientID)
	req.Header.Set("x-client-secret", c.clientSecret)
	req.Header.Set("x-api-version", APIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newGatewayError(resp.StatusCode, respBody)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = flexString(b)
	return nil
}
