package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"
)

const postmarkURL = "https://api.postmarkapp.com/email"

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
	Tag      string `json:"Tag,omitempty"`
}

// Receipt describes a confirmed subscription payment.
type Receipt struct {
	ToEmail  string
	Name     string
	OrderID  string
	Amount   float64
	Currency string
	PaidAt   time.Time
}

// SendSubscriptionReceipt confirms a pro upgrade to the user.
func (c *Client) SendSubscriptionReceipt(ctx context.Context, r Receipt) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	greeting := "Hi"
	if r.Name != "" {
		greeting = "Hi " + r.Name
	}
	amount := fmt.Sprintf("%s %.2f", r.Currency, r.Amount)
	dashboard := c.baseURL + "/dashboard"
	paidAt := r.PaidAt.UTC().Format("2 Jan 2006 15:04 MST")

	textBody := fmt.Sprintf(
		"%s,\n\nYour AI JobHunter Pro subscription is active.\n\nOrder: %s\nAmount: %s\nDate: %s\n\nOpen your dashboard: %s\n",
		greeting, r.OrderID, amount, paidAt, dashboard,
	)
	htmlBody := fmt.Sprintf(
		`<p>%s,</p><p>Your AI JobHunter Pro subscription is active.</p><table><tr><td>Order</td><td>%s</td></tr><tr><td>Amount</td><td>%s</td></tr><tr><td>Date</td><td>%s</td></tr></table><p><a href="%s">Open your dashboard</a></p>`,
		html.EscapeString(greeting), html.EscapeString(r.OrderID), html.EscapeString(amount), paidAt, dashboard,
	)

	return c.send(ctx, postmarkEmail{
		From:     c.fromEmail,
		To:       r.ToEmail,
		Subject:  "Your AI JobHunter Pro receipt",
		HtmlBody: htmlBody,
		TextBody: textBody,
		Tag:      "subscription-receipt",
	})
}

func (c *Client) send(ctx context.Context, payload postmarkEmail) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postmarkURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
