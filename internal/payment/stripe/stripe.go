package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	stripe "github.com/stripe/stripe-go/v82"
	checksession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Event types the service reacts to.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	ProPriceID    string
	SuccessURL    string
	CancelURL     string
}

type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	stripe.Key = cfg.SecretKey
	return &Client{cfg: cfg}
}

// Configured returns true if a secret key and price are set.
func (c *Client) Configured() bool {
	return c.cfg.SecretKey != "" && c.cfg.ProPriceID != ""
}

type CheckoutRequest struct {
	OrderID       string
	UserID        int64
	CustomerEmail string
}

// CreateCheckoutSession creates a hosted checkout session for the pro plan and
// returns its id and URL. The order id travels as client_reference_id.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (id, url string, err error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(c.cfg.ProPriceID),
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID:   stripe.String(req.OrderID),
		CustomerEmail:       stripe.String(req.CustomerEmail),
		AllowPromotionCodes: stripe.Bool(true),
		SuccessURL:          stripe.String(c.cfg.SuccessURL),
		CancelURL:           stripe.String(c.cfg.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata("order_id", req.OrderID)
	params.AddMetadata("user_id", strconv.FormatInt(req.UserID, 10))

	sess, err := checksession.New(params)
	if err != nil {
		return "", "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.ID, sess.URL, nil
}

// ConstructWebhookEvent verifies the signature and returns the parsed event.
func (c *Client) ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, sigHeader, c.cfg.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

// CheckoutOutcome is what a checkout.session.* event says about an order.
type CheckoutOutcome struct {
	SessionID     string
	OrderID       string
	PaymentStatus string
}

// ParseCheckoutEvent extracts the order reference from a checkout session event.
func ParseCheckoutEvent(event stripe.Event) (*CheckoutOutcome, error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal checkout session: %w", err)
	}
	orderID := sess.ClientReferenceID
	if orderID == "" {
		orderID = sess.Metadata["order_id"]
	}
	if orderID == "" {
		return nil, fmt.Errorf("checkout session %s has no order reference", sess.ID)
	}
	return &CheckoutOutcome{
		SessionID:     sess.ID,
		OrderID:       orderID,
		PaymentStatus: string(sess.PaymentStatus),
	}, nil
}

// StatusCode returns the HTTP status of a Stripe API error, or 0.
func StatusCode(err error) int {
	var se *stripe.Error
	if errors.As(err, &se) {
		return se.HTTPStatusCode
	}
	return 0
}
