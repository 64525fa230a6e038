package cashfree

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// Payment statuses carried by payment webhooks.
const (
	PaymentSuccess     = "SUCCESS"
	PaymentFailed      = "FAILED"
	PaymentUserDropped = "USER_DROPPED"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// WebhookEvent is the subset of a payment webhook the service acts on.
type WebhookEvent struct {
	Type      string `json:"type"`
	EventTime string `json:"event_time"`
	Data      struct {
		Order struct {
			OrderID       string  `json:"order_id"`
			OrderAmount   float64 `json:"order_amount"`
			OrderCurrency string  `json:"order_currency"`
		} `json:"order"`
		Payment struct {
			CFPaymentID   flexString `json:"cf_payment_id"`
			PaymentStatus string     `json:"payment_status"`
			PaymentAmount float64    `json:"payment_amount"`
		} `json:"payment"`
	} `json:"data"`
}

// Sign computes base64(HMAC-SHA256(timestamp + body)) with the client secret.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyWebhook checks the x-webhook-signature header against the raw body and
// decodes the event.
func (c *Client) VerifyWebhook(body []byte, signature, timestamp string) (*WebhookEvent, error) {
	if signature == "" || timestamp == "" {
		return nil, ErrInvalidSignature
	}
	expected := Sign(c.clientSecret, timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, ErrInvalidSignature
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}
	return &event, nil
}
