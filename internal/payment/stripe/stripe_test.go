package stripe

import (
	"errors"
	"fmt"
	"testing"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const checkoutCompletedPayload = `{
  "id": "evt_test_1",
  "object": "event",
  "api_version": "2020-08-27",
  "type": "checkout.session.completed",
  "data": {
    "object": {
      "id": "cs_test_123",
      "object": "checkout.session",
      "client_reference_id": "order_1_1700000000000",
      "payment_status": "paid",
      "metadata": {"order_id": "order_1_1700000000000", "user_id": "1"}
    }
  }
}`

func TestConstructWebhookEvent(t *testing.T) {
	c := NewClient(Config{WebhookSecret: "whsec_test"})
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(checkoutCompletedPayload),
		Secret:    "whsec_test",
		Timestamp: time.Now(),
	})

	event, err := c.ConstructWebhookEvent(signed.Payload, signed.Header)
	if err != nil {
		t.Fatalf("construct event: %v", err)
	}
	if string(event.Type) != EventCheckoutCompleted {
		t.Errorf("type = %q, want %q", event.Type, EventCheckoutCompleted)
	}

	outcome, err := ParseCheckoutEvent(event)
	if err != nil {
		t.Fatalf("parse checkout event: %v", err)
	}
	if outcome.OrderID != "order_1_1700000000000" {
		t.Errorf("order id = %q", outcome.OrderID)
	}
	if outcome.SessionID != "cs_test_123" {
		t.Errorf("session id = %q", outcome.SessionID)
	}
	if outcome.PaymentStatus != "paid" {
		t.Errorf("payment status = %q", outcome.PaymentStatus)
	}
}

func TestConstructWebhookEventBadSignature(t *testing.T) {
	c := NewClient(Config{WebhookSecret: "whsec_test"})
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(checkoutCompletedPayload),
		Secret:    "whsec_other",
		Timestamp: time.Now(),
	})

	if _, err := c.ConstructWebhookEvent(signed.Payload, signed.Header); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestConfigured(t *testing.T) {
	if NewClient(Config{SecretKey: "sk_test"}).Configured() {
		t.Error("expected unconfigured without a price id")
	}
	if !NewClient(Config{SecretKey: "sk_test", ProPriceID: "price_1"}).Configured() {
		t.Error("expected configured")
	}
}

func TestStatusCode(t *testing.T) {
	wrapped := fmt.Errorf("create checkout session: %w", &stripe.Error{HTTPStatusCode: 402, Msg: "card declined"})
	if got := StatusCode(wrapped); got != 402 {
		t.Errorf("StatusCode = %d, want 402", got)
	}
	if got := StatusCode(errors.New("boom")); got != 0 {
		t.Errorf("StatusCode(plain) = %d, want 0", got)
	}
}
