package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/aijobhunter/jobhunter/internal/model"
	paystripe "github.com/aijobhunter/jobhunter/internal/payment/stripe"
)

const testWebhookSecret = "whsec_test"

func stripeEvent(eventType, orderID, paymentStatus string) string {
	return `{
  "id": "evt_test",
  "object": "event",
  "api_version": "2020-08-27",
  "type": "` + eventType + `",
  "data": {"object": {
    "id": "cs_test_1",
    "object": "checkout.session",
    "client_reference_id": "` + orderID + `",
    "payment_status": "` + paymentStatus + `"
  }}
}`
}

func signedStripeRequest(payload, secret string) *http.Request {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
	})
	r := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(signed.Payload))
	r.Header.Set("Stripe-Signature", signed.Header)
	return r
}

func newWebhookHandler(e *testEnv) *WebhookHandler {
	client := paystripe.NewClient(paystripe.Config{WebhookSecret: testWebhookSecret})
	return NewWebhookHandler(client, e.subs, e.logger)
}

func TestStripeWebhookCompleted(t *testing.T) {
	e := newTestEnv(t)
	h := newWebhookHandler(e)
	u, _ := e.login(t, "g-1", "a@example.com")
	createPendingOrder(t, e, u.ID, "order_s1", model.GatewayStripe)

	payload := stripeEvent(paystripe.EventCheckoutCompleted, "order_s1", "paid")
	for i := 0; i < 2; i++ {
		rec := serve(http.HandlerFunc(h.HandleStripeWebhook), signedStripeRequest(payload, testWebhookSecret))
		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d status = %d, want %d", i, rec.Code, http.StatusOK)
		}
	}
	if got := userTier(t, e, u.ID); got != model.TierPro {
		t.Errorf("tier = %s, want pro", got)
	}
}

func TestStripeWebhookUnpaidCompletedIgnored(t *testing.T) {
	e := newTestEnv(t)
	h := newWebhookHandler(e)
	u, _ := e.login(t, "g-1", "a@example.com")
	createPendingOrder(t, e, u.ID, "order_s1", model.GatewayStripe)

	payload := stripeEvent(paystripe.EventCheckoutCompleted, "order_s1", "unpaid")
	rec := serve(http.HandlerFunc(h.HandleStripeWebhook), signedStripeRequest(payload, testWebhookSecret))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := userTier(t, e, u.ID); got != model.TierFree {
		t.Errorf("tier = %s, want free", got)
	}
}

func TestStripeWebhookExpired(t *testing.T) {
	e := newTestEnv(t)
	h := newWebhookHandler(e)
	u, _ := e.login(t, "g-1", "a@example.com")
	createPendingOrder(t, e, u.ID, "order_s1", model.GatewayStripe)

	payload := stripeEvent(paystripe.EventCheckoutExpired, "order_s1", "unpaid")
	rec := serve(http.HandlerFunc(h.HandleStripeWebhook), signedStripeRequest(payload, testWebhookSecret))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	o, _ := e.orders.GetByID("order_s1")
	if o.Status != model.OrderFailed {
		t.Errorf("order = %s, want failed", o.Status)
	}

	// a late completion for a failed order never upgrades
	payload = stripeEvent(paystripe.EventCheckoutCompleted, "order_s1", "paid")
	serve(http.HandlerFunc(h.HandleStripeWebhook), signedStripeRequest(payload, testWebhookSecret))
	if got := userTier(t, e, u.ID); got != model.TierFree {
		t.Errorf("tier = %s, want free", got)
	}
}

func TestStripeWebhookBadSignature(t *testing.T) {
	e := newTestEnv(t)
	h := newWebhookHandler(e)

	payload := stripeEvent(paystripe.EventCheckoutCompleted, "order_s1", "paid")
	rec := serve(http.HandlerFunc(h.HandleStripeWebhook), signedStripeRequest(payload, "whsec_other"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if msg := errorMessage(t, rec); !strings.Contains(msg, "signature") {
		t.Errorf("error = %q", msg)
	}
}
