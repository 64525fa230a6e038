package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v82"

	"github.com/aijobhunter/jobhunter/internal/apperr"
	paystripe "github.com/aijobhunter/jobhunter/internal/payment/stripe"
)

type StripeEvents interface {
	ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

type WebhookHandler struct {
	events StripeEvents
	subs   Subscriptions
	logger *slog.Logger
}

func NewWebhookHandler(events StripeEvents, subs Subscriptions, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{events: events, subs: subs, logger: logger}
}

func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		apperr.Write(w, h.logger, apperr.Validation("could not read body"))
		return
	}

	event, err := h.events.ConstructWebhookEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("stripe webhook rejected", "error", err)
		apperr.Write(w, h.logger, apperr.Validation("invalid signature"))
		return
	}

	switch string(event.Type) {
	case paystripe.EventCheckoutCompleted:
		out, err := paystripe.ParseCheckoutEvent(event)
		if err != nil {
			h.logger.Error("parse checkout event", "event_id", event.ID, "error", err)
			break
		}
		if out.PaymentStatus == string(stripe.CheckoutSessionPaymentStatusUnpaid) {
			h.logger.Info("checkout completed without payment", "order_id", out.OrderID)
			break
		}
		if _, applied, err := h.subs.Activate(r.Context(), out.OrderID); err != nil {
			if apperr.From(err).Status >= http.StatusInternalServerError {
				apperr.Write(w, h.logger, err)
				return
			}
			h.logger.Warn("checkout activate", "order_id", out.OrderID, "error", err)
		} else {
			h.logger.Info("checkout activate", "order_id", out.OrderID, "applied", applied)
		}
	case paystripe.EventCheckoutExpired:
		out, err := paystripe.ParseCheckoutEvent(event)
		if err != nil {
			h.logger.Error("parse checkout event", "event_id", event.ID, "error", err)
			break
		}
		if _, err := h.subs.MarkFailed(r.Context(), out.OrderID); err != nil {
			if apperr.From(err).Status >= http.StatusInternalServerError {
				apperr.Write(w, h.logger, err)
				return
			}
			h.logger.Warn("checkout expired", "order_id", out.OrderID, "error", err)
		}
	}

	w.WriteHeader(http.StatusOK)
}
