package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/aijobhunter/jobhunter/internal/apperr"
	"github.com/aijobhunter/jobhunter/internal/auth"
	"github.com/aijobhunter/jobhunter/internal/geo"
	"github.com/aijobhunter/jobhunter/internal/model"
	"github.com/aijobhunter/jobhunter/internal/payment/cashfree"
	paystripe "github.com/aijobhunter/jobhunter/internal/payment/stripe"
)

const maxWebhookBody = 65536

// OrderGateway is the Cashfree orders API.
type OrderGateway interface {
	CreateOrder(ctx context.Context, req cashfree.OrderRequest) (*cashfree.Order, error)
	GetOrderStatus(ctx context.Context, orderID string) (*cashfree.Order, error)
	VerifyWebhook(body []byte, signature, timestamp string) (*cashfree.WebhookEvent, error)
}

// CheckoutGateway starts a Stripe hosted checkout.
type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, req paystripe.CheckoutRequest) (id, url string, err error)
}

type OrderRepository interface {
	Create(o *model.Order) (*model.Order, error)
	GetByID(orderID string) (*model.Order, error)
	SetGatewayRef(orderID, ref, paymentSessionID string) error
}

// Subscriptions applies order outcomes to the user's tier.
type Subscriptions interface {
	Activate(ctx context.Context, orderID string) (*model.User, bool, error)
	MarkFailed(ctx context.Context, orderID string) (bool, error)
}

type PaymentHandler struct {
	cashfree OrderGateway
	checkout CheckoutGateway
	orders   OrderRepository
	subs     Subscriptions
	baseURL  string
	logger   *slog.Logger
	now      func() time.Time
}

// NewPaymentHandler wires both gateways. Either may be nil when not configured.
func NewPaymentHandler(cf OrderGateway, checkout CheckoutGateway, orders OrderRepository, subs Subscriptions, baseURL string, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		cashfree: cf,
		checkout: checkout,
		orders:   orders,
		subs:     subs,
		baseURL:  baseURL,
		logger:   logger,
		now:      time.Now,
	}
}

func (h *PaymentHandler) newOrderID(userID int64) string {
	return fmt.Sprintf("order_%d_%d", userID, h.now().UnixMilli())
}

type createSubscriptionRequest struct {
	Amount   float64 `json:"amount" validate:"gt=0"`
	Currency string  `json:"currency" validate:"required,len=3,alpha"`
	Phone    string  `json:"phone" validate:"required,min=8,max=15,numeric"`
}

// CreateSubscription opens a Cashfree order for the pro plan.
func (h *PaymentHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	if h.cashfree == nil {
		apperr.Write(w, h.logger, apperr.Unavailable("cashfree payments are not configured"))
		return
	}
	u := auth.UserFromContext(r.Context())

	var req createSubscriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apperr.Write(w, h.logger, err)
		return
	}
	price, ok := geo.PriceForCurrency(req.Currency)
	if !ok {
		apperr.Write(w, h.logger, apperr.Validation("currency is not supported"))
		return
	}
	if !sameAmount(req.Amount, price.Amount) {
		apperr.Write(w, h.logger, apperr.Validation(fmt.Sprintf("amount must be %g for %s", price.Amount, price.Currency)))
		return
	}

	order := &model.Order{
		OrderID:  h.newOrderID(u.ID),
		UserID:   u.ID,
		Gateway:  model.GatewayCashfree,
		Amount:   price.Amount,
		Currency: price.Currency,
		Customer: model.Customer{
			ID:    fmt.Sprintf("user_%d", u.ID),
			Email: u.Email,
			Name:  u.DisplayName,
			Phone: req.Phone,
		},
		ReturnURL: h.baseURL + "/payment/status?order_id={order_id}",
		NotifyURL: h.baseURL + "/api/payment/activate-subscription",
	}
	if _, err := h.orders.Create(order); err != nil {
		apperr.Write(w, h.logger, apperr.Internal(err))
		return
	}

	gw, err := h.cashfree.CreateOrder(r.Context(), cashfree.OrderRequest{
		OrderID:   order.OrderID,
		Amount:    order.Amount,
		Currency:  order.Currency,
		Customer:  order.Customer,
		ReturnURL: order.ReturnURL,
		NotifyURL: order.NotifyURL,
	})
	if err != nil {
		if _, mfErr := h.subs.MarkFailed(r.Context(), order.OrderID); mfErr != nil {
			h.logger.Error("mark order failed", "order_id", order.OrderID, "error", mfErr)
		}
		var ge *cashfree.GatewayError
		if errors.As(err, &ge) {
			h.logger.Warn("cashfree rejected order", "order_id", order.OrderID, "status", ge.Status, "message", ge.Message)
			apperr.Write(w, h.logger, apperr.Gateway(ge.Message, ge.Status, err))
			return
		}
		apperr.Write(w, h.logger, apperr.Gateway("payment gateway unavailable", 0, err))
		return
	}

	if err := h.orders.SetGatewayRef(order.OrderID, string(gw.CFOrderID), gw.PaymentSessionID); err != nil {
		apperr.Write(w, h.logger, apperr.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"order_id":           order.OrderID,
		"cf_order_id":        string(gw.CFOrderID),
		"payment_session_id": gw.PaymentSessionID,
		"order_status":       gw.OrderStatus,
	})
}

// Checkout opens a Stripe hosted checkout for the pro plan.
func (h *PaymentHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.checkout == nil {
		apperr.Write(w, h.logger, apperr.Unavailable("stripe payments are not configured"))
		return
	}
	u := auth.UserFromContext(r.Context())
	price := geo.PriceFor("")

	order := &model.Order{
		OrderID:  h.newOrderID(u.ID),
		UserID:   u.ID,
		Gateway:  model.GatewayStripe,
		Amount:   price.Amount,
		Currency: price.Currency,
		Customer: model.Customer{Email: u.Email, Name: u.DisplayName},
	}
	if _, err := h.orders.Create(order); err != nil {
		apperr.Write(w, h.logger, apperr.Internal(err))
		return
	}

	sessID, url, err := h.checkout.CreateCheckoutSession(r.Context(), paystripe.CheckoutRequest{
		OrderID:       order.OrderID,
		UserID:        u.ID,
		CustomerEmail: u.Email,
	})
	if err != nil {
		if _, mfErr := h.subs.MarkFailed(r.Context(), order.OrderID); mfErr != nil {
			h.logger.Error("mark order failed", "order_id", order.OrderID, "error", mfErr)
		}
		h.logger.Warn("stripe checkout failed", "order_id", order.OrderID, "error", err)
		apperr.Write(w, h.logger, apperr.Gateway("could not start checkout", paystripe.StatusCode(err), err))
		return
	}

	if err := h.orders.SetGatewayRef(order.OrderID, sessID, ""); err != nil {
		apperr.Write(w, h.logger, apperr.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"order_id":   order.OrderID,
		"session_id": sessID,
		"url":        url,
	})
}

// ActivateSubscription serves both the Cashfree webhook (signed requests) and
// the browser's return-from-checkout confirmation, which requires a session.
func (h *PaymentHandler) ActivateSubscription(requireAuth func(http.Handler) http.Handler) http.Handler {
	confirm := requireAuth(http.HandlerFunc(h.confirmForUser))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-webhook-signature") != "" {
			h.cashfreeWebhook(w, r)
			return
		}
		confirm.ServeHTTP(w, r)
	})
}

func (h *PaymentHandler) cashfreeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.cashfree == nil {
		apperr.Write(w, h.logger, apperr.Unavailable("cashfree payments are not configured"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		apperr.Write(w, h.logger, apperr.Validation("could not read body"))
		return
	}

	event, err := h.cashfree.VerifyWebhook(body, r.Header.Get("x-webhook-signature"), r.Header.Get("x-webhook-timestamp"))
	if err != nil {
		h.logger.Warn("cashfree webhook rejected", "error", err)
		if errors.Is(err, cashfree.ErrInvalidSignature) {
			apperr.Write(w, h.logger, apperr.Unauthenticated("invalid webhook signature"))
			return
		}
		apperr.Write(w, h.logger, apperr.Validation("invalid webhook payload"))
		return
	}

	orderID := event.Data.Order.OrderID
	status := event.Data.Payment.PaymentStatus
	log := h.logger.With("order_id", orderID, "event", event.Type, "payment_status", status)

	switch status {
	case cashfree.PaymentSuccess:
		order, err := h.orders.GetByID(orderID)
		if err != nil {
			log.Error("webhook load order", "error", err)
			break
		}
		if order == nil {
			log.Warn("webhook for unknown order")
			break
		}
		if !paidInFull(order, event.Data.Order.OrderAmount, event.Data.Order.OrderCurrency) {
			log.Error("webhook amount mismatch", "amount", event.Data.Order.OrderAmount, "currency", event.Data.Order.OrderCurrency,
				"want_amount", order.Amount, "want_currency", order.Currency)
			if _, err := h.subs.MarkFailed(r.Context(), orderID); err != nil {
				log.Error("webhook mark failed", "error", err)
			}
			break
		}
		if _, applied, err := h.subs.Activate(r.Context(), orderID); err != nil {
			log.Error("webhook activate", "error", err)
		} else {
			log.Info("webhook activate", "applied", applied)
		}
	case cashfree.PaymentFailed, cashfree.PaymentUserDropped:
		if applied, err := h.subs.MarkFailed(r.Context(), orderID); err != nil {
			log.Error("webhook mark failed", "error", err)
		} else {
			log.Info("webhook mark failed", "applied", applied)
		}
	default:
		log.Debug("webhook ignored")
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type activateRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

func (h *PaymentHandler) confirmForUser(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req activateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apperr.Write(w, h.logger, err)
		return
	}

	order, err := h.orders.GetByID(req.OrderID)
	if err != nil {
		apperr.Write(w, h.logger, apperr.Internal(err))
		return
	}
	if order == nil || order.UserID != userID {
		apperr.Write(w, h.logger, apperr.NotFound("order not found"))
		return
	}

	switch order.Status {
	case model.OrderConfirmed:
		h.activate(w, r, order.OrderID)
		return
	case model.OrderFailed:
		writeJSON(w, http.StatusOK, map[string]string{"status": "failed", "order_id": order.OrderID})
		return
	}

	if order.Gateway != model.GatewayCashfree {
		// Stripe orders settle through their webhook.
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
		return
	}
	if h.cashfree == nil {
		apperr.Write(w, h.logger, apperr.Unavailable("cashfree payments are not configured"))
		return
	}

	gw, err := h.cashfree.GetOrderStatus(r.Context(), order.OrderID)
	if err != nil {
		var ge *cashfree.GatewayError
		if errors.As(err, &ge) {
			apperr.Write(w, h.logger, apperr.Gateway(ge.Message, ge.Status, err))
			return
		}
		apperr.Write(w, h.logger, apperr.Gateway("payment gateway unavailable", 0, err))
		return
	}

	switch gw.OrderStatus {
	case cashfree.OrderStatusPaid:
		if !paidInFull(order, gw.OrderAmount, gw.OrderCurrency) {
			h.logger.Error("paid amount mismatch", "order_id", order.OrderID, "amount", gw.OrderAmount, "currency", gw.OrderCurrency,
				"want_amount", order.Amount, "want_currency", order.Currency)
			if _, err := h.subs.MarkFailed(r.Context(), order.OrderID); err != nil {
				apperr.Write(w, h.logger, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "failed", "order_id": order.OrderID})
			return
		}
		h.activate(w, r, order.OrderID)
	case cashfree.OrderStatusExpired, cashfree.OrderStatusTerminated:
		if _, err := h.subs.MarkFailed(r.Context(), order.OrderID); err != nil {
			apperr.Write(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "failed", "order_id": order.OrderID})
	default:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
	}
}

func (h *PaymentHandler) activate(w http.ResponseWriter, r *http.Request, orderID string) {
	u, applied, err := h.subs.Activate(r.Context(), orderID)
	if err != nil {
		apperr.Write(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "active",
		"applied": applied,
		"user":    u,
	})
}

func sameAmount(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

// paidInFull reports whether the gateway settled the order at its stored price.
func paidInFull(o *model.Order, amount float64, currency string) bool {
	return sameAmount(o.Amount, amount) && strings.EqualFold(o.Currency, currency)
}
