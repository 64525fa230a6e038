// Package subscription owns the user's tier. Tier changes happen only through
// order confirmation here.
package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aijobhunter/jobhunter/internal/apperr"
	"github.com/aijobhunter/jobhunter/internal/email"
	"github.com/aijobhunter/jobhunter/internal/events"
	"github.com/aijobhunter/jobhunter/internal/model"
	"github.com/aijobhunter/jobhunter/internal/store"
)

type OrderStore interface {
	Confirm(orderID string, at time.Time) (*model.Order, bool, error)
	MarkFailed(orderID string) (bool, error)
	GetByID(orderID string) (*model.Order, error)
}

type UserStore interface {
	GetByID(id int64) (*model.User, error)
}

type Publisher interface {
	Publish(userID int64, msg events.Message)
}

type Mailer interface {
	Configured() bool
	SendSubscriptionReceipt(ctx context.Context, r email.Receipt) error
}

type Service struct {
	orders    OrderStore
	users     UserStore
	publisher Publisher
	mailer    Mailer
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the service. publisher and mailer may be nil.
func NewService(orders OrderStore, users UserStore, publisher Publisher, mailer Mailer, logger *slog.Logger) *Service {
	return &Service{
		orders:    orders,
		users:     users,
		publisher: publisher,
		mailer:    mailer,
		logger:    logger.With("component", "subscription"),
		now:       time.Now,
	}
}

// Activate confirms the order and upgrades its owner to pro. Confirming an
// order twice is a no-op reported with applied=false.
func (s *Service) Activate(ctx context.Context, orderID string) (*model.User, bool, error) {
	if orderID == "" {
		return nil, false, apperr.Validation("order_id is required")
	}

	at := s.now().UTC()
	order, applied, err := s.orders.Confirm(orderID, at)
	switch {
	case errors.Is(err, store.ErrOrderNotFound):
		return nil, false, apperr.NotFound("order not found")
	case errors.Is(err, store.ErrOrderFailed):
		return nil, false, apperr.Conflict("order has failed and cannot be activated")
	case err != nil:
		return nil, false, apperr.Internal(err)
	}

	u, err := s.users.GetByID(order.UserID)
	if err != nil {
		return nil, false, apperr.Internal(err)
	}
	if u == nil {
		return nil, false, apperr.NotFound("user not found")
	}

	if !applied {
		s.logger.Info("order already confirmed", "order_id", orderID, "user_id", u.ID)
		return u, false, nil
	}

	s.logger.Info("subscription activated", "order_id", orderID, "user_id", u.ID, "gateway", order.Gateway)
	if s.publisher != nil {
		s.publisher.Publish(u.ID, events.NewMessage("subscription", "activated", orderID, map[string]any{
			"tier": string(u.Tier),
		}))
	}
	if s.mailer != nil && s.mailer.Configured() {
		err := s.mailer.SendSubscriptionReceipt(ctx, email.Receipt{
			ToEmail:  u.Email,
			Name:     u.DisplayName,
			OrderID:  order.OrderID,
			Amount:   order.Amount,
			Currency: order.Currency,
			PaidAt:   at,
		})
		if err != nil {
			s.logger.Error("send receipt", "order_id", orderID, "error", err)
		}
	}
	return u, true, nil
}

// MarkFailed moves a pending order to failed. The owner's tier is untouched.
func (s *Service) MarkFailed(ctx context.Context, orderID string) (bool, error) {
	applied, err := s.orders.MarkFailed(orderID)
	if errors.Is(err, store.ErrOrderNotFound) {
		return false, apperr.NotFound("order not found")
	}
	if err != nil {
		return false, apperr.Internal(err)
	}
	if !applied {
		return false, nil
	}

	s.logger.Info("order failed", "order_id", orderID)
	if s.publisher != nil {
		if o, err := s.orders.GetByID(orderID); err == nil && o != nil {
			s.publisher.Publish(o.UserID, events.NewMessage("order", "failed", orderID, nil))
		}
	}
	return true, nil
}
