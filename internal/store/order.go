package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aijobhunter/jobhunter/internal/model"
)

var (
	// ErrOrderNotFound is returned when a transition targets an unknown order.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderFailed is returned when confirming an order that already failed.
	ErrOrderFailed = errors.New("order already failed")
)

type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

func scanOrder(scanner interface{ Scan(...any) error }) (*model.Order, error) {
	var o model.Order
	var gatewayRef, paymentSessionID sql.NullString
	var confirmedAt sql.NullTime
	err := scanner.Scan(
		&o.OrderID, &o.UserID, &o.Gateway, &o.Amount, &o.Currency,
		&o.Customer.Email, &o.Customer.Name, &o.Customer.Phone, &o.Status,
		&gatewayRef, &paymentSessionID, &o.ReturnURL, &o.NotifyURL,
		&confirmedAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if gatewayRef.Valid {
		o.GatewayRef = &gatewayRef.String
	}
	if paymentSessionID.Valid {
		o.PaymentSessionID = &paymentSessionID.String
	}
	if confirmedAt.Valid {
		o.ConfirmedAt = &confirmedAt.Time
	}
	return &o, nil
}

const orderCols = `order_id, user_id, gateway, amount, currency, customer_email, customer_name, customer_phone, status, gateway_ref, payment_session_id, return_url, notify_url, confirmed_at, created_at, updated_at`

// Create stores a new pending order.
func (s *OrderStore) Create(o *model.Order) (*model.Order, error) {
	_, err := s.db.Exec(
		`INSERT INTO orders (order_id, user_id, gateway, amount, currency, customer_email, customer_name, customer_phone, return_url, notify_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.OrderID, o.UserID, string(o.Gateway), o.Amount, o.Currency,
		o.Customer.Email, o.Customer.Name, o.Customer.Phone, o.ReturnURL, o.NotifyURL,
	)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return s.GetByID(o.OrderID)
}

func (s *OrderStore) GetByID(orderID string) (*model.Order, error) {
	row := s.db.QueryRow(`SELECT `+orderCols+` FROM orders WHERE order_id = ?`, orderID)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (s *OrderStore) ListByUserID(userID int64) ([]model.Order, error) {
	rows, err := s.db.Query(
		`SELECT `+orderCols+` FROM orders WHERE user_id = ? ORDER BY created_at DESC, order_id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// SetGatewayRef records the gateway's identifiers for the order.
func (s *OrderStore) SetGatewayRef(orderID, ref, paymentSessionID string) error {
	_, err := s.db.Exec(
		`UPDATE orders SET gateway_ref = ?, payment_session_id = NULLIF(?, ''), updated_at = CURRENT_TIMESTAMP WHERE order_id = ?`,
		ref, paymentSessionID, orderID,
	)
	if err != nil {
		return fmt.Errorf("set gateway ref: %w", err)
	}
	return nil
}

// Confirm moves a pending order to confirmed and promotes its owner to the pro
// tier in one transaction. applied is false when the order was already
// confirmed, in which case nothing is written.
func (s *OrderStore) Confirm(orderID string, at time.Time) (order *model.Order, applied bool, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, false, fmt.Errorf("begin confirm: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE orders SET status = ?, confirmed_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE order_id = ? AND status = ?`,
		string(model.OrderConfirmed), at.UTC(), orderID, string(model.OrderPending),
	)
	if err != nil {
		return nil, false, fmt.Errorf("confirm order: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	current, err := scanOrder(tx.QueryRow(`SELECT `+orderCols+` FROM orders WHERE order_id = ?`, orderID))
	if err == sql.ErrNoRows {
		return nil, false, ErrOrderNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("get order: %w", err)
	}

	if n == 0 {
		if current.Status == model.OrderFailed {
			return current, false, ErrOrderFailed
		}
		return current, false, nil
	}

	if err := promoteTier(tx, current.UserID, model.TierPro, at); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit confirm: %w", err)
	}
	return current, true, nil
}

// MarkFailed moves a pending order to failed. Orders in a terminal state are
// left untouched and applied is false.
func (s *OrderStore) MarkFailed(orderID string) (applied bool, err error) {
	result, err := s.db.Exec(
		`UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE order_id = ? AND status = ?`,
		string(model.OrderFailed), orderID, string(model.OrderPending),
	)
	if err != nil {
		return false, fmt.Errorf("mark order failed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		o, err := s.GetByID(orderID)
		if err != nil {
			return false, err
		}
		if o == nil {
			return false, ErrOrderNotFound
		}
	}
	return n == 1, nil
}
