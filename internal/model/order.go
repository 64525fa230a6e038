package model

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderFailed    OrderStatus = "failed"
)

type Gateway string

const (
	GatewayCashfree Gateway = "cashfree"
	GatewayStripe   Gateway = "stripe"
)

type Customer struct {
	ID    string `json:"customer_id"`
	Email string `json:"customer_email"`
	Name  string `json:"customer_name,omitempty"`
	Phone string `json:"customer_phone"`
}

type Order struct {
	OrderID          string      `json:"order_id"`
	UserID           int64       `json:"user_id"`
	Gateway          Gateway     `json:"gateway"`
	Amount           float64     `json:"amount"`
	Currency         string      `json:"currency"`
	Customer         Customer    `json:"customer"`
	Status           OrderStatus `json:"status"`
	GatewayRef       *string     `json:"gateway_ref"`
	PaymentSessionID *string     `json:"payment_session_id"`
	ReturnURL        string      `json:"return_url"`
	NotifyURL        string      `json:"notify_url"`
	ConfirmedAt      *time.Time  `json:"confirmed_at"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}
