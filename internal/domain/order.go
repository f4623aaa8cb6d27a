package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is a state of the order lifecycle.
type OrderStatus string

const (
	StatusPendingPayment   OrderStatus = "pending_payment"
	StatusPaymentConfirmed OrderStatus = "payment_confirmed"
	StatusProcessing       OrderStatus = "processing"
	StatusShipped          OrderStatus = "shipped"
	StatusDelivered        OrderStatus = "delivered"
	StatusCancelled        OrderStatus = "cancelled"
)

// transitions lists, for every status, the statuses it may move to.
// Delivered and cancelled are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPendingPayment:   {StatusPaymentConfirmed, StatusCancelled},
	StatusPaymentConfirmed: {StatusProcessing, StatusCancelled},
	StatusProcessing:       {StatusShipped, StatusCancelled},
	StatusShipped:          {StatusDelivered, StatusCancelled},
	StatusDelivered:        {},
	StatusCancelled:        {},
}

// Statuses returns every status in lifecycle order.
func Statuses() []OrderStatus {
	return []OrderStatus{
		StatusPendingPayment,
		StatusPaymentConfirmed,
		StatusProcessing,
		StatusShipped,
		StatusDelivered,
		StatusCancelled,
	}
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanTransitionTo reports whether s -> to is a legal lifecycle step.
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// PaymentSummary is the non-sensitive record of the card used for an order.
type PaymentSummary struct {
	Method         string `json:"method"`
	CardLastFour   string `json:"card_last_four"`
	CardholderName string `json:"cardholder_name"`
	TransactionID  string `json:"transaction_id,omitempty"`
}

// Order is the persisted result of a checkout. Items and money fields are
// frozen at creation.
type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	Status          OrderStatus     `json:"status"`
	Customer        CustomerInfo    `json:"customer"`
	ShippingAddress Address         `json:"shipping_address"`
	Items           []LineItem      `json:"items"`
	ShippingMethod  ShippingMethod  `json:"shipping_method"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`
	Payment         PaymentSummary  `json:"payment"`
	Notes           string          `json:"notes,omitempty"`
	TrackingNumber  string          `json:"tracking_number,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// PaymentOutcome is what a payment gateway reports for one charge attempt.
type PaymentOutcome struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}
