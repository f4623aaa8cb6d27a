package payment

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
)

// Charge is one payment attempt for an order.
type Charge struct {
	OrderID     string
	OrderNumber string
	Amount      decimal.Decimal
	Currency    string
	Instrument  domain.PaymentInstrument
}

// Gateway charges a card. A declined charge is a successful call with
// Success false; an error means the gateway could not be reached or did
// not answer in time. Callers treat both as "not paid".
type Gateway interface {
	Name() string
	Process(ctx context.Context, charge Charge) (domain.PaymentOutcome, error)
}
