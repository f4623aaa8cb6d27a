package domain

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCountry is used when a shipping address omits the country.
const DefaultCountry = "Israel"

// PaymentMethodCard is the only payment method the storefront accepts.
const PaymentMethodCard = "credit_card"

type CustomerInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (c CustomerInfo) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// PaymentInstrument is raw card data. It lives only for the duration of a
// payment call and is never persisted or logged.
type PaymentInstrument struct {
	CardNumber     string `json:"card_number"`
	CardholderName string `json:"cardholder_name"`
	Expiry         string `json:"expiry"`
	CVV            string `json:"cvv"`
}

// Digits returns the card number without spaces or dashes.
func (p PaymentInstrument) Digits() string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, p.CardNumber)
}

// LastFour returns the final four digits of the card number.
func (p PaymentInstrument) LastFour() string {
	d := p.Digits()
	if len(d) <= 4 {
		return d
	}
	return d[len(d)-4:]
}

// Masked renders the card as "****1234" for logs and messages.
func (p PaymentInstrument) Masked() string {
	return "****" + p.LastFour()
}

// Summary reduces the instrument to what may be stored with an order.
func (p PaymentInstrument) Summary() PaymentSummary {
	return PaymentSummary{
		Method:         PaymentMethodCard,
		CardLastFour:   p.LastFour(),
		CardholderName: p.CardholderName,
	}
}

// OrderRequest is the immutable output of checkout compilation.
type OrderRequest struct {
	customer     CustomerInfo
	address      Address
	items        []LineItem
	method       ShippingMethod
	subtotal     decimal.Decimal
	shippingCost decimal.Decimal
	total        decimal.Decimal
	currency     string
	payment      PaymentSummary
}

// NewOrderRequest computes subtotal and total from items and shippingCost,
// rounding half-up to the minor unit. Items are copied.
func NewOrderRequest(customer CustomerInfo, address Address, items []LineItem, method ShippingMethod,
	shippingCost decimal.Decimal, currency string, payment PaymentSummary) *OrderRequest {
	subtotal := Subtotal(items)
	shippingCost = RoundMoney(shippingCost)
	return &OrderRequest{
		customer:     customer,
		address:      address,
		items:        slices.Clone(items),
		method:       method,
		subtotal:     subtotal,
		shippingCost: shippingCost,
		total:        RoundMoney(subtotal.Add(shippingCost)),
		currency:     currency,
		payment:      payment,
	}
}

func (r *OrderRequest) Customer() CustomerInfo { return r.customer }
func (r *OrderRequest) ShippingAddress() Address { return r.address }
func (r *OrderRequest) Items() []LineItem { return slices.Clone(r.items) }
func (r *OrderRequest) ShippingMethod() ShippingMethod { return r.method }
func (r *OrderRequest) Subtotal() decimal.Decimal { return r.subtotal }
func (r *OrderRequest) ShippingCost() decimal.Decimal { return r.shippingCost }
func (r *OrderRequest) Total() decimal.Decimal { return r.total }
func (r *OrderRequest) Currency() string { return r.currency }
func (r *OrderRequest) Payment() PaymentSummary { return r.payment }
