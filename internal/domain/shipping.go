package domain

import "github.com/shopspring/decimal"

// ShippingMethod is chosen once per checkout.
type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
)

func (m ShippingMethod) Valid() bool {
	return m == ShippingStandard || m == ShippingExpress
}

// ShippingRates maps each method to its fixed cost in the store currency.
type ShippingRates map[ShippingMethod]decimal.Decimal

// DefaultShippingRates returns standard 40 and express 60.
func DefaultShippingRates() ShippingRates {
	return ShippingRates{
		ShippingStandard: decimal.NewFromInt(40),
		ShippingExpress:  decimal.NewFromInt(60),
	}
}

// Cost looks up the rate for m.
func (r ShippingRates) Cost(m ShippingMethod) (decimal.Decimal, bool) {
	cost, ok := r[m]
	return cost, ok
}
