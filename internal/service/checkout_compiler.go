package service

import (
	"fmt"
	"strings"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
	apperrors "github.com/unseen32online/UNSEEN.IL/pkg/errors"
	"github.com/unseen32online/UNSEEN.IL/pkg/validator"
)

// CheckoutInput is everything the shopper submits with a checkout besides
// the cart itself.
type CheckoutInput struct {
	Customer       domain.CustomerInfo
	Address        domain.Address
	ShippingMethod domain.ShippingMethod
	Payment        domain.PaymentInstrument
}

// Compiler turns a cart snapshot and checkout input into an OrderRequest.
// It never mutates the cart.
type Compiler struct {
	rates    domain.ShippingRates
	currency string
}

func NewCompiler(rates domain.ShippingRates, currency string) *Compiler {
	return &Compiler{rates: rates, currency: currency}
}

type requiredField struct {
	name  string
	value string
}

func firstBlank(fields ...requiredField) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return apperrors.InvalidInput(f.name + " is required")
		}
	}
	return nil
}

// Compile validates in a fixed order: cart, customer, address, payment,
// shipping method. The first failure is returned.
func (c *Compiler) Compile(cart *domain.Cart, in CheckoutInput) (*domain.OrderRequest, error) {
	if cart == nil || cart.IsEmpty() {
		return nil, apperrors.EmptyCart()
	}

	customer := domain.CustomerInfo{
		FirstName: strings.TrimSpace(in.Customer.FirstName),
		LastName:  strings.TrimSpace(in.Customer.LastName),
		Email:     strings.TrimSpace(in.Customer.Email),
		Phone:     strings.TrimSpace(in.Customer.Phone),
	}
	if err := firstBlank(
		requiredField{"first_name", customer.FirstName},
		requiredField{"last_name", customer.LastName},
		requiredField{"email", customer.Email},
		requiredField{"phone", customer.Phone},
	); err != nil {
		return nil, err
	}
	if !validator.IsEmail(customer.Email) {
		return nil, apperrors.InvalidInput("email must be a valid email address")
	}

	address := domain.Address{
		Street:     strings.TrimSpace(in.Address.Street),
		City:       strings.TrimSpace(in.Address.City),
		PostalCode: strings.TrimSpace(in.Address.PostalCode),
		Country:    strings.TrimSpace(in.Address.Country),
	}
	if err := firstBlank(
		requiredField{"street", address.Street},
		requiredField{"city", address.City},
		requiredField{"postal_code", address.PostalCode},
	); err != nil {
		return nil, err
	}
	if address.Country == "" {
		address.Country = domain.DefaultCountry
	}

	if err := firstBlank(
		requiredField{"card_number", in.Payment.CardNumber},
		requiredField{"cardholder_name", in.Payment.CardholderName},
		requiredField{"expiry", in.Payment.Expiry},
		requiredField{"cvv", in.Payment.CVV},
	); err != nil {
		return nil, err
	}

	cost, ok := c.rates.Cost(in.ShippingMethod)
	if !ok {
		return nil, apperrors.Configuration(fmt.Sprintf("no shipping rate for method %q", in.ShippingMethod))
	}

	return domain.NewOrderRequest(customer, address, cart.Items(), in.ShippingMethod,
		cost, c.currency, in.Payment.Summary()), nil
}
