package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
	apperrors "github.com/unseen32online/UNSEEN.IL/pkg/errors"
)

func hoodieCart(qty int) *domain.Cart {
	c := &domain.Cart{}
	for range qty {
		c.Add(hoodie, "M", "black")
	}
	return c
}

func TestCompiler_Compile_Totals(t *testing.T) {
	c := NewCompiler(domain.DefaultShippingRates(), "ILS")

	tests := []struct {
		name         string
		method       domain.ShippingMethod
		wantShipping string
		wantTotal    string
	}{
		{name: "standard", method: domain.ShippingStandard, wantShipping: "40", wantTotal: "938"},
		{name: "express", method: domain.ShippingExpress, wantShipping: "60", wantTotal: "958"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			in.ShippingMethod = tt.method

			req, err := c.Compile(hoodieCart(2), in)
			require.NoError(t, err)
			assert.True(t, req.Subtotal().Equal(dec("898")), "subtotal %s", req.Subtotal())
			assert.True(t, req.ShippingCost().Equal(dec(tt.wantShipping)))
			assert.True(t, req.Total().Equal(dec(tt.wantTotal)), "total %s", req.Total())
			assert.Equal(t, "ILS", req.Currency())
			assert.Equal(t, tt.method, req.ShippingMethod())
		})
	}
}

func TestCompiler_Compile_KeepsOnlyCardSummary(t *testing.T) {
	c := NewCompiler(domain.DefaultShippingRates(), "ILS")
	in := validInput()

	req, err := c.Compile(hoodieCart(1), in)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSummary{
		Method:         domain.PaymentMethodCard,
		CardLastFour:   "4242",
		CardholderName: in.Payment.CardholderName,
	}, req.Payment())
	assert.Equal(t, domain.DefaultCountry, req.ShippingAddress().Country)
}

func TestCompiler_Compile_DoesNotMutateCart(t *testing.T) {
	c := NewCompiler(domain.DefaultShippingRates(), "ILS")
	cart := hoodieCart(2)

	req, err := c.Compile(cart, validInput())
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Count())

	cart.Add(tee, "M", "white")
	assert.Len(t, req.Items(), 1, "request items are a frozen copy")
}

func TestCompiler_Compile_EmptyCart(t *testing.T) {
	c := NewCompiler(domain.DefaultShippingRates(), "ILS")

	_, err := c.Compile(&domain.Cart{}, validInput())
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)

	_, err = c.Compile(nil, validInput())
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)
}

func TestCompiler_Compile_RequiredFields(t *testing.T) {
	c := NewCompiler(domain.DefaultShippingRates(), "ILS")

	tests := []struct {
		field  string
		mutate func(in *CheckoutInput)
	}{
		{"first_name", func(in *CheckoutInput) { in.Customer.FirstName = "" }},
		{"last_name", func(in *CheckoutInput) { in.Customer.LastName = "   " }},
		{"email", func(in *CheckoutInput) { in.Customer.Email = "" }},
		{"phone", func(in *CheckoutInput) { in.Customer.Phone = "" }},
		{"street", func(in *CheckoutInput) { in.Address.Street = "" }},
		{"city", func(in *CheckoutInput) { in.Address.City = "" }},
		{"postal_code", func(in *CheckoutInput) { in.Address.PostalCode = "" }},
		{"card_number", func(in *CheckoutInput) { in.Payment.CardNumber = "" }},
		{"cardholder_name", func(in *CheckoutInput) { in.Payment.CardholderName = "" }},
		{"expiry", func(in *CheckoutInput) { in.Payment.Expiry = "" }},
		{"cvv", func(in *CheckoutInput) { in.Payment.CVV = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			_, err := c.Compile(hoodieCart(1), in)
			require.ErrorIs(t, err, apperrors.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.field+" is required")
		})
	}
}

func TestCompiler_Compile_EmailShape(t *testing.T) {
	c := NewCompiler(domain.DefaultShippingRates(), "ILS")

	for _, email := range []string{"noa", "noa@", "@example.com", "noa example.com"} {
		in := validInput()
		in.Customer.Email = email
		_, err := c.Compile(hoodieCart(1), in)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput, email)
	}
}

func TestCompiler_Compile_UnknownShippingMethod(t *testing.T) {
	c := NewCompiler(domain.ShippingRates{domain.ShippingStandard: dec("40")}, "ILS")
	in := validInput()
	in.ShippingMethod = domain.ShippingExpress

	_, err := c.Compile(hoodieCart(1), in)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestCompiler_Compile_RoundsHalfUp(t *testing.T) {
	c := NewCompiler(domain.ShippingRates{domain.ShippingStandard: dec("39.995")}, "ILS")

	req, err := c.Compile(hoodieCart(1), validInput())
	require.NoError(t, err)
	assert.Equal(t, "40.00", req.ShippingCost().StringFixed(2))
	assert.Equal(t, "489.00", req.Total().StringFixed(2))
}
