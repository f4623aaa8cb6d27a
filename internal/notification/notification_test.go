package notification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
)

func testOrder() *domain.Order {
	return &domain.Order{
		ID:          "2b1c7f0e-0d7a-4c55-9d0e-6a0f7c1f8e11",
		OrderNumber: "ORD-20260314-000007-a1b2",
		Status:      domain.StatusPaymentConfirmed,
		Customer: domain.CustomerInfo{
			FirstName: "Noa", LastName: "Levi", Email: "noa@example.com", Phone: "0501234567",
		},
		ShippingAddress: domain.Address{Street: "Dizengoff 100", City: "Tel Aviv", PostalCode: "6433222", Country: "Israel"},
		Items: []domain.LineItem{
			{ProductID: "unseen-hoodie-black", Name: "UNSEEN Oversized Hoodie", UnitPrice: decimal.RequireFromString("449"), Size: "M", Color: "black", Quantity: 2},
			{ProductID: "unseen-cap-black", Name: "UNSEEN Six Panel Cap", UnitPrice: decimal.RequireFromString("149"), Color: "black", Quantity: 1},
		},
		ShippingMethod: domain.ShippingStandard,
		Subtotal:       decimal.RequireFromString("1047"),
		ShippingCost:   decimal.RequireFromString("40"),
		Total:          decimal.RequireFromString("1087"),
		Currency:       "ILS",
		Payment:        domain.PaymentSummary{Method: "credit_card", CardLastFour: "4242", TransactionID: "TXN-9F"},
	}
}

func TestBuildConfirmations(t *testing.T) {
	o := testOrder()
	msgs := BuildConfirmations(o, "owner@unseen.co.il")
	require.Len(t, msgs, 2)

	customer := msgs[0]
	assert.Equal(t, KindCustomerConfirmation, customer.Kind)
	assert.Equal(t, "noa@example.com", customer.To)
	assert.Contains(t, customer.Subject, o.OrderNumber)
	assert.Contains(t, customer.Body, "Hi Noa,")
	assert.Contains(t, customer.Body, "2 x UNSEEN Oversized Hoodie (M black)  ILS 898.00")
	assert.Contains(t, customer.Body, "1 x UNSEEN Six Panel Cap (black)  ILS 149.00")
	assert.Contains(t, customer.Body, "Total: ILS 1087.00")
	assert.Contains(t, customer.Body, "Dizengoff 100, Tel Aviv 6433222, Israel")

	owner := msgs[1]
	assert.Equal(t, KindOwnerAlert, owner.Kind)
	assert.Equal(t, "owner@unseen.co.il", owner.To)
	assert.Equal(t, "New order ORD-20260314-000007-a1b2 (ILS 1087.00)", owner.Subject)
	assert.Contains(t, owner.Body, "Noa Levi <noa@example.com>")
	assert.Contains(t, owner.Body, "card ending 4242")
	assert.NotContains(t, owner.Body, "4242 4242")
}

func TestBuildConfirmations_NoOwner(t *testing.T) {
	msgs := BuildConfirmations(testOrder(), "")
	require.Len(t, msgs, 1)
	assert.Equal(t, KindCustomerConfirmation, msgs[0].Kind)
}

type recordingSender struct {
	sent []Message
	fail map[string]error
}

func (s *recordingSender) Name() string { return "recording" }

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	if err := s.fail[msg.Kind]; err != nil {
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestNotifier_SendConfirmations(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("sends both", func(t *testing.T) {
		s := &recordingSender{}
		err := NewNotifier(s, "owner@unseen.co.il", logger).SendConfirmations(context.Background(), testOrder())
		require.NoError(t, err)
		assert.Len(t, s.sent, 2)
	})

	t.Run("customer failure still alerts owner", func(t *testing.T) {
		boom := errors.New("smtp down")
		s := &recordingSender{fail: map[string]error{KindCustomerConfirmation: boom}}
		err := NewNotifier(s, "owner@unseen.co.il", logger).SendConfirmations(context.Background(), testOrder())
		assert.ErrorIs(t, err, boom)
		require.Len(t, s.sent, 1)
		assert.Equal(t, KindOwnerAlert, s.sent[0].Kind)
	})
}
