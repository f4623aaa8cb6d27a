package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
	"github.com/unseen32online/UNSEEN.IL/internal/payment"
	"github.com/unseen32online/UNSEEN.IL/internal/repository/memory"
	apperrors "github.com/unseen32online/UNSEEN.IL/pkg/errors"
)

func TestCheckout_HappyPath(t *testing.T) {
	var charged payment.Charge
	gw := gatewayFunc(func(ctx context.Context, c payment.Charge) (domain.PaymentOutcome, error) {
		charged = c
		return domain.PaymentOutcome{Success: true, Message: "approved", TransactionID: "TXN-ABC"}, nil
	})
	f := newFixture(t, gw, time.Second)
	ctx := context.Background()
	f.fillCart(t, "s1", hoodie, "M", "black", 2)

	o, err := f.checkout.Checkout(ctx, "s1", validInput())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPaymentConfirmed, o.Status)
	assert.Equal(t, "TXN-ABC", o.Payment.TransactionID)
	assert.True(t, o.Subtotal.Equal(dec("898")))
	assert.True(t, o.ShippingCost.Equal(dec("40")))
	assert.True(t, o.Total.Equal(dec("938")))

	assert.Equal(t, o.OrderNumber, charged.OrderNumber)
	assert.True(t, charged.Amount.Equal(dec("938")))
	assert.Equal(t, "ILS", charged.Currency)

	ledger, err := f.carts.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ledger.IsEmpty(), "cart is cleared after payment")

	stored, err := f.orderRepo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaymentConfirmed, stored.Status)
	assert.Equal(t, []domain.OrderStatus{domain.StatusPaymentConfirmed}, f.events.changed)
}

func TestCheckout_DeclineKeepsCartThenRetry(t *testing.T) {
	var declined atomic.Bool
	declined.Store(true)
	gw := gatewayFunc(func(ctx context.Context, c payment.Charge) (domain.PaymentOutcome, error) {
		if declined.Load() {
			return domain.PaymentOutcome{Message: "insufficient funds"}, nil
		}
		return domain.PaymentOutcome{Success: true, TransactionID: "TXN-RETRY"}, nil
	})
	f := newFixture(t, gw, time.Second)
	ctx := context.Background()
	f.fillCart(t, "s1", tee, "M", "white", 1)

	o, err := f.checkout.Checkout(ctx, "s1", validInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPaymentFailed)
	assert.Contains(t, err.Error(), "insufficient funds")
	require.NotNil(t, o, "the pending order is returned with the failure")
	assert.Equal(t, domain.StatusPendingPayment, o.Status)
	assert.Equal(t, []string{"insufficient funds"}, f.events.failures)

	ledger, err := f.carts.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.Count(), "cart survives a decline")

	declined.Store(false)
	o, err = f.checkout.RetryPayment(ctx, "s1", o.ID, validCard())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaymentConfirmed, o.Status)
	assert.Equal(t, "TXN-RETRY", o.Payment.TransactionID)

	ledger, err = f.carts.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ledger.IsEmpty())
}

func TestCheckout_DeclineWithoutMessage(t *testing.T) {
	f := newFixture(t, declineAll(""), time.Second)
	f.fillCart(t, "s1", hoodie, "S", "bone", 1)

	_, err := f.checkout.Checkout(context.Background(), "s1", validInput())
	assert.ErrorIs(t, err, apperrors.ErrPaymentFailed)
	assert.Contains(t, err.Error(), msgPaymentDeclined)
}

func TestCheckout_GatewayTimeout(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	slow := gatewayFunc(func(ctx context.Context, c payment.Charge) (domain.PaymentOutcome, error) {
		select {
		case <-ctx.Done():
			return domain.PaymentOutcome{}, ctx.Err()
		case <-time.After(5 * time.Second):
			return domain.PaymentOutcome{Success: true}, nil
		}
	})
	f := newFixture(t, slow, 20*time.Millisecond)
	f.fillCart(t, "s1", hoodie, "M", "black", 1)

	start := time.Now()
	o, err := f.checkout.Checkout(context.Background(), "s1", validInput())
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.ErrorIs(t, err, apperrors.ErrPaymentFailed)
	assert.Contains(t, err.Error(), msgPaymentTimedOut)
	require.NotNil(t, o)
	assert.Equal(t, domain.StatusPendingPayment, o.Status)

	ledger, err := f.carts.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, ledger.IsEmpty())
}

func TestCheckout_GatewayError(t *testing.T) {
	broken := gatewayFunc(func(context.Context, payment.Charge) (domain.PaymentOutcome, error) {
		return domain.PaymentOutcome{}, errors.New("tls handshake failure")
	})
	f := newFixture(t, broken, time.Second)
	f.fillCart(t, "s1", tee, "M", "white", 3)

	o, err := f.checkout.Checkout(context.Background(), "s1", validInput())
	assert.ErrorIs(t, err, apperrors.ErrPaymentFailed)
	assert.Contains(t, err.Error(), msgPaymentUnavailable)
	assert.NotContains(t, err.Error(), "tls", "internal errors are not shown to shoppers")
	require.NotNil(t, o)
	assert.Equal(t, domain.StatusPendingPayment, o.Status)
}

func TestCheckout_GatewayPanicIsAPaymentFailure(t *testing.T) {
	faulty := gatewayFunc(func(context.Context, payment.Charge) (domain.PaymentOutcome, error) {
		panic("gateway fault")
	})
	f := newFixture(t, faulty, time.Second)
	f.fillCart(t, "s1", hoodie, "M", "black", 1)

	o, err := f.checkout.Checkout(context.Background(), "s1", validInput())
	assert.ErrorIs(t, err, apperrors.ErrPaymentFailed)
	assert.Contains(t, err.Error(), msgPaymentUnavailable)
	assert.NotContains(t, err.Error(), "gateway fault")
	require.NotNil(t, o)
	assert.Equal(t, domain.StatusPendingPayment, o.Status)

	ledger, err := f.carts.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.Count(), "cart survives the fault")
}

func TestCheckout_RejectedBeforeOrderCreation(t *testing.T) {
	var calls atomic.Int32
	gw := gatewayFunc(func(context.Context, payment.Charge) (domain.PaymentOutcome, error) {
		calls.Add(1)
		return domain.PaymentOutcome{Success: true}, nil
	})
	ctx := context.Background()

	t.Run("empty cart", func(t *testing.T) {
		f := newFixture(t, gw, time.Second)
		_, err := f.checkout.Checkout(ctx, "empty", validInput())
		assert.ErrorIs(t, err, apperrors.ErrEmptyCart)
	})

	t.Run("missing field", func(t *testing.T) {
		f := newFixture(t, gw, time.Second)
		f.fillCart(t, "s1", hoodie, "M", "black", 1)
		in := validInput()
		in.Customer.Phone = ""
		_, err := f.checkout.Checkout(ctx, "s1", in)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		all, err := f.orderRepo.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	assert.Zero(t, calls.Load(), "gateway must not be charged")
}

func TestCheckout_CreateFailureLeavesCart(t *testing.T) {
	repo := new(mockOrderRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(errStoreDown)

	logger := newTestLogger()
	store := memory.NewCartStore()
	carts := NewCartService(store, testCatalog(), logger)
	orders := NewOrderService(repo, NewOrderNumberGenerator("ORD", memory.NewSequence()), nil, logger)
	svc := NewCheckoutService(carts, NewCompiler(domain.DefaultShippingRates(), "ILS"), orders, approveAll(), time.Second, logger)

	ctx := context.Background()
	_, err := carts.AddItem(ctx, "s1", hoodie.ID, "L", "black")
	require.NoError(t, err)

	o, err := svc.Checkout(ctx, "s1", validInput())
	assert.Nil(t, o)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)

	ledger, err := carts.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.Count())
}

func TestRetryPayment_Validation(t *testing.T) {
	f := newFixture(t, approveAll(), time.Second)
	ctx := context.Background()
	f.fillCart(t, "s1", hoodie, "M", "black", 1)

	o, err := f.checkout.Checkout(ctx, "s1", validInput())
	require.NoError(t, err)

	_, err = f.checkout.RetryPayment(ctx, "", o.ID, validCard())
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "a paid order cannot be charged again")

	card := validCard()
	card.CVV = ""
	_, err = f.checkout.RetryPayment(ctx, "", o.ID, card)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = f.checkout.RetryPayment(ctx, "", "no-such-order", validCard())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRetryPayment_WithoutSession(t *testing.T) {
	var approve atomic.Bool
	gw := gatewayFunc(func(context.Context, payment.Charge) (domain.PaymentOutcome, error) {
		if approve.Load() {
			return domain.PaymentOutcome{Success: true, TransactionID: "TXN-9"}, nil
		}
		return domain.PaymentOutcome{Message: "do not honor"}, nil
	})
	f := newFixture(t, gw, time.Second)
	ctx := context.Background()
	f.fillCart(t, "s1", sixPanelCap, "", "black", 1)

	o, err := f.checkout.Checkout(ctx, "s1", validInput())
	require.ErrorIs(t, err, apperrors.ErrPaymentFailed)

	approve.Store(true)
	o, err = f.checkout.RetryPayment(ctx, "", o.ID, validCard())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaymentConfirmed, o.Status)

	ledger, err := f.carts.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.Count(), "no session means no cart to clear")
}

func TestRetryPayment_ConcurrentRetriesChargeOnce(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var (
		approving atomic.Bool
		charges   atomic.Int32
	)
	entered := make(chan struct{})
	unblock := make(chan struct{})
	gw := gatewayFunc(func(ctx context.Context, c payment.Charge) (domain.PaymentOutcome, error) {
		if !approving.Load() {
			return domain.PaymentOutcome{Message: "insufficient funds"}, nil
		}
		charges.Add(1)
		close(entered)
		<-unblock
		return domain.PaymentOutcome{Success: true, TransactionID: "TXN-ONCE"}, nil
	})
	f := newFixture(t, gw, 5*time.Second)
	ctx := context.Background()
	f.fillCart(t, "s1", tee, "M", "white", 1)

	pending, err := f.checkout.Checkout(ctx, "s1", validInput())
	require.ErrorIs(t, err, apperrors.ErrPaymentFailed)
	approving.Store(true)

	type result struct {
		order *domain.Order
		err   error
	}
	first := make(chan result, 1)
	go func() {
		o, err := f.checkout.RetryPayment(ctx, "s1", pending.ID, validCard())
		first <- result{o, err}
	}()
	<-entered

	// The first charge is still at the gateway.
	o, err := f.checkout.RetryPayment(ctx, "s1", pending.ID, validCard())
	assert.Nil(t, o)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	close(unblock)
	res := <-first
	require.NoError(t, res.err)
	assert.Equal(t, domain.StatusPaymentConfirmed, res.order.Status)

	// Once settled, a late retry sees the paid order.
	_, err = f.checkout.RetryPayment(ctx, "s1", pending.ID, validCard())
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	assert.Equal(t, int32(1), charges.Load(), "the card is charged exactly once")
}
