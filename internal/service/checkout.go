package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
	"github.com/unseen32online/UNSEEN.IL/internal/payment"
	apperrors "github.com/unseen32online/UNSEEN.IL/pkg/errors"
	"github.com/unseen32online/UNSEEN.IL/pkg/tracing"
)

const (
	msgPaymentTimedOut    = "payment timed out"
	msgPaymentUnavailable = "payment could not be processed, please try again"
	msgPaymentDeclined    = "payment was declined"
)

// CheckoutService runs a full checkout: compile the session's cart, create
// the order, charge the card and record the outcome. The cart is cleared
// only after the charge succeeds.
type CheckoutService struct {
	carts    *CartService
	compiler *Compiler
	orders   *OrderService
	gateway  payment.Gateway
	timeout  time.Duration
	logger   *slog.Logger

	// Orders with a charge in flight. Guards against two retries of the
	// same order both reaching the gateway.
	mu       sync.Mutex
	charging map[string]struct{}
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(carts *CartService, compiler *Compiler, orders *OrderService,
	gateway payment.Gateway, timeout time.Duration, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		compiler: compiler,
		orders:   orders,
		gateway:  gateway,
		timeout:  timeout,
		logger:   logger,
		charging: make(map[string]struct{}),
	}
}

// claim marks orderID as being charged. It reports false when another
// attempt already holds it.
func (s *CheckoutService) claim(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.charging[orderID]; busy {
		return false
	}
	s.charging[orderID] = struct{}{}
	return true
}

func (s *CheckoutService) release(orderID string) {
	s.mu.Lock()
	delete(s.charging, orderID)
	s.mu.Unlock()
}

// Checkout returns the created order in every case where one was created.
// A declined or timed out payment yields the pending order together with a
// PaymentFailed error carrying the message to show the shopper.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID string, in CheckoutInput) (order *domain.Order, err error) {
	ctx, end := tracing.StartSpan(ctx, "checkout.Checkout")
	defer func() { end(err) }()

	ledger, err := s.carts.Open(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	req, err := s.compiler.Compile(ledger.Snapshot(), in)
	if err != nil {
		checkoutsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	order, err = s.orders.CreateOrder(ctx, req)
	if err != nil {
		checkoutsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	s.claim(order.ID)
	defer s.release(order.ID)
	return s.settle(ctx, ledger, order, in.Payment)
}

// RetryPayment charges a new card for an order still awaiting payment. When
// sessionID is set, that session's cart is cleared on success.
func (s *CheckoutService) RetryPayment(ctx context.Context, sessionID, orderID string, instrument domain.PaymentInstrument) (order *domain.Order, err error) {
	ctx, end := tracing.StartSpan(ctx, "checkout.RetryPayment")
	defer func() { end(err) }()

	if err := firstBlank(
		requiredField{"card_number", instrument.CardNumber},
		requiredField{"cardholder_name", instrument.CardholderName},
		requiredField{"expiry", instrument.Expiry},
		requiredField{"cvv", instrument.CVV},
	); err != nil {
		return nil, err
	}

	if !s.claim(orderID) {
		return nil, apperrors.Conflict("a payment for this order is already in progress")
	}
	defer s.release(orderID)

	// Read under the claim so a retry that just settled is seen as paid.
	order, err = s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.StatusPendingPayment {
		return nil, apperrors.InvalidTransition(string(order.Status), string(domain.StatusPaymentConfirmed))
	}

	var ledger *CartLedger
	if sessionID != "" {
		if ledger, err = s.carts.Open(ctx, sessionID); err != nil {
			return nil, err
		}
	}
	return s.settle(ctx, ledger, order, instrument)
}

func (s *CheckoutService) settle(ctx context.Context, ledger *CartLedger, order *domain.Order, instrument domain.PaymentInstrument) (*domain.Order, error) {
	outcome := s.pay(ctx, order, instrument)

	recorded, err := s.orders.RecordPaymentOutcome(ctx, order.ID, outcome)
	if err != nil {
		checkoutsTotal.WithLabelValues("error").Inc()
		return order, err
	}

	if !outcome.Success {
		checkoutsTotal.WithLabelValues("payment_failed").Inc()
		return recorded, apperrors.PaymentFailed(outcome.Message)
	}
	checkoutsTotal.WithLabelValues("paid").Inc()

	if ledger != nil {
		if err := ledger.Clear(ctx); err != nil {
			s.logger.ErrorContext(ctx, "failed to clear cart after checkout",
				slog.String("session_id", ledger.SessionID()),
				slog.String("order_id", recorded.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return recorded, nil
}

type gatewayResult struct {
	outcome domain.PaymentOutcome
	err     error
}

// pay calls the gateway under the checkout timeout and folds every failure
// mode, a panicking adapter included, into a declined outcome with a
// shopper-facing message. The call returns at the deadline even if the
// gateway ignores its context.
func (s *CheckoutService) pay(ctx context.Context, order *domain.Order, instrument domain.PaymentInstrument) domain.PaymentOutcome {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	charge := payment.Charge{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Amount:      order.Total,
		Currency:    order.Currency,
		Instrument:  instrument,
	}

	start := time.Now()
	done := make(chan gatewayResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- gatewayResult{err: fmt.Errorf("gateway panic: %v", r)}
			}
		}()
		outcome, err := s.gateway.Process(ctx, charge)
		done <- gatewayResult{outcome: outcome, err: err}
	}()

	var res gatewayResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = gatewayResult{err: ctx.Err()}
	}

	var outcome domain.PaymentOutcome
	switch {
	case res.err != nil && (errors.Is(res.err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)):
		paymentDuration.WithLabelValues("timeout").Observe(time.Since(start).Seconds())
		outcome = domain.PaymentOutcome{Message: msgPaymentTimedOut}
	case res.err != nil:
		paymentDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		outcome = domain.PaymentOutcome{Message: msgPaymentUnavailable}
	case !res.outcome.Success:
		paymentDuration.WithLabelValues("declined").Observe(time.Since(start).Seconds())
		outcome = res.outcome
		outcome.TransactionID = ""
		if outcome.Message == "" {
			outcome.Message = msgPaymentDeclined
		}
	default:
		paymentDuration.WithLabelValues("approved").Observe(time.Since(start).Seconds())
		outcome = res.outcome
	}

	if res.err != nil {
		s.logger.WarnContext(ctx, "payment gateway call failed",
			slog.String("gateway", s.gateway.Name()),
			slog.String("order_id", order.ID),
			slog.String("card", instrument.Masked()),
			slog.String("error", res.err.Error()),
		)
	}
	return outcome
}
