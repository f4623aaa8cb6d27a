package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
	"github.com/unseen32online/UNSEEN.IL/internal/repository"
	apperrors "github.com/unseen32online/UNSEEN.IL/pkg/errors"
)

// OrderEvents receives order lifecycle notifications. Implementations must
// not block for long; errors are logged and never fail the operation.
type OrderEvents interface {
	OrderCreated(ctx context.Context, o *domain.Order) error
	StatusChanged(ctx context.Context, o *domain.Order, from domain.OrderStatus) error
	PaymentFailed(ctx context.Context, o *domain.Order, reason string) error
}

type noopEvents struct{}

func (noopEvents) OrderCreated(context.Context, *domain.Order) error { return nil }
func (noopEvents) StatusChanged(context.Context, *domain.Order, domain.OrderStatus) error { return nil }
func (noopEvents) PaymentFailed(context.Context, *domain.Order, string) error { return nil }

// OrderService owns orders once created. Status changes are compare-and-swap
// writes against the status the caller observed, so of two concurrent
// changes from the same status exactly one wins.
type OrderService struct {
	repo    repository.OrderRepository
	numbers *OrderNumberGenerator
	events  OrderEvents
	logger  *slog.Logger
	now     func() time.Time
}

// NewOrderService creates an order service. events may be nil.
func NewOrderService(repo repository.OrderRepository, numbers *OrderNumberGenerator, events OrderEvents, logger *slog.Logger) *OrderService {
	if events == nil {
		events = noopEvents{}
	}
	return &OrderService{
		repo:    repo,
		numbers: numbers,
		events:  events,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateOrder persists req as a new pending_payment order. On error the
// order must be treated as not placed.
func (s *OrderService) CreateOrder(ctx context.Context, req *domain.OrderRequest) (*domain.Order, error) {
	number, err := s.numbers.Next(ctx)
	if err != nil {
		return nil, storeError("allocate order number", err)
	}

	now := s.now().UTC()
	order := &domain.Order{
		ID:              uuid.NewString(),
		OrderNumber:     number,
		Status:          domain.StatusPendingPayment,
		Customer:        req.Customer(),
		ShippingAddress: req.ShippingAddress(),
		Items:           req.Items(),
		ShippingMethod:  req.ShippingMethod(),
		Subtotal:        req.Subtotal(),
		ShippingCost:    req.ShippingCost(),
		Total:           req.Total(),
		Currency:        req.Currency(),
		Payment:         req.Payment(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, storeError("create order", err)
	}
	ordersCreatedTotal.Inc()

	if err := s.events.OrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.String("total", order.Total.StringFixed(2)),
		slog.Int("items", len(order.Items)),
	)
	return order, nil
}

// RecordPaymentOutcome confirms a pending_payment order on success. A failed
// outcome leaves the order pending so the shopper can retry, and returns
// the unchanged order.
func (s *OrderService) RecordPaymentOutcome(ctx context.Context, orderID string, outcome domain.PaymentOutcome) (*domain.Order, error) {
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !outcome.Success {
		if order.Status != domain.StatusPendingPayment {
			return nil, apperrors.InvalidTransition(string(order.Status), string(domain.StatusPaymentConfirmed))
		}
		s.logger.WarnContext(ctx, "payment not confirmed",
			slog.String("order_id", order.ID),
			slog.String("order_number", order.OrderNumber),
			slog.String("reason", outcome.Message),
		)
		if err := s.events.PaymentFailed(ctx, order, outcome.Message); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish payment failed event",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
		}
		return order, nil
	}

	return s.transition(ctx, order, domain.StatusPaymentConfirmed, outcome.TransactionID)
}

// SetStatus moves an order to status to if the lifecycle allows it.
func (s *OrderService) SetStatus(ctx context.Context, orderID string, to domain.OrderStatus) (*domain.Order, error) {
	if !to.Valid() {
		return nil, apperrors.InvalidInput("unknown order status " + string(to))
	}
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, to, "")
}

func (s *OrderService) transition(ctx context.Context, order *domain.Order, to domain.OrderStatus, transactionID string) (*domain.Order, error) {
	from := order.Status
	if !from.CanTransitionTo(to) {
		orderTransitionsTotal.WithLabelValues(string(to), "rejected").Inc()
		s.logger.WarnContext(ctx, "invalid order status transition",
			slog.String("order_id", order.ID),
			slog.String("from", string(from)),
			slog.String("to", string(to)),
		)
		return nil, apperrors.InvalidTransition(string(from), string(to))
	}

	now := s.now().UTC()
	err := s.repo.UpdateStatus(ctx, repository.StatusChange{
		OrderID:       order.ID,
		From:          from,
		To:            to,
		TransactionID: transactionID,
		At:            now,
	})
	if errors.Is(err, apperrors.ErrConflict) {
		orderTransitionsTotal.WithLabelValues(string(to), "conflict").Inc()
		return nil, s.lostRace(ctx, order.ID, to)
	}
	if err != nil {
		return nil, storeError("update order status", err)
	}
	orderTransitionsTotal.WithLabelValues(string(to), "applied").Inc()

	order.Status = to
	order.UpdatedAt = now
	if transactionID != "" {
		order.Payment.TransactionID = transactionID
	}

	if err := s.events.StatusChanged(ctx, order, from); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish status changed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status changed",
		slog.String("order_id", order.ID),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
	return order, nil
}

// lostRace reports a status write that another writer beat. If the order's
// new status still allows the move the caller may retry (Conflict);
// otherwise the move is no longer legal (InvalidTransition).
func (s *OrderService) lostRace(ctx context.Context, orderID string, to domain.OrderStatus) error {
	latest, err := s.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	s.logger.WarnContext(ctx, "order status changed concurrently",
		slog.String("order_id", orderID),
		slog.String("current", string(latest.Status)),
		slog.String("to", string(to)),
	)
	if latest.Status.CanTransitionTo(to) {
		return apperrors.Conflict("order " + orderID + " was modified concurrently, retry")
	}
	return apperrors.InvalidTransition(string(latest.Status), string(to))
}

func (s *OrderService) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("load order", err)
	}
	return order, nil
}

// GetByNumber matches the order number exactly, case included.
func (s *OrderService) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	if orderNumber == "" {
		return nil, apperrors.InvalidInput("order number is required")
	}
	order, err := s.repo.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, storeError("load order", err)
	}
	return order, nil
}

// List returns orders newest first. filter.Limit must be positive.
func (s *OrderService) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, error) {
	if filter.Limit <= 0 {
		return nil, apperrors.InvalidInput("limit must be positive")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.InvalidInput("unknown order status " + string(filter.Status))
	}
	filter.CustomerEmail = strings.TrimSpace(filter.CustomerEmail)

	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storeError("list orders", err)
	}
	return orders, nil
}

// UpdateOrderInput is an operator edit. Nil fields are left unchanged.
type UpdateOrderInput struct {
	Status         *domain.OrderStatus
	Notes          *string
	TrackingNumber *string
}

// UpdateOrder applies the status change first, so a rejected transition
// leaves notes and tracking number untouched.
func (s *OrderService) UpdateOrder(ctx context.Context, id string, in UpdateOrderInput) (*domain.Order, error) {
	if in.Status == nil && in.Notes == nil && in.TrackingNumber == nil {
		return nil, apperrors.InvalidInput("nothing to update")
	}

	if in.Status != nil {
		if _, err := s.SetStatus(ctx, id, *in.Status); err != nil {
			return nil, err
		}
	}

	if in.Notes != nil || in.TrackingNumber != nil {
		err := s.repo.UpdateDetails(ctx, id, repository.DetailsUpdate{
			Notes:          in.Notes,
			TrackingNumber: in.TrackingNumber,
			At:             s.now().UTC(),
		})
		if err != nil {
			return nil, storeError("update order", err)
		}
	}

	return s.GetByID(ctx, id)
}
