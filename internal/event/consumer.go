package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
	pkgkafka "github.com/unseen32online/UNSEEN.IL/pkg/kafka"
)

// ConsumerGroupID is the Kafka consumer group of the confirmation consumer.
const ConsumerGroupID = "storefront-notifications"

// OrderReader loads the order an event refers to.
type OrderReader interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}

// Confirmer sends the confirmation messages for a paid order.
type Confirmer interface {
	SendConfirmations(ctx context.Context, o *domain.Order) error
}

// ConfirmationHandler sends order confirmations when an order's payment is
// confirmed. Wrap Handle in pkgkafka.IdempotentHandler so a redelivered
// event does not email the customer twice.
type ConfirmationHandler struct {
	orders    OrderReader
	confirmer Confirmer
	logger    *slog.Logger
}

// NewConfirmationHandler creates a new confirmation handler.
func NewConfirmationHandler(orders OrderReader, confirmer Confirmer, logger *slog.Logger) *ConfirmationHandler {
	return &ConfirmationHandler{orders: orders, confirmer: confirmer, logger: logger}
}

// Handle sends confirmations when event moves an order to payment_confirmed
// and ignores every other event.
func (h *ConfirmationHandler) Handle(ctx context.Context, event *pkgkafka.Event) error {
	if event.EventType != TopicOrderStatusChanged {
		h.logger.DebugContext(ctx, "ignoring event",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	var data OrderStatusChangedData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("decode %s: %w", event.EventType, err)
	}
	if domain.OrderStatus(data.NewStatus) != domain.StatusPaymentConfirmed {
		return nil
	}

	order, err := h.orders.GetByID(ctx, data.OrderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", data.OrderID, err)
	}
	if err := h.confirmer.SendConfirmations(ctx, order); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "order confirmation dispatched",
		slog.String("event_id", event.EventID),
		slog.String("order_number", order.OrderNumber),
	)
	return nil
}
