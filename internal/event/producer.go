package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
	pkgkafka "github.com/unseen32online/UNSEEN.IL/pkg/kafka"
	"github.com/unseen32online/UNSEEN.IL/pkg/logger"
)

// MetadataSessionID names the event metadata entry carrying the shopping
// session that triggered the event, when there is one.
const MetadataSessionID = "session_id"

// Kafka topics for order events. The event type equals the topic.
const (
	TopicOrderCreated       = pkgkafka.TopicPrefix + ".order.created"
	TopicOrderStatusChanged = pkgkafka.TopicPrefix + ".order.status_changed"
	TopicOrderPaymentFailed = pkgkafka.TopicPrefix + ".order.payment_failed"
)

const (
	AggregateTypeOrder = "order"
	SourceStorefront   = "storefront"
)

// OrderItemData is an order line in event payloads. Amounts are minor units.
type OrderItemData struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	Size           string `json:"size,omitempty"`
	Color          string `json:"color,omitempty"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	Quantity       int    `json:"quantity"`
}

type OrderCreatedData struct {
	ID                string          `json:"id"`
	OrderNumber       string          `json:"order_number"`
	Status            string          `json:"status"`
	CustomerEmail     string          `json:"customer_email"`
	Items             []OrderItemData `json:"items"`
	ShippingMethod    string          `json:"shipping_method"`
	SubtotalMinor     int64           `json:"subtotal_minor"`
	ShippingCostMinor int64           `json:"shipping_cost_minor"`
	TotalMinor        int64           `json:"total_minor"`
	Currency          string          `json:"currency"`
}

type OrderStatusChangedData struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	OldStatus   string `json:"old_status"`
	NewStatus   string `json:"new_status"`
}

type OrderPaymentFailedData struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Reason      string `json:"reason"`
}

// Publisher is satisfied by *pkgkafka.Producer and *InlinePublisher.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes order lifecycle events. It implements
// service.OrderEvents.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new order event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

// OrderCreated publishes storefront.order.created.
func (p *Producer) OrderCreated(ctx context.Context, o *domain.Order) error {
	items := make([]OrderItemData, len(o.Items))
	for i, li := range o.Items {
		items[i] = OrderItemData{
			ProductID:      li.ProductID,
			Name:           li.Name,
			Size:           li.Size,
			Color:          li.Color,
			UnitPriceMinor: domain.ToMinorUnits(li.UnitPrice),
			Quantity:       li.Quantity,
		}
	}
	data := OrderCreatedData{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		Status:            string(o.Status),
		CustomerEmail:     o.Customer.Email,
		Items:             items,
		ShippingMethod:    string(o.ShippingMethod),
		SubtotalMinor:     domain.ToMinorUnits(o.Subtotal),
		ShippingCostMinor: domain.ToMinorUnits(o.ShippingCost),
		TotalMinor:        domain.ToMinorUnits(o.Total),
		Currency:          o.Currency,
	}
	return p.publish(ctx, TopicOrderCreated, o.ID, data)
}

// StatusChanged publishes storefront.order.status_changed.
func (p *Producer) StatusChanged(ctx context.Context, o *domain.Order, from domain.OrderStatus) error {
	return p.publish(ctx, TopicOrderStatusChanged, o.ID, OrderStatusChangedData{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		OldStatus:   string(from),
		NewStatus:   string(o.Status),
	})
}

// PaymentFailed publishes storefront.order.payment_failed.
func (p *Producer) PaymentFailed(ctx context.Context, o *domain.Order, reason string) error {
	return p.publish(ctx, TopicOrderPaymentFailed, o.ID, OrderPaymentFailedData{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Reason:      reason,
	})
}

func (p *Producer) publish(ctx context.Context, topic, orderID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, orderID, AggregateTypeOrder, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event = event.WithCorrelationID(id)
	}
	if id := logger.SessionIDFromContext(ctx); id != "" {
		event = event.WithMetadata(MetadataSessionID, id)
	}

	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published order event",
		slog.String("topic", topic),
		slog.String("event_id", event.EventID),
		slog.String("order_id", orderID),
	)
	return nil
}
