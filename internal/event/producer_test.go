package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
	pkgkafka "github.com/unseen32online/UNSEEN.IL/pkg/kafka"
	"github.com/unseen32online/UNSEEN.IL/pkg/logger"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type publishedEvent struct {
	topic string
	event *pkgkafka.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event *pkgkafka.Event) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, event: event})
	return nil
}

func paidOrder() *domain.Order {
	return &domain.Order{
		ID:          "8c0d2a8e-55f4-4d0b-8e27-2a1f0d3b9c10",
		OrderNumber: "ORD-20260314-000003-c0de",
		Status:      domain.StatusPendingPayment,
		Customer:    domain.CustomerInfo{FirstName: "Dana", Email: "dana@example.com"},
		Items: []domain.LineItem{
			{ProductID: "unseen-tee-white", Name: "UNSEEN Heavyweight Tee", UnitPrice: decimal.RequireFromString("129.90"), Size: "M", Color: "white", Quantity: 2},
		},
		ShippingMethod: domain.ShippingExpress,
		Subtotal:       decimal.RequireFromString("259.80"),
		ShippingCost:   decimal.RequireFromString("60"),
		Total:          decimal.RequireFromString("319.80"),
		Currency:       "ILS",
	}
}

func TestProducer_OrderCreated(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewProducer(pub, discardLogger())
	ctx := logger.WithCorrelationID(context.Background(), "corr-42")

	require.NoError(t, p.OrderCreated(ctx, paidOrder()))

	require.Len(t, pub.events, 1)
	got := pub.events[0]
	assert.Equal(t, TopicOrderCreated, got.topic)
	assert.Equal(t, "storefront.order.created", got.event.EventType)
	assert.Equal(t, AggregateTypeOrder, got.event.AggregateType)
	assert.Equal(t, "8c0d2a8e-55f4-4d0b-8e27-2a1f0d3b9c10", got.event.AggregateID)
	assert.Equal(t, "corr-42", got.event.CorrelationID)

	var data OrderCreatedData
	require.NoError(t, got.event.UnmarshalData(&data))
	assert.Equal(t, int64(25980), data.SubtotalMinor)
	assert.Equal(t, int64(6000), data.ShippingCostMinor)
	assert.Equal(t, int64(31980), data.TotalMinor)
	require.Len(t, data.Items, 1)
	assert.Equal(t, int64(12990), data.Items[0].UnitPriceMinor)
	assert.Equal(t, "dana@example.com", data.CustomerEmail)
}

func TestProducer_StatusChangedAndPaymentFailed(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewProducer(pub, discardLogger())
	ctx := context.Background()
	o := paidOrder()

	require.NoError(t, p.PaymentFailed(ctx, o, "insufficient funds"))
	o.Status = domain.StatusPaymentConfirmed
	require.NoError(t, p.StatusChanged(ctx, o, domain.StatusPendingPayment))

	require.Len(t, pub.events, 2)
	assert.Equal(t, TopicOrderPaymentFailed, pub.events[0].topic)
	var failed OrderPaymentFailedData
	require.NoError(t, pub.events[0].event.UnmarshalData(&failed))
	assert.Equal(t, "insufficient funds", failed.Reason)

	assert.Equal(t, TopicOrderStatusChanged, pub.events[1].topic)
	var changed OrderStatusChangedData
	require.NoError(t, pub.events[1].event.UnmarshalData(&changed))
	assert.Equal(t, OrderStatusChangedData{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		OldStatus:   "pending_payment",
		NewStatus:   "payment_confirmed",
	}, changed)
}

func TestProducer_PublishError(t *testing.T) {
	boom := errors.New("kafka: leader not available")
	p := NewProducer(&recordingPublisher{err: boom}, discardLogger())

	err := p.OrderCreated(context.Background(), paidOrder())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "publish storefront.order.created event")
}

func TestProducer_CarriesSessionAndCorrelation(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewProducer(pub, discardLogger())
	ctx := logger.WithSessionID(logger.WithCorrelationID(context.Background(), "corr-7"), "sess-42")

	require.NoError(t, p.OrderCreated(ctx, paidOrder()))
	require.NoError(t, p.OrderCreated(context.Background(), paidOrder()))

	require.Len(t, pub.events, 2)
	assert.Equal(t, "corr-7", pub.events[0].event.CorrelationID)
	assert.Equal(t, "sess-42", pub.events[0].event.Metadata[MetadataSessionID])
	assert.NotContains(t, pub.events[1].event.Metadata, MetadataSessionID)
}
