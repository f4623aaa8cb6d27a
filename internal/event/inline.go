package event

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	pkgkafka "github.com/unseen32online/UNSEEN.IL/pkg/kafka"
)

// InlinePublisher delivers events to in-process handlers synchronously. It
// stands in for Kafka when no brokers are configured.
type InlinePublisher struct {
	mu       sync.RWMutex
	handlers map[string][]pkgkafka.Handler
	logger   *slog.Logger
}

// NewInlinePublisher creates a publisher with no subscribers.
func NewInlinePublisher(logger *slog.Logger) *InlinePublisher {
	return &InlinePublisher{handlers: make(map[string][]pkgkafka.Handler), logger: logger}
}

// Subscribe registers h for topic.
func (p *InlinePublisher) Subscribe(topic string, h pkgkafka.Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[topic] = append(p.handlers[topic], h)
}

// Publish runs every handler for topic and joins their errors. The event
// is passed through a marshal round trip so handlers see what a Kafka
// consumer would.
func (p *InlinePublisher) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	p.mu.RLock()
	handlers := p.handlers[topic]
	p.mu.RUnlock()
	if len(handlers) == 0 {
		return nil
	}

	data, err := event.Marshal()
	if err != nil {
		return err
	}

	var errs []error
	for _, h := range handlers {
		delivered, err := pkgkafka.UnmarshalEvent(data)
		if err != nil {
			return err
		}
		if err := h(ctx, delivered); err != nil {
			p.logger.ErrorContext(ctx, "inline event handler failed",
				slog.String("topic", topic),
				slog.String("event_id", event.EventID),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
