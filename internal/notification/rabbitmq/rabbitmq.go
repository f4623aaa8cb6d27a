// Package rabbitmq publishes notification messages as durable jobs on a
// RabbitMQ queue, where a mail worker picks them up.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/unseen32online/UNSEEN.IL/internal/notification"
)

const publishTimeout = 3 * time.Second

type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Sender struct {
	ch    channel
	queue string
}

// NewSender opens a channel on conn and declares queue so publishing never
// fails on missing infrastructure.
func NewSender(conn *amqp.Connection, queue string) (*Sender, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	s, err := newSender(ch, queue)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	return s, nil
}

func newSender(ch channel, queue string) (*Sender, error) {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare %s: %w", queue, err)
	}
	return &Sender{ch: ch, queue: queue}, nil
}

func (s *Sender) Name() string {
	return "rabbitmq"
}

// Send publishes msg as a persistent JSON job on the queue.
func (s *Sender) Send(ctx context.Context, msg notification.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Kind, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = s.ch.PublishWithContext(pubCtx,
		"",      // default exchange
		s.queue, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.OrderID + ":" + msg.Kind,
			Timestamp:    time.Now().UTC(),
			Type:         msg.Kind,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", s.queue, err)
	}
	return nil
}

// Close closes the channel. The connection belongs to the caller.
func (s *Sender) Close() error {
	return s.ch.Close()
}
