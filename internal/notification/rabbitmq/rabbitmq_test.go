package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unseen32online/UNSEEN.IL/internal/notification"
)

type published struct {
	key string
	msg amqp.Publishing
}

type fakeChannel struct {
	declared   []string
	declareErr error
	publishErr error
	published  []published
	closed     bool
}

func (c *fakeChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	if c.declareErr != nil {
		return amqp.Queue{}, c.declareErr
	}
	if durable {
		c.declared = append(c.declared, name)
	}
	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	if c.publishErr != nil {
		return c.publishErr
	}
	c.published = append(c.published, published{key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestSender_Send(t *testing.T) {
	ch := &fakeChannel{}
	s, err := newSender(ch, "notifications.email")
	require.NoError(t, err)
	assert.Equal(t, []string{"notifications.email"}, ch.declared)

	msg := notification.Message{
		Kind:        notification.KindOwnerAlert,
		To:          "owner@unseen.co.il",
		Subject:     "New order",
		OrderID:     "o-1",
		OrderNumber: "ORD-20260314-000001-beef",
	}
	require.NoError(t, s.Send(context.Background(), msg))

	require.Len(t, ch.published, 1)
	got := ch.published[0]
	assert.Equal(t, "notifications.email", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, "o-1:owner_alert", got.msg.MessageId)

	var decoded notification.Message
	require.NoError(t, json.Unmarshal(got.msg.Body, &decoded))
	assert.Equal(t, msg, decoded)

	require.NoError(t, s.Close())
	assert.True(t, ch.closed)
}

func TestSender_Errors(t *testing.T) {
	boom := errors.New("channel/connection is not open")

	_, err := newSender(&fakeChannel{declareErr: boom}, "q")
	assert.ErrorIs(t, err, boom)

	s, err := newSender(&fakeChannel{publishErr: boom}, "q")
	require.NoError(t, err)
	err = s.Send(context.Background(), notification.Message{Kind: notification.KindCustomerConfirmation})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "publish to q")
}
