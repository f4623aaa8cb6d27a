package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unseen32online/UNSEEN.IL/internal/notification"
)

func TestSender_Send(t *testing.T) {
	var buf bytes.Buffer
	s := NewSender(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := s.Send(context.Background(), notification.Message{
		Kind:        notification.KindCustomerConfirmation,
		To:          "noa@example.com",
		Subject:     "Your UNSEEN order is confirmed",
		OrderNumber: "ORD-20260314-000001-beef",
	})
	require.NoError(t, err)
	assert.Equal(t, "log", s.Name())
	assert.Contains(t, buf.String(), `"order_number":"ORD-20260314-000001-beef"`)
	assert.Contains(t, buf.String(), `"kind":"customer_confirmation"`)
}

func TestSender_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewSender(slog.Default()).Send(ctx, notification.Message{})
	assert.ErrorIs(t, err, context.Canceled)
}
