// Package log provides a Sender that writes messages to the service log
// instead of delivering them. It is the default when no broker is
// configured.
package log

import (
	"context"
	"log/slog"

	"github.com/unseen32online/UNSEEN.IL/internal/notification"
)

type Sender struct {
	logger *slog.Logger
}

// NewSender creates a sender that writes messages to logger.
func NewSender(logger *slog.Logger) *Sender {
	return &Sender{logger: logger}
}

func (s *Sender) Name() string {
	return "log"
}

func (s *Sender) Send(ctx context.Context, msg notification.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "notification logged",
		slog.String("kind", msg.Kind),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("order_number", msg.OrderNumber),
	)
	return nil
}
