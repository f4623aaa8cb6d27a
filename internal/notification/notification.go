// Package notification builds and sends order confirmation messages.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
)

// Message kinds.
const (
	KindCustomerConfirmation = "customer_confirmation"
	KindOwnerAlert           = "owner_alert"
)

// Message is one outbound email.
type Message struct {
	Kind        string `json:"kind"`
	To          string `json:"to"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
}

// Sender delivers messages through one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// BuildConfirmations returns the customer confirmation and, when ownerEmail
// is set, the store owner's new-order alert.
func BuildConfirmations(o *domain.Order, ownerEmail string) []Message {
	msgs := []Message{{
		Kind:        KindCustomerConfirmation,
		To:          o.Customer.Email,
		Subject:     fmt.Sprintf("Your UNSEEN order %s is confirmed", o.OrderNumber),
		Body:        customerBody(o),
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
	}}
	if ownerEmail != "" {
		msgs = append(msgs, Message{
			Kind:        KindOwnerAlert,
			To:          ownerEmail,
			Subject:     fmt.Sprintf("New order %s (%s)", o.OrderNumber, money(o.Currency, o.Total)),
			Body:        ownerBody(o),
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
		})
	}
	return msgs
}

func customerBody(o *domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThanks for your order. We're getting it ready.\n\n", o.Customer.FirstName)
	writeSummary(&b, o)
	fmt.Fprintf(&b, "\nShipping to: %s, %s %s, %s\n",
		o.ShippingAddress.Street, o.ShippingAddress.City, o.ShippingAddress.PostalCode, o.ShippingAddress.Country)
	return b.String()
}

func ownerBody(o *domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Customer: %s <%s> %s\n", o.Customer.FullName(), o.Customer.Email, o.Customer.Phone)
	fmt.Fprintf(&b, "Payment: card ending %s, transaction %s\n\n", o.Payment.CardLastFour, o.Payment.TransactionID)
	writeSummary(&b, o)
	return b.String()
}

func writeSummary(b *strings.Builder, o *domain.Order) {
	fmt.Fprintf(b, "Order %s\n", o.OrderNumber)
	for _, li := range o.Items {
		variant := strings.TrimSpace(li.Size + " " + li.Color)
		if variant != "" {
			variant = " (" + variant + ")"
		}
		fmt.Fprintf(b, "  %d x %s%s  %s\n", li.Quantity, li.Name, variant, money(o.Currency, li.LineTotal()))
	}
	fmt.Fprintf(b, "Subtotal: %s\n", money(o.Currency, o.Subtotal))
	fmt.Fprintf(b, "Shipping (%s): %s\n", o.ShippingMethod, money(o.Currency, o.ShippingCost))
	fmt.Fprintf(b, "Total: %s\n", money(o.Currency, o.Total))
}

func money(code string, d decimal.Decimal) string {
	unit, err := domain.ParseCurrency(code)
	if err != nil {
		return code + " " + domain.RoundMoney(d).StringFixed(2)
	}
	return domain.FormatMoney(unit, d)
}

// Notifier sends order confirmations through a Sender.
type Notifier struct {
	sender     Sender
	ownerEmail string
	logger     *slog.Logger
}

// NewNotifier creates a new notifier. An empty ownerEmail disables the
// owner alert.
func NewNotifier(sender Sender, ownerEmail string, logger *slog.Logger) *Notifier {
	return &Notifier{sender: sender, ownerEmail: ownerEmail, logger: logger}
}

// SendConfirmations attempts every message even if an earlier one fails and
// returns the joined errors.
func (n *Notifier) SendConfirmations(ctx context.Context, o *domain.Order) error {
	var errs []error
	for _, msg := range BuildConfirmations(o, n.ownerEmail) {
		if err := n.sender.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("send %s for order %s: %w", msg.Kind, o.OrderNumber, err))
			continue
		}
		n.logger.InfoContext(ctx, "order confirmation sent",
			slog.String("sender", n.sender.Name()),
			slog.String("kind", msg.Kind),
			slog.String("order_number", o.OrderNumber),
		)
	}
	return errors.Join(errs...)
}
