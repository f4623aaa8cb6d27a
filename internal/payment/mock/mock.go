package mock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
	"github.com/unseen32online/UNSEEN.IL/internal/payment"
)

const (
	minCardDigits = 13
	maxCardDigits = 19
)

// Gateway approves any well-formed card. It is meant for development and
// tests: a card number outside 13-19 digits or a CVV that is not 3-4
// digits is declined.
type Gateway struct{}

// NewGateway creates a new mock gateway.
func NewGateway() *Gateway {
	return &Gateway{}
}

func (g *Gateway) Name() string {
	return "mock"
}

func (g *Gateway) Process(ctx context.Context, charge payment.Charge) (domain.PaymentOutcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.PaymentOutcome{}, err
	}

	digits := charge.Instrument.Digits()
	if len(digits) < minCardDigits || len(digits) > maxCardDigits || !allDigits(digits) {
		return domain.PaymentOutcome{Message: "card number is invalid"}, nil
	}
	cvv := strings.TrimSpace(charge.Instrument.CVV)
	if len(cvv) < 3 || len(cvv) > 4 || !allDigits(cvv) {
		return domain.PaymentOutcome{Message: "CVV is invalid"}, nil
	}

	var id [8]byte
	if _, err := rand.Read(id[:]); err != nil {
		return domain.PaymentOutcome{}, err
	}
	return domain.PaymentOutcome{
		Success:       true,
		Message:       "approved",
		TransactionID: "TXN-" + strings.ToUpper(hex.EncodeToString(id[:])),
	}, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
