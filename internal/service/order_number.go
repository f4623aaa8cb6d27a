package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/unseen32online/UNSEEN.IL/internal/repository"
)

// OrderNumberGenerator issues numbers of the form PREFIX-YYYYMMDD-NNNNNN-xxxx:
// the UTC day, that day's sequence value and two random bytes in hex. The
// sequence makes numbers unique; the suffix makes them hard to guess.
type OrderNumberGenerator struct {
	prefix  string
	seq     repository.OrderNumberSequence
	now     func() time.Time
	entropy io.Reader
}

func NewOrderNumberGenerator(prefix string, seq repository.OrderNumberSequence) *OrderNumberGenerator {
	return &OrderNumberGenerator{
		prefix:  prefix,
		seq:     seq,
		now:     time.Now,
		entropy: rand.Reader,
	}
}

func (g *OrderNumberGenerator) Next(ctx context.Context) (string, error) {
	day := g.now().UTC().Format("20060102")

	n, err := g.seq.Next(ctx, day)
	if err != nil {
		return "", fmt.Errorf("next sequence value: %w", err)
	}

	var suffix [2]byte
	if _, err := io.ReadFull(g.entropy, suffix[:]); err != nil {
		return "", fmt.Errorf("read order number suffix: %w", err)
	}
	return fmt.Sprintf("%s-%s-%06d-%s", g.prefix, day, n, hex.EncodeToString(suffix[:])), nil
}
