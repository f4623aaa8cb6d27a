package postgres

import (
	"context"
	"fmt"

	"github.com/unseen32online/UNSEEN.IL/pkg/database"
)

const nextSequenceQuery = `
	INSERT INTO order_number_sequences (day, last_value)
	VALUES ($1, 1)
	ON CONFLICT (day) DO UPDATE
	SET last_value = order_number_sequences.last_value + 1, updated_at = NOW()
	RETURNING last_value`

// OrderNumberSequence hands out per-day counters. The upsert is atomic, so
// concurrent callers on the same day never share a value.
type OrderNumberSequence struct {
	pool database.DBTX
}

// NewOrderNumberSequence creates a per-day counter backed by PostgreSQL.
func NewOrderNumberSequence(pool database.DBTX) *OrderNumberSequence {
	return &OrderNumberSequence{pool: pool}
}

// Next increments and returns the counter for day, starting at 1.
func (s *OrderNumberSequence) Next(ctx context.Context, day string) (n int64, err error) {
	ctx, end := database.TraceQuery(ctx, "NextOrderNumber", nextSequenceQuery)
	defer func() { end(err) }()

	if err = s.pool.QueryRow(ctx, nextSequenceQuery, day).Scan(&n); err != nil {
		return 0, fmt.Errorf("next order sequence for %s: %w", day, err)
	}
	return n, nil
}
