package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
	"github.com/unseen32online/UNSEEN.IL/internal/repository"
)

// CartLedger is one shopping session's cart bound to durable storage. Every
// mutation writes the whole cart back before returning. A ledger is not safe
// for concurrent use; a session drives it sequentially.
type CartLedger struct {
	sessionID string
	cart      *domain.Cart
	store     repository.CartStore
	logger    *slog.Logger
}

// OpenCartLedger rehydrates the session's cart. A missing or unreadable blob
// yields an empty cart; only a store failure is an error.
func OpenCartLedger(ctx context.Context, store repository.CartStore, sessionID string, logger *slog.Logger) (*CartLedger, error) {
	l := &CartLedger{
		sessionID: sessionID,
		cart:      &domain.Cart{},
		store:     store,
		logger:    logger,
	}

	blob, err := store.Load(ctx, sessionID)
	if err != nil {
		return nil, storeError("load cart", err)
	}
	if len(blob) == 0 {
		return l, nil
	}

	cart, err := domain.DecodeCart(blob)
	if err != nil {
		logger.WarnContext(ctx, "discarding unreadable cart",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return l, nil
	}
	l.cart = cart
	return l, nil
}

func (l *CartLedger) persist(ctx context.Context) error {
	if l.cart.IsEmpty() {
		if err := l.store.Delete(ctx, l.sessionID); err != nil {
			return storeError("save cart", err)
		}
		return nil
	}

	blob, err := json.Marshal(l.cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := l.store.Save(ctx, l.sessionID, blob); err != nil {
		return storeError("save cart", err)
	}
	return nil
}

func (l *CartLedger) Add(ctx context.Context, p domain.Product, size, color string) error {
	l.cart.Add(p, size, color)
	return l.persist(ctx)
}

func (l *CartLedger) Remove(ctx context.Context, key domain.ItemKey) error {
	l.cart.Remove(key)
	return l.persist(ctx)
}

func (l *CartLedger) SetQuantity(ctx context.Context, key domain.ItemKey, quantity int) error {
	l.cart.SetQuantity(key, quantity)
	return l.persist(ctx)
}

func (l *CartLedger) Clear(ctx context.Context) error {
	l.cart.Clear()
	return l.persist(ctx)
}

func (l *CartLedger) SessionID() string { return l.sessionID }

func (l *CartLedger) Items() []domain.LineItem { return l.cart.Items() }

func (l *CartLedger) Total() decimal.Decimal { return l.cart.Total() }

func (l *CartLedger) Count() int { return l.cart.Count() }

func (l *CartLedger) IsEmpty() bool { return l.cart.IsEmpty() }

// Snapshot returns an independent copy of the current cart.
func (l *CartLedger) Snapshot() *domain.Cart {
	return domain.NewCart(l.cart.Items())
}
