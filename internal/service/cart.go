package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
	"github.com/unseen32online/UNSEEN.IL/internal/repository"
	apperrors "github.com/unseen32online/UNSEEN.IL/pkg/errors"
	"github.com/unseen32online/UNSEEN.IL/pkg/logger"
)

// CartService opens a session's ledger per request and checks catalog
// constraints before anything reaches the cart.
type CartService struct {
	store    repository.CartStore
	products repository.ProductRepository
	logger   *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(store repository.CartStore, products repository.ProductRepository, logger *slog.Logger) *CartService {
	return &CartService{store: store, products: products, logger: logger}
}

// Open loads the ledger for sessionID.
func (s *CartService) Open(ctx context.Context, sessionID string) (*CartLedger, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	return OpenCartLedger(ctx, s.store, sessionID, logger.WithContext(ctx, s.logger))
}

// purchasable resolves productID and checks that the variant can be sold.
func (s *CartService) purchasable(ctx context.Context, productID, size, color string) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown product %q", productID))
		}
		return nil, storeError("load product", err)
	}
	if !p.InStock {
		return nil, apperrors.InvalidInput(fmt.Sprintf("%s is out of stock", p.Name))
	}
	if !p.Offers(size, color) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("%s is not available in size %q and color %q", p.Name, size, color))
	}
	return p, nil
}

// Get returns the session's cart. A session with no stored cart gets an
// empty one.
func (s *CartService) Get(ctx context.Context, sessionID string) (*CartLedger, error) {
	return s.Open(ctx, sessionID)
}

// AddItem adds one unit of the product in the given size and color. The
// product must exist, be in stock and offer that size and color.
func (s *CartService) AddItem(ctx context.Context, sessionID, productID, size, color string) (*CartLedger, error) {
	p, err := s.purchasable(ctx, productID, size, color)
	if err != nil {
		return nil, err
	}
	l, err := s.Open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := l.Add(ctx, *p, size, color); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "cart item added",
		slog.String("session_id", l.SessionID()),
		slog.String("product_id", p.ID),
		slog.Int("count", l.Count()),
	)
	return l, nil
}

// SetQuantity overwrites the quantity of an entry; zero removes it.
func (s *CartService) SetQuantity(ctx context.Context, sessionID string, key domain.ItemKey, quantity int) (*CartLedger, error) {
	l, err := s.Open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := l.SetQuantity(ctx, key, quantity); err != nil {
		return nil, err
	}
	return l, nil
}

// RemoveItem deletes an entry from the cart.
func (s *CartService) RemoveItem(ctx context.Context, sessionID string, key domain.ItemKey) (*CartLedger, error) {
	l, err := s.Open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := l.Remove(ctx, key); err != nil {
		return nil, err
	}
	return l, nil
}

// Clear empties the session's cart.
func (s *CartService) Clear(ctx context.Context, sessionID string) (*CartLedger, error) {
	l, err := s.Open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := l.Clear(ctx); err != nil {
		return nil, err
	}
	return l, nil
}
