package repository

import (
	"context"
	"time"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
)

// OrderFilter narrows List. Zero values mean "any".
type OrderFilter struct {
	Status        domain.OrderStatus
	CustomerEmail string
	Limit         int
}

// StatusChange is a compare-and-swap status update: it applies only while
// the stored status still equals From.
type StatusChange struct {
	OrderID       string
	From          domain.OrderStatus
	To            domain.OrderStatus
	TransactionID string
	At            time.Time
}

// DetailsUpdate changes operator-editable fields. Nil fields are left as is.
type DetailsUpdate struct {
	Notes          *string
	TrackingNumber *string
	At             time.Time
}

// OrderRepository persists orders. Implementations return apperrors
// NotFound for missing orders and Conflict when a StatusChange finds the
// order in a status other than From.
type OrderRepository interface {
	// Create stores the order and its line items atomically.
	Create(ctx context.Context, order *domain.Order) error

	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetByNumber matches the order number exactly, case-sensitive.
	GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)

	// List returns matching orders, newest first, at most filter.Limit.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)

	// ListAll returns every order, newest first.
	ListAll(ctx context.Context) ([]domain.Order, error)

	UpdateStatus(ctx context.Context, change StatusChange) error

	UpdateDetails(ctx context.Context, id string, update DetailsUpdate) error
}

// OrderNumberSequence hands out a strictly increasing counter per day key.
type OrderNumberSequence interface {
	Next(ctx context.Context, day string) (int64, error)
}

// CartStore keeps one opaque cart blob per shopping session. Load returns
// nil, nil when the session has no stored cart.
type CartStore interface {
	Load(ctx context.Context, sessionID string) ([]byte, error)
	Save(ctx context.Context, sessionID string, blob []byte) error
	Delete(ctx context.Context, sessionID string) error
}

// ProductRepository is the read-only catalog.
type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}
