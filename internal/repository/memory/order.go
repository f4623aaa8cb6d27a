package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
	"github.com/unseen32online/UNSEEN.IL/internal/repository"
	apperrors "github.com/unseen32online/UNSEEN.IL/pkg/errors"
)

// OrderRepository is an in-process order store for local runs and tests.
// All reads return copies, so callers cannot mutate stored state.
type OrderRepository struct {
	mu       sync.RWMutex
	byID     map[string]*domain.Order
	byNumber map[string]string
	order    []string // ids, oldest first
}

// NewOrderRepository creates an empty in-memory order repository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		byID:     make(map[string]*domain.Order),
		byNumber: make(map[string]string),
	}
}

func clone(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = slices.Clone(o.Items)
	return &cp
}

func (r *OrderRepository) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[o.ID]; ok {
		return apperrors.Conflict("order " + o.ID + " already exists")
	}
	if _, ok := r.byNumber[o.OrderNumber]; ok {
		return apperrors.Conflict("order number " + o.OrderNumber + " already exists")
	}
	r.byID[o.ID] = clone(o)
	r.byNumber[o.OrderNumber] = o.ID
	r.order = append(r.order, o.ID)
	return nil
}

func (r *OrderRepository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NotFound("order", id)
	}
	return clone(o), nil
}

func (r *OrderRepository) GetByNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byNumber[orderNumber]
	if !ok {
		return nil, apperrors.NotFound("order", orderNumber)
	}
	return clone(r.byID[id]), nil
}

// newestFirst walks orders from the most recently created, stopping when
// keep returns false.
func (r *OrderRepository) newestFirst(keep func(*domain.Order) bool) {
	for i := len(r.order) - 1; i >= 0; i-- {
		if !keep(r.byID[r.order[i]]) {
			return
		}
	}
}

func (r *OrderRepository) List(_ context.Context, f repository.OrderFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Order, 0)
	r.newestFirst(func(o *domain.Order) bool {
		if f.Limit > 0 && len(out) >= f.Limit {
			return false
		}
		if f.Status != "" && o.Status != f.Status {
			return true
		}
		if f.CustomerEmail != "" && !strings.EqualFold(o.Customer.Email, f.CustomerEmail) {
			return true
		}
		out = append(out, *clone(o))
		return true
	})
	return out, nil
}

func (r *OrderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.List(ctx, repository.OrderFilter{})
}

// UpdateStatus applies the change only if the order is still in change.From.
func (r *OrderRepository) UpdateStatus(_ context.Context, change repository.StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.byID[change.OrderID]
	if !ok {
		return apperrors.NotFound("order", change.OrderID)
	}
	if o.Status != change.From {
		return apperrors.Conflict("order " + change.OrderID + " is no longer " + string(change.From))
	}
	o.Status = change.To
	if change.TransactionID != "" {
		o.Payment.TransactionID = change.TransactionID
	}
	o.UpdatedAt = change.At
	return nil
}

func (r *OrderRepository) UpdateDetails(_ context.Context, id string, u repository.DetailsUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.byID[id]
	if !ok {
		return apperrors.NotFound("order", id)
	}
	if u.Notes != nil {
		o.Notes = *u.Notes
	}
	if u.TrackingNumber != nil {
		o.TrackingNumber = *u.TrackingNumber
	}
	o.UpdatedAt = u.At
	return nil
}
