package memory

import (
	"context"
	"slices"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
	apperrors "github.com/unseen32online/UNSEEN.IL/pkg/errors"
)

// ProductRepository serves a fixed catalog.
type ProductRepository struct {
	products []domain.Product
}

// NewProductRepository creates a catalog holding products.
func NewProductRepository(products []domain.Product) *ProductRepository {
	return &ProductRepository{products: slices.Clone(products)}
}

func (r *ProductRepository) List(context.Context) ([]domain.Product, error) {
	return slices.Clone(r.products), nil
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	i := slices.IndexFunc(r.products, func(p domain.Product) bool { return p.ID == id })
	if i < 0 {
		return nil, apperrors.NotFound("product", id)
	}
	p := r.products[i]
	return &p, nil
}
