package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
	"github.com/unseen32online/UNSEEN.IL/pkg/database"
	apperrors "github.com/unseen32online/UNSEEN.IL/pkg/errors"
)

const productColumns = `id, name, description, category, price_minor, sizes, colors, image_url, in_stock`

type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p     domain.Product
		price int64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &price,
		&p.Sizes, &p.Colors, &p.ImageURL, &p.InStock); err != nil {
		return nil, err
	}
	p.Price = domain.FromMinorUnits(price)
	return &p, nil
}

// List returns the whole catalog in seed order.
func (r *ProductRepository) List(ctx context.Context) (products []domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, "ListProducts", "SELECT FROM products")
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products = make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

// GetByID returns a NotFound error for an unknown product.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (p *domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, "GetProductByID", "SELECT FROM products")
	defer func() { end(err) }()

	p, err = scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}
