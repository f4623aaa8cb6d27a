package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
	"github.com/unseen32online/UNSEEN.IL/internal/repository"
	"github.com/unseen32online/UNSEEN.IL/pkg/database"
	apperrors "github.com/unseen32online/UNSEEN.IL/pkg/errors"
)

const uniqueViolation = "23505"

const orderColumns = `
	id, order_number, status,
	customer_first_name, customer_last_name, customer_email, customer_phone,
	shipping_street, shipping_city, shipping_postal_code, shipping_country,
	shipping_method, subtotal_minor, shipping_cost_minor, total_minor, currency,
	payment_method, card_last_four, cardholder_name, payment_transaction_id,
	notes, tracking_number, created_at, updated_at`

// OrderRepository implements repository.OrderRepository on PostgreSQL.
// Money columns hold integer minor units.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts the order row and its line items in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateOrder", "INSERT INTO orders")
	defer func() { end(err) }()

	_, err = database.WithTx(ctx, r.pool, func(tx pgx.Tx) (struct{}, error) {
		_, err := tx.Exec(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
				$17, $18, $19, $20, $21, $22, $23, $24)`,
			o.ID, o.OrderNumber, string(o.Status),
			o.Customer.FirstName, o.Customer.LastName, o.Customer.Email, o.Customer.Phone,
			o.ShippingAddress.Street, o.ShippingAddress.City, o.ShippingAddress.PostalCode, o.ShippingAddress.Country,
			string(o.ShippingMethod),
			domain.ToMinorUnits(o.Subtotal), domain.ToMinorUnits(o.ShippingCost), domain.ToMinorUnits(o.Total),
			o.Currency,
			o.Payment.Method, o.Payment.CardLastFour, o.Payment.CardholderName, o.Payment.TransactionID,
			o.Notes, o.TrackingNumber, o.CreatedAt, o.UpdatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return struct{}{}, apperrors.Conflict("order number " + o.OrderNumber + " already exists")
			}
			return struct{}{}, fmt.Errorf("insert order: %w", err)
		}

		for i, item := range o.Items {
			_, err := tx.Exec(ctx, `
				INSERT INTO order_items (order_id, position, product_id, name, unit_price_minor, size, color, quantity)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				o.ID, i, item.ProductID, item.Name, domain.ToMinorUnits(item.UnitPrice),
				item.Size, item.Color, item.Quantity,
			)
			if err != nil {
				return struct{}{}, fmt.Errorf("insert order item %d: %w", i, err)
			}
		}
		return struct{}{}, nil
	})
	return err
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o                             domain.Order
		status, method                string
		subtotal, shippingCost, total int64
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &status,
		&o.Customer.FirstName, &o.Customer.LastName, &o.Customer.Email, &o.Customer.Phone,
		&o.ShippingAddress.Street, &o.ShippingAddress.City, &o.ShippingAddress.PostalCode, &o.ShippingAddress.Country,
		&method, &subtotal, &shippingCost, &total, &o.Currency,
		&o.Payment.Method, &o.Payment.CardLastFour, &o.Payment.CardholderName, &o.Payment.TransactionID,
		&o.Notes, &o.TrackingNumber, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	o.ShippingMethod = domain.ShippingMethod(method)
	o.Subtotal = domain.FromMinorUnits(subtotal)
	o.ShippingCost = domain.FromMinorUnits(shippingCost)
	o.Total = domain.FromMinorUnits(total)
	return &o, nil
}

func (r *OrderRepository) getOne(ctx context.Context, column, key string) (o *domain.Order, err error) {
	ctx, end := database.TraceQuery(ctx, "GetOrderBy_"+column, "SELECT FROM orders")
	defer func() { end(err) }()

	o, err = scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE `+column+` = $1`, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", key)
		}
		return nil, fmt.Errorf("get order by %s: %w", column, err)
	}

	items, err := r.loadItems(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = []domain.LineItem{}
	}
	return o, nil
}

// GetByID loads an order with its line items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.getOne(ctx, "id", id)
}

// GetByNumber loads an order by its exact order number.
func (r *OrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return r.getOne(ctx, "order_number", orderNumber)
}

// loadItems fetches the line items of every order in ids with one query,
// keyed by order id and kept in insertion order.
func (r *OrderRepository) loadItems(ctx context.Context, ids []string) (map[string][]domain.LineItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT order_id, product_id, name, unit_price_minor, size, color, quantity
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	byOrder := make(map[string][]domain.LineItem, len(ids))
	for rows.Next() {
		var (
			orderID string
			item    domain.LineItem
			price   int64
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.Name, &price, &item.Size, &item.Color, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.UnitPrice = domain.FromMinorUnits(price)
		byOrder[orderID] = append(byOrder[orderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return byOrder, nil
}

// List returns orders matching filter, newest first.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) (orders []domain.Order, err error) {
	ctx, end := database.TraceQuery(ctx, "ListOrders", "SELECT FROM orders")
	defer func() { end(err) }()

	var (
		conditions []string
		args       []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CustomerEmail != "" {
		args = append(args, filter.CustomerEmail)
		conditions = append(conditions, fmt.Sprintf("LOWER(customer_email) = LOWER($%d)", len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, order_number DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders = make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []domain.LineItem{}
		}
	}
	return orders, nil
}

// ListAll returns every order, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.List(ctx, repository.OrderFilter{})
}

// UpdateStatus is a compare-and-swap on the status column. When no row
// matches, a second lookup tells a missing order from a lost race.
func (r *OrderRepository) UpdateStatus(ctx context.Context, c repository.StatusChange) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateOrderStatus", "UPDATE orders SET status")
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET status = $1,
			payment_transaction_id = COALESCE(NULLIF($2, ''), payment_transaction_id),
			updated_at = $3
		WHERE id = $4 AND status = $5`,
		string(c.To), c.TransactionID, c.At, c.OrderID, string(c.From),
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, c.OrderID).Scan(&exists); err != nil {
		return fmt.Errorf("check order existence: %w", err)
	}
	if !exists {
		return apperrors.NotFound("order", c.OrderID)
	}
	return apperrors.Conflict("order " + c.OrderID + " is no longer " + string(c.From))
}

// UpdateDetails writes the non-nil notes and tracking number.
func (r *OrderRepository) UpdateDetails(ctx context.Context, id string, u repository.DetailsUpdate) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateOrderDetails", "UPDATE orders SET notes")
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET notes = COALESCE($1::text, notes),
			tracking_number = COALESCE($2::text, tracking_number),
			updated_at = $3
		WHERE id = $4`,
		u.Notes, u.TrackingNumber, u.At, id,
	)
	if err != nil {
		return fmt.Errorf("update order details: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}
	return nil
}
