package domain

import "github.com/shopspring/decimal"

// ProductSales aggregates one product's sold quantity and revenue across
// all orders.
type ProductSales struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// AnalyticsSummary is the operator dashboard view over every order.
// TotalRevenue counts orders in every status, including cancelled ones.
type AnalyticsSummary struct {
	TotalOrders     int                 `json:"total_orders"`
	TotalRevenue    decimal.Decimal     `json:"total_revenue"`
	OrdersByStatus  map[OrderStatus]int `json:"orders_by_status"`
	PopularProducts []ProductSales      `json:"popular_products"`
	RecentOrders    []Order             `json:"recent_orders"`
}
