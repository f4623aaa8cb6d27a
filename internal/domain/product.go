package domain

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Product is a catalog record. The storefront only reads products.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Sizes       []string        `json:"sizes"`
	Colors      []string        `json:"colors"`
	ImageURL    string          `json:"image_url,omitempty"`
	InStock     bool            `json:"in_stock"`
}

// Offers reports whether the product is sold in the given size and color.
// A product with no sizes (or no colors) accepts only an empty value for it.
func (p *Product) Offers(size, color string) bool {
	return offered(p.Sizes, size) && offered(p.Colors, color)
}

func offered(options []string, v string) bool {
	if len(options) == 0 {
		return v == ""
	}
	return slices.Contains(options, v)
}
