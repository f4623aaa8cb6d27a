package domain

import "github.com/shopspring/decimal"

// ItemKey identifies a purchasable variant. Two line items with equal keys
// are the same cart entry.
type ItemKey struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// LineItem is one variant and quantity in a cart or an order snapshot.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Quantity  int             `json:"quantity"`
}

func (li LineItem) Key() ItemKey {
	return ItemKey{ProductID: li.ProductID, Size: li.Size, Color: li.Color}
}

// LineTotal returns UnitPrice x Quantity, unrounded.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Subtotal sums the line totals of items and rounds once to the minor unit.
func Subtotal(items []LineItem) decimal.Decimal {
	return RoundMoney(sumLines(items))
}

func sumLines(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range items {
		sum = sum.Add(li.LineTotal())
	}
	return sum
}
