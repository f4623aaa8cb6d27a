package domain

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// Cart is an insertion-ordered set of line items, unique by ItemKey, with
// every quantity at least 1. The zero value is an empty cart.
type Cart struct {
	items []LineItem
}

// NewCart builds a cart from items, merging duplicate keys by summing their
// quantities and dropping entries whose quantity is not positive.
func NewCart(items []LineItem) *Cart {
	c := &Cart{}
	for _, li := range items {
		if li.Quantity <= 0 {
			continue
		}
		if i := c.indexOf(li.Key()); i >= 0 {
			c.items[i].Quantity += li.Quantity
			continue
		}
		c.items = append(c.items, li)
	}
	return c
}

func (c *Cart) indexOf(key ItemKey) int {
	return slices.IndexFunc(c.items, func(li LineItem) bool { return li.Key() == key })
}

// Add increments the quantity of the (product, size, color) entry, inserting
// it at the end with quantity 1 if absent. Name and price are taken from p
// when the entry is created.
func (c *Cart) Add(p Product, size, color string) {
	key := ItemKey{ProductID: p.ID, Size: size, Color: color}
	if i := c.indexOf(key); i >= 0 {
		c.items[i].Quantity++
		return
	}
	c.items = append(c.items, LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Size:      size,
		Color:     color,
		Quantity:  1,
	})
}

// Remove deletes the entry for key. Missing entries are ignored.
func (c *Cart) Remove(key ItemKey) {
	if i := c.indexOf(key); i >= 0 {
		c.items = slices.Delete(c.items, i, i+1)
	}
}

// SetQuantity overwrites the quantity for key. A quantity of zero or less
// removes the entry. Missing entries are ignored.
func (c *Cart) SetQuantity(key ItemKey, quantity int) {
	if quantity <= 0 {
		c.Remove(key)
		return
	}
	if i := c.indexOf(key); i >= 0 {
		c.items[i].Quantity = quantity
	}
}

// Clear removes every entry.
func (c *Cart) Clear() {
	c.items = nil
}

// Total is the exact sum of UnitPrice x Quantity over all entries.
func (c *Cart) Total() decimal.Decimal {
	return sumLines(c.items)
}

// Count is the total number of units, for display.
func (c *Cart) Count() int {
	n := 0
	for _, li := range c.items {
		n += li.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no entries.
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Items returns a copy of the entries in insertion order.
func (c *Cart) Items() []LineItem {
	return slices.Clone(c.items)
}

// MarshalJSON encodes the cart as an ordered array of line items.
func (c *Cart) MarshalJSON() ([]byte, error) {
	items := c.items
	if items == nil {
		items = []LineItem{}
	}
	return json.Marshal(items)
}

// DecodeCart parses a stored cart blob. The result is normalised through
// NewCart so a hand-edited blob cannot break the cart invariants, and unit
// prices are rounded to the minor unit as catalog prices are.
func DecodeCart(data []byte) (*Cart, error) {
	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	for i := range items {
		items[i].UnitPrice = RoundMoney(items[i].UnitPrice)
	}
	return NewCart(items), nil
}
