// Package cart holds the per-session shopping cart and its persistence.
package cart

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/example/storefront/internal/models"
)

var (
	// ErrQuantityBelowMinimum is returned when a quantity below 1 is requested. Line items are
	// removed with RemoveItem, never by setting their quantity to zero.
	ErrQuantityBelowMinimum = errors.New("quantity must be at least 1")
	// ErrItemNotFound is returned when the product is not in the cart.
	ErrItemNotFound = errors.New("item not in cart")
)

// Cart is the list of line items of one session. Every line has quantity >= 1 and line items
// are unique by product id. Safe for concurrent use.
type Cart struct {
	mu    sync.Mutex
	items []models.CartItem
}

// New builds a cart from stored lines, merging duplicates and dropping lines whose quantity
// is below 1.
func New(items ...models.CartItem) *Cart {
	c := &Cart{}
	for _, it := range items {
		if it.Quantity < 1 || it.ProductID == "" {
			continue
		}
		if i := c.indexOf(it.ProductID); i >= 0 {
			c.items[i].Quantity += it.Quantity
			continue
		}
		c.items = append(c.items, it)
	}
	return c
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem appends a line for p, or increments the existing line for the same product id.
// A quantity below 1 adds a single unit.
func (c *Cart) AddItem(p models.Product, quantity int) models.CartItem {
	if quantity < 1 {
		quantity = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(p.ID); i >= 0 {
		c.items[i].Quantity += quantity
		return c.items[i]
	}
	item := models.CartItemFromProduct(p, quantity)
	c.items = append(c.items, item)
	return item
}

// UpdateQuantity sets the quantity of a line. Quantities below 1 are rejected and leave the
// cart unchanged.
func (c *Cart) UpdateQuantity(productID string, quantity int) error {
	if quantity < 1 {
		return ErrQuantityBelowMinimum
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.items[i].Quantity = quantity
	return nil
}

// RemoveItem drops the line for productID. Removing an absent product is a no-op.
func (c *Cart) RemoveItem(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(productID); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// Items returns a copy of the line items.
func (c *Cart) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) == 0
}

// Total is the sum of price×quantity over all lines.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	sum := decimal.Zero
	for _, it := range c.items {
		sum = sum.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// TotalItems is the sum of quantities over all lines.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Summary is the JSON view of a cart.
type Summary struct {
	Items      []models.CartItem `json:"items"`
	Total      float64           `json:"total"`
	TotalItems int               `json:"totalItems"`
}

// Summary computes the view from the current lines.
func (c *Cart) Summary() Summary {
	return Summary{Items: c.Items(), Total: c.Total().InexactFloat64(), TotalItems: c.TotalItems()}
}
