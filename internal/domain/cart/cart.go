package cart

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

// Cart is an ordered list of products added by the shopper. The same
// product may appear several times; there is no quantity field.
type Cart struct {
	items []product.Product
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add looks id up in products and appends the match. It reports false and
// leaves the cart unchanged when id is not in products.
func (c *Cart) Add(products []product.Product, id int) bool {
	p := product.Find(products, id)
	if p == nil {
		return false
	}
	c.items = append(c.items, *p)
	return true
}

// Count returns the number of entries.
func (c *Cart) Count() int {
	return len(c.items)
}

// Total returns the sum of entry prices.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range c.items {
		total = total.Add(p.Price)
	}
	return total
}
