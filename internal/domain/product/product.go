package product

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product represents a catalog item served by the remote catalog service.
// Values are read-only once fetched.
type Product struct {
	ID          int
	Title       string
	Price       decimal.Decimal
	Brand       string
	Category    string
	Description string
	Thumbnail   string
	Images      []string
}

// HasGallery reports whether the product has enough images to page through.
func (p Product) HasGallery() bool {
	return len(p.Images) > 1
}

// Source defines read operations against the remote product catalog.
type Source interface {
	List(ctx context.Context) ([]Product, error)
}

// Find returns a pointer to the product with the given id inside products,
// or nil when absent.
func Find(products []Product, id int) *Product {
	for i := range products {
		if products[i].ID == id {
			return &products[i]
		}
	}
	return nil
}
