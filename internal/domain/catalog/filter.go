package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

// Filter is the combined predicate applied to the master list: a title
// search term and optional inclusive price bounds. All set constraints must
// hold for a product to be visible.
type Filter struct {
	// Query is matched as a case-insensitive substring of the title.
	// Empty matches everything.
	Query string
	Min   decimal.NullDecimal
	Max   decimal.NullDecimal
}

// Bounds past these limits count as non-numeric. Decimal comparison rescales
// to the smaller exponent, so its cost grows with the exponent.
const (
	maxBoundLen      = 32
	maxBoundExponent = 12
)

// ParseBound parses a user-entered price bound. Blank, non-numeric or out of
// range input yields an unset bound, which leaves that side unconstrained.
func ParseBound(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxBoundLen {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	if exp := d.Exponent(); exp > maxBoundExponent || exp < -maxBoundExponent {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// WithQuery returns a copy of f with the search term replaced.
func (f Filter) WithQuery(q string) Filter {
	f.Query = q
	return f
}

// WithBounds returns a copy of f with both price bounds replaced.
func (f Filter) WithBounds(minPrice, maxPrice decimal.NullDecimal) Filter {
	f.Min = minPrice
	f.Max = maxPrice
	return f
}

// matchPrice reports whether p's price lies within the configured bounds.
func (f Filter) matchPrice(p product.Product) bool {
	if f.Min.Valid && p.Price.LessThan(f.Min.Decimal) {
		return false
	}
	if f.Max.Valid && p.Price.GreaterThan(f.Max.Decimal) {
		return false
	}
	return true
}

// Match evaluates the whole predicate against a single product without the
// help of an index.
func (f Filter) Match(p product.Product) bool {
	if f.Query != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(f.Query)) {
		return false
	}
	return f.matchPrice(p)
}
