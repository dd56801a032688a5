// Package catalog holds the per-session view over the remote product list:
// the fetched master list, the filter applied to it, the visible subset and
// carousel positions.
//
// State is not safe for concurrent use; callers serialize access.
package catalog

import (
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/product"
)

// ErrNotReady is returned by operations that need a loaded catalog.
var ErrNotReady = errors.New("catalog not ready")

// Phase is the lifecycle stage of a catalog.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is one session's catalog.
type State struct {
	phase    Phase
	err      error
	products []product.Product
	index    *TitleIndex
	filter   Filter
	visible  []int
	carousel *Carousel
}

// NewState returns a catalog waiting for its first fetch.
func NewState() *State {
	return &State{
		phase:    PhaseLoading,
		carousel: NewCarousel(),
	}
}

// Phase returns the current lifecycle stage.
func (s *State) Phase() Phase { return s.phase }

// Err returns the fetch error of a failed catalog.
func (s *State) Err() error { return s.err }

// Resolve records the outcome of the initial fetch. Only the first call
// has an effect; later calls are ignored.
func (s *State) Resolve(products []product.Product, err error) {
	if s.phase != PhaseLoading {
		return
	}
	if err != nil {
		s.phase = PhaseFailed
		s.err = err
		return
	}
	s.products = products
	s.index = NewTitleIndex(products)
	s.phase = PhaseReady
	s.recompute()
}

// Products returns the master list.
func (s *State) Products() []product.Product {
	return s.products
}

// Filter returns the active predicate.
func (s *State) Filter() Filter {
	return s.filter
}

// Search replaces the search term and recomputes the visible subset.
func (s *State) Search(q string) error {
	return s.apply(s.filter.WithQuery(q))
}

// FilterByPrice replaces both price bounds and recomputes the visible
// subset. The search term stays in effect.
func (s *State) FilterByPrice(minPrice, maxPrice string) error {
	return s.apply(s.filter.WithBounds(ParseBound(minPrice), ParseBound(maxPrice)))
}

func (s *State) apply(f Filter) error {
	if s.phase != PhaseReady {
		return ErrNotReady
	}
	s.filter = f
	s.recompute()
	return nil
}

// recompute evaluates the filter against the master list from scratch.
func (s *State) recompute() {
	q := strings.ToLower(s.filter.Query)
	s.visible = s.visible[:0]
	for i, p := range s.products {
		if q != "" && !s.index.Contains(i, q) {
			continue
		}
		if !s.filter.matchPrice(p) {
			continue
		}
		s.visible = append(s.visible, i)
	}
}

// Visible returns the products passing the filter, in master-list order.
func (s *State) Visible() []product.Product {
	out := make([]product.Product, len(s.visible))
	for i, idx := range s.visible {
		out[i] = s.products[idx]
	}
	return out
}

// Lookup returns the master-list product with the given id.
func (s *State) Lookup(id int) (product.Product, bool) {
	p := product.Find(s.products, id)
	if p == nil {
		return product.Product{}, false
	}
	return *p, true
}

// Carousel returns the per-card image positions.
func (s *State) Carousel() *Carousel {
	return s.carousel
}

// StepImage advances the carousel of product id. Unknown ids are a no-op
// reported through ok.
func (s *State) StepImage(id int, dir Direction) (p product.Product, ok bool) {
	p, ok = s.Lookup(id)
	if !ok {
		return product.Product{}, false
	}
	s.carousel.Step(p, dir)
	return p, true
}
