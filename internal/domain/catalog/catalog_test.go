package catalog

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/go-faster/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/product"
)

// --- Helpers ---

func newTestProduct(id int, title string, price int64, images ...string) product.Product {
	return product.Product{
		ID:          id,
		Title:       title,
		Price:       decimal.NewFromInt(price),
		Brand:       "Acme",
		Category:    "test",
		Description: "test product",
		Thumbnail:   "thumb.jpg",
		Images:      images,
	}
}

func readyState(t *testing.T, products ...product.Product) *State {
	t.Helper()
	s := NewState()
	s.Resolve(products, nil)
	require.Equal(t, PhaseReady, s.Phase())
	return s
}

func ids(products []product.Product) []int {
	out := make([]int, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func fakeProducts(seed uint64, n int) []product.Product {
	f := gofakeit.New(seed)
	out := make([]product.Product, n)
	for i := range out {
		out[i] = product.Product{
			ID:          i + 1,
			Title:       f.ProductName(),
			Price:       decimal.NewFromFloat(f.Price(1, 500)),
			Brand:       f.Company(),
			Category:    f.ProductCategory(),
			Description: f.ProductDescription(),
			Thumbnail:   f.URL(),
		}
	}
	return out
}

// --- Tests ---

func TestState_Resolve(t *testing.T) {
	t.Run("success sets master and visible", func(t *testing.T) {
		p1 := newTestProduct(1, "Widget", 10)
		p2 := newTestProduct(2, "Gadget", 20)
		s := readyState(t, p1, p2)

		assert.Equal(t, []int{1, 2}, ids(s.Products()))
		assert.Equal(t, []int{1, 2}, ids(s.Visible()))
		assert.NoError(t, s.Err())
	})

	t.Run("failure moves to failed", func(t *testing.T) {
		s := NewState()
		s.Resolve(nil, errors.New("boom"))

		assert.Equal(t, PhaseFailed, s.Phase())
		assert.EqualError(t, s.Err(), "boom")
		assert.Empty(t, s.Visible())
	})

	t.Run("only first outcome counts", func(t *testing.T) {
		s := NewState()
		s.Resolve([]product.Product{newTestProduct(1, "Widget", 10)}, nil)
		s.Resolve(nil, errors.New("late failure"))

		assert.Equal(t, PhaseReady, s.Phase())
		assert.Len(t, s.Visible(), 1)
	})
}

func TestState_NotReady(t *testing.T) {
	s := NewState()

	require.ErrorIs(t, s.Search("x"), ErrNotReady)
	require.ErrorIs(t, s.FilterByPrice("1", "2"), ErrNotReady)
}

func TestState_Search(t *testing.T) {
	s := readyState(t,
		newTestProduct(1, "iPhone 9", 549),
		newTestProduct(2, "iPhone X", 899),
		newTestProduct(3, "Samsung Universe 9", 1249),
		newTestProduct(4, "OPPOF19", 280),
	)

	tests := []struct {
		name  string
		query string
		want  []int
	}{
		{name: "empty query returns all", query: "", want: []int{1, 2, 3, 4}},
		{name: "case insensitive", query: "IPHONE", want: []int{1, 2}},
		{name: "short query skips index", query: "9", want: []int{1, 3}},
		{name: "substring in the middle", query: "sung uni", want: []int{3}},
		{name: "no match", query: "pixel", want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.Search(tt.query))
			if diff := cmp.Diff(tt.want, ids(s.Visible())); diff != "" {
				t.Errorf("visible mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestState_FilterByPrice(t *testing.T) {
	s := readyState(t,
		newTestProduct(1, "Ten", 10),
		newTestProduct(2, "Twenty", 20),
		newTestProduct(3, "Thirty", 30),
	)

	tests := []struct {
		name     string
		min, max string
		want     []int
	}{
		{name: "min only", min: "15", want: []int{2, 3}},
		{name: "max only", max: "20", want: []int{1, 2}},
		{name: "both inclusive", min: "10", max: "20", want: []int{1, 2}},
		{name: "both empty", want: []int{1, 2, 3}},
		{name: "non numeric ignored", min: "abc", max: "25", want: []int{1, 2}},
		{name: "fractional bound", min: "19.99", want: []int{2, 3}},
		{name: "inverted range", min: "30", max: "10", want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.FilterByPrice(tt.min, tt.max))
			assert.Equal(t, tt.want, ids(s.Visible()))
		})
	}
}

func TestState_SearchAndPriceCompose(t *testing.T) {
	products := []product.Product{
		newTestProduct(1, "Red Shoe", 10),
		newTestProduct(2, "Red Hat", 40),
		newTestProduct(3, "Blue Shoe", 50),
	}

	searchFirst := readyState(t, products...)
	require.NoError(t, searchFirst.Search("shoe"))
	require.NoError(t, searchFirst.FilterByPrice("20", ""))

	priceFirst := readyState(t, products...)
	require.NoError(t, priceFirst.FilterByPrice("20", ""))
	require.NoError(t, priceFirst.Search("shoe"))

	assert.Equal(t, []int{3}, ids(searchFirst.Visible()))
	assert.Equal(t, ids(searchFirst.Visible()), ids(priceFirst.Visible()))

	// Clearing the bounds keeps the search term.
	require.NoError(t, searchFirst.FilterByPrice("", ""))
	assert.Equal(t, []int{1, 3}, ids(searchFirst.Visible()))
}

func TestState_VisibleMatchesPredicate(t *testing.T) {
	products := fakeProducts(42, 200)
	s := readyState(t, products...)

	queries := []string{"", "a", "pro", "smart", products[7].Title[:4], strings.ToUpper(products[3].Title)}
	bounds := [][2]string{{"", ""}, {"50", ""}, {"", "120.5"}, {"100", "300"}}

	for _, q := range queries {
		for _, b := range bounds {
			require.NoError(t, s.Search(q))
			require.NoError(t, s.FilterByPrice(b[0], b[1]))

			f := Filter{Query: q, Min: ParseBound(b[0]), Max: ParseBound(b[1])}
			var want []int
			for _, p := range products {
				if f.Match(p) {
					want = append(want, p.ID)
				}
			}
			got := ids(s.Visible())
			if len(want) == 0 {
				assert.Empty(t, got, "query=%q bounds=%v", q, b)
				continue
			}
			assert.Equal(t, want, got, "query=%q bounds=%v", q, b)
		}
	}
}

func TestState_StepImage(t *testing.T) {
	s := readyState(t,
		newTestProduct(1, "Gallery", 10, "a.jpg", "b.jpg", "c.jpg"),
		newTestProduct(2, "Other gallery", 10, "x.jpg", "y.jpg"),
	)

	p, ok := s.StepImage(1, Forward)
	require.True(t, ok)
	assert.Equal(t, "b.jpg", s.Carousel().Image(p))

	other, _ := s.Lookup(2)
	assert.Equal(t, "x.jpg", s.Carousel().Image(other), "cards are independent")

	_, ok = s.StepImage(99, Forward)
	assert.False(t, ok)
}
