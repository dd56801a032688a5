package catalog

import (
	"strings"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/xenking/storefront/internal/domain/product"
)

const (
	gramSize = 3
	indexFPR = 0.01
)

// TitleIndex pre-screens substring searches over product titles. For every
// product it keeps a bloom filter of the lowercase title's trigrams: a query
// whose trigrams are not all present cannot be a substring of that title.
// Positive answers are confirmed with strings.Contains, so results are exact.
type TitleIndex struct {
	titles  []string
	filters []*bloom.BloomFilter
}

// NewTitleIndex builds an index aligned with the order of products.
func NewTitleIndex(products []product.Product) *TitleIndex {
	ix := &TitleIndex{
		titles:  make([]string, len(products)),
		filters: make([]*bloom.BloomFilter, len(products)),
	}
	for i, p := range products {
		title := strings.ToLower(p.Title)
		grams := trigrams(title)

		n := uint(len(grams))
		if n == 0 {
			n = 1
		}
		f := bloom.NewWithEstimates(n, indexFPR)
		for _, g := range grams {
			f.AddString(g)
		}
		ix.titles[i] = title
		ix.filters[i] = f
	}
	return ix
}

// Contains reports whether the title at position i contains the lowercase
// query q.
func (ix *TitleIndex) Contains(i int, q string) bool {
	if q == "" {
		return true
	}
	if len([]rune(q)) >= gramSize {
		f := ix.filters[i]
		for _, g := range trigrams(q) {
			if !f.TestString(g) {
				return false
			}
		}
	}
	return strings.Contains(ix.titles[i], q)
}

// trigrams splits s into overlapping rune trigrams. Strings shorter than
// gramSize produce none.
func trigrams(s string) []string {
	r := []rune(s)
	if len(r) < gramSize {
		return nil
	}
	out := make([]string, 0, len(r)-gramSize+1)
	for i := 0; i+gramSize <= len(r); i++ {
		out = append(out, string(r[i:i+gramSize]))
	}
	return out
}
