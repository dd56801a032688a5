package catalog

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTrigrams(t *testing.T) {
	assert.Nil(t, trigrams("ab"))
	assert.Equal(t, []string{"abc"}, trigrams("abc"))
	assert.Equal(t, []string{"abc", "bcd"}, trigrams("abcd"))
	assert.Equal(t, []string{"çaf", "afé"}, trigrams("çafé"))
}

func TestTitleIndex_ContainsIsExact(t *testing.T) {
	products := fakeProducts(7, 150)
	ix := NewTitleIndex(products)
	assert.Equal(t, len(products), len(ix.titles))

	queries := []string{"", "e", "er", "ter", "smart", "zzzq", strings.ToLower(products[11].Title)}
	for _, q := range queries {
		for i, p := range products {
			want := strings.Contains(strings.ToLower(p.Title), q)
			assert.Equal(t, want, ix.Contains(i, q), "title=%q query=%q", p.Title, q)
		}
	}
}

func TestFilter_Match(t *testing.T) {
	p := newTestProduct(1, "Brown Perfume", 40)

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{name: "zero filter", filter: Filter{}, want: true},
		{name: "query hit", filter: Filter{}.WithQuery("PERF"), want: true},
		{name: "query miss", filter: Filter{}.WithQuery("soap"), want: false},
		{name: "min equal", filter: Filter{Min: decimal.NewNullDecimal(decimal.NewFromInt(40))}, want: true},
		{name: "max below", filter: Filter{Max: decimal.NewNullDecimal(decimal.NewFromInt(39))}, want: false},
		{
			name:   "query and bounds",
			filter: Filter{}.WithQuery("brown").WithBounds(ParseBound("10"), ParseBound("50")),
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(p))
		})
	}
}

func TestParseBound(t *testing.T) {
	assert.False(t, ParseBound("").Valid)
	assert.False(t, ParseBound("   ").Valid)
	assert.False(t, ParseBound("ten").Valid)

	b := ParseBound(" 12.50 ")
	assert.True(t, b.Valid)
	assert.True(t, decimal.RequireFromString("12.5").Equal(b.Decimal))

	assert.True(t, ParseBound("1e3").Valid)
	assert.True(t, ParseBound("999999999999").Valid)
}

func TestParseBound_OutOfRange(t *testing.T) {
	for _, s := range []string{
		"1e5000000",
		"1e2000000000",
		"1e-5000000",
		"0.0000000000001",
		strings.Repeat("9", 40),
	} {
		t.Run(s[:min(len(s), 16)], func(t *testing.T) {
			assert.False(t, ParseBound(s).Valid)
		})
	}
}
