package handler

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/session"
)

type loginView struct {
	Username string
	Error    string
}

type cartView struct {
	Count int
	Total decimal.Decimal
}

type cardView struct {
	ID          int
	Title       string
	Price       decimal.Decimal
	Brand       string
	Category    string
	Description string
	Image       string
	Gallery     bool
	// Position is 1-based.
	Position int
	Images   int
}

type catalogView struct {
	Loading bool
	Failed  bool
	Message string

	Query string
	Min   string
	Max   string

	Cards []cardView
	Cart  cartView
}

func newCartView(c *cart.Cart) cartView {
	return cartView{Count: c.Count(), Total: c.Total()}
}

func newCardView(p product.Product, c *catalog.Carousel) cardView {
	v := cardView{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price,
		Brand:       p.Brand,
		Category:    p.Category,
		Description: p.Description,
		Image:       p.Thumbnail,
		Gallery:     p.HasGallery(),
		Images:      len(p.Images),
	}
	if v.Gallery {
		v.Image = c.Image(p)
		v.Position = c.Index(p) + 1
	}
	return v
}

func boundString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// buildCatalogView snapshots the session state for rendering.
func buildCatalogView(s *session.Session) catalogView {
	var v catalogView
	s.Do(func(st *catalog.State, c *cart.Cart) {
		v.Cart = newCartView(c)

		f := st.Filter()
		v.Query = f.Query
		v.Min = boundString(f.Min)
		v.Max = boundString(f.Max)

		switch st.Phase() {
		case catalog.PhaseLoading:
			v.Loading = true
		case catalog.PhaseFailed:
			v.Failed = true
			v.Message = msgFetchFailed
		default:
			visible := st.Visible()
			v.Cards = make([]cardView, 0, len(visible))
			for _, p := range visible {
				v.Cards = append(v.Cards, newCardView(p, st.Carousel()))
			}
		}
	})
	return v
}
