package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/session"
)

// Products performs the session's one catalog fetch if it is still pending
// and renders the product section.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := session.From(ctx)

	if err := h.sessions.EnsureCatalog(ctx, s, h.products); err != nil {
		zctx.From(ctx).Warn("Catalog fetch failed", zap.Error(err))
	}
	h.renderFragment(w, r, http.StatusOK, "products", buildCatalogView(s))
}

// Search replaces the title search term.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.PostFormValue("q")
	h.updateCatalog(w, r, func(st *catalog.State) error {
		return st.Search(q)
	})
}

// FilterByPrice replaces both price bounds.
func (h *Handler) FilterByPrice(w http.ResponseWriter, r *http.Request) {
	minPrice, maxPrice := r.PostFormValue("min"), r.PostFormValue("max")
	h.updateCatalog(w, r, func(st *catalog.State) error {
		return st.FilterByPrice(minPrice, maxPrice)
	})
}

// updateCatalog applies fn and re-renders the product section. Before the
// catalog is ready the section is rendered unchanged.
func (h *Handler) updateCatalog(w http.ResponseWriter, r *http.Request, fn func(st *catalog.State) error) {
	s := session.From(r.Context())
	s.Do(func(st *catalog.State, _ *cart.Cart) {
		if err := fn(st); err != nil {
			zctx.From(r.Context()).Debug("Catalog update ignored", zap.Error(err))
		}
	})
	h.done(w, r, "products", buildCatalogView(s))
}

// StepImage moves one card's carousel forward or backward.
func (h *Handler) StepImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	dir, ok := catalog.ParseDirection(r.PathValue("dir"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	var (
		card  cardView
		found bool
	)
	session.From(r.Context()).Do(func(st *catalog.State, _ *cart.Cart) {
		var p product.Product
		if p, found = st.StepImage(id, dir); found {
			card = newCardView(p, st.Carousel())
		}
	})
	if !found {
		http.NotFound(w, r)
		return
	}
	h.done(w, r, "card", card)
}
