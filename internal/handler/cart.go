package handler

import (
	"net/http"
	"strconv"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/session"
)

// AddToCart appends the product named by product_id and renders the cart
// badge. Ids missing from the master list change nothing.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PostFormValue("product_id"))

	var (
		added bool
		view  cartView
	)
	session.From(r.Context()).Do(func(st *catalog.State, c *cart.Cart) {
		if err == nil {
			added = c.Add(st.Products(), id)
		}
		view = newCartView(c)
	})

	if !added && isHTMX(r) {
		http.NotFound(w, r)
		return
	}
	h.done(w, r, "cart", view)
}
