// Package handler serves the storefront pages and the htmx fragments that
// update them.
package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/text/currency"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/session"
)

// User-visible messages.
const (
	msgCredentialsRequired = "Username and Password are required"
	msgLoginFailed         = "Login failed. Please try again."
	msgFetchFailed         = "Error fetching products. please try again later"
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// Currency selects the glyph shown next to prices. Defaults to INR.
	Currency currency.Unit
}

// Handler renders the login and catalog views on top of per-browser
// sessions.
type Handler struct {
	auth     auth.Authenticator
	products product.Source
	sessions *session.Store
	view     *renderer
}

// NewHandler constructs a Handler with the required dependencies.
func NewHandler(
	cfg HandlerConfig,
	authenticator auth.Authenticator,
	products product.Source,
	sessions *session.Store,
) (*Handler, error) {
	unit := cfg.Currency
	if unit == (currency.Unit{}) {
		unit = currency.INR
	}
	view, err := newRenderer(unit)
	if err != nil {
		return nil, errors.Wrap(err, "templates")
	}
	return &Handler{
		auth:     authenticator,
		products: products,
		sessions: sessions,
		view:     view,
	}, nil
}

// Register mounts the storefront routes on mux. Every route runs inside the
// session middleware; catalog and cart routes also require a login. Only a
// successful login creates a session.
func (h *Handler) Register(mux *http.ServeMux, login func(http.Handler) http.Handler) {
	withSession := h.sessions.Middleware()
	if login == nil {
		login = func(next http.Handler) http.Handler { return next }
	}

	mux.Handle("GET /{$}", withSession(http.HandlerFunc(h.Root)))
	mux.Handle("POST /login", withSession(login(http.HandlerFunc(h.Login))))
	mux.Handle("GET /catalog/products", withSession(h.requireToken(h.Products)))
	mux.Handle("POST /catalog/search", withSession(h.requireToken(h.Search)))
	mux.Handle("POST /catalog/filter", withSession(h.requireToken(h.FilterByPrice)))
	mux.Handle("POST /catalog/products/{id}/images/{dir}", withSession(h.requireToken(h.StepImage)))
	mux.Handle("POST /cart/items", withSession(h.requireToken(h.AddToCart)))
}

// Root renders the login page until the session holds a token, then the
// catalog.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	s := session.From(r.Context())
	if s == nil || !s.Authenticated() {
		h.render(w, r, http.StatusOK, "login", loginView{})
		return
	}
	h.render(w, r, http.StatusOK, "catalog", buildCatalogView(s))
}

func (h *Handler) requireToken(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := session.From(r.Context())
		if s == nil || !s.Authenticated() {
			if isHTMX(r) {
				w.Header().Set("HX-Redirect", "/")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next(w, r)
	})
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// done answers a state-changing request: htmx gets the fragment, plain form
// posts are sent back to the page.
func (h *Handler) done(w http.ResponseWriter, r *http.Request, fragment string, data any) {
	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderFragment(w, r, http.StatusOK, fragment, data)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	if err := h.view.page(w, status, page, data); err != nil {
		h.renderError(w, r, err)
	}
}

func (h *Handler) renderFragment(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := h.view.fragment(w, status, name, data); err != nil {
		h.renderError(w, r, err)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Render failed", zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
