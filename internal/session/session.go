package session

import (
	"context"
	"sync"
	"time"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
)

// Session is the server-side state of one browser: the login token plus the
// catalog and cart shown after login.
type Session struct {
	id string

	mu       sync.Mutex
	token    string
	catalog  *catalog.State
	cart     *cart.Cart
	lastSeen time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		id:       id,
		catalog:  catalog.NewState(),
		cart:     cart.New(),
		lastSeen: now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Token returns the login token, empty before a successful login.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Authenticated reports whether a token is present.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// SetToken stores the token reported by a successful login. The catalog and
// cart start fresh, as on a newly mounted page.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.catalog = catalog.NewState()
	s.cart = cart.New()
}

// Do runs fn with exclusive access to the catalog and cart.
func (s *Session) Do(fn func(st *catalog.State, c *cart.Cart)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.catalog, s.cart)
}

func (s *Session) phase() catalog.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Phase()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type ctxKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// From returns the session stored in ctx, or nil.
func From(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
