// Package session keeps per-browser state in memory, addressed by a signed
// cookie.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/product"
)

const (
	defaultCookieName  = "storefront_session"
	defaultIdleTimeout = 30 * time.Minute
	defaultMaxSessions = 100_000
)

// ErrInvalidConfig indicates the store was initialised with missing options.
var ErrInvalidConfig = errors.New("session: invalid config")

// Config controls the session cookie and idle eviction.
type Config struct {
	CookieName string
	// HashKey signs the cookie. Required.
	HashKey []byte
	// BlockKey optionally encrypts the cookie (16, 24 or 32 bytes).
	BlockKey     []byte
	CookieSecure bool
	IdleTimeout  time.Duration
	// MaxSessions caps live sessions; creating one more evicts the least
	// recently used.
	MaxSessions int
	Now         func() time.Time
}

// Store holds live sessions. Sessions are lost on restart.
type Store struct {
	cfg   Config
	codec *securecookie.SecureCookie
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session

	loads singleflight.Group
}

// NewStore constructs a Store using the provided configuration.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.HashKey) == 0 {
		return nil, errors.Wrap(ErrInvalidConfig, "hash key is required")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	var blockKey []byte
	if len(cfg.BlockKey) > 0 {
		blockKey = cfg.BlockKey
	}
	codec := securecookie.New(cfg.HashKey, blockKey)
	codec.MaxAge(int(cfg.IdleTimeout.Seconds()))

	return &Store{
		cfg:      cfg,
		codec:    codec,
		now:      now,
		sessions: make(map[string]*Session),
	}, nil
}

// Lookup returns the live session addressed by the request cookie, or nil
// when the cookie is missing, invalid or refers to an evicted session.
func (st *Store) Lookup(r *http.Request) *Session {
	c, err := r.Cookie(st.cfg.CookieName)
	if err != nil {
		return nil
	}
	var id string
	if err := st.codec.Decode(st.cfg.CookieName, c.Value, &id); err != nil {
		return nil
	}

	st.mu.Lock()
	s, ok := st.sessions[id]
	st.mu.Unlock()
	if !ok {
		return nil
	}
	s.touch(st.now())
	return s
}

// Create starts a new session and sets its cookie on w. At capacity the
// least recently used session is evicted first.
func (st *Store) Create(w http.ResponseWriter) (*Session, error) {
	s := newSession(uuid.NewString(), st.now())
	encoded, err := st.codec.Encode(st.cfg.CookieName, s.id)
	if err != nil {
		return nil, errors.Wrap(err, "encode cookie")
	}

	st.mu.Lock()
	for len(st.sessions) >= st.cfg.MaxSessions {
		st.evictOldestLocked()
	}
	st.sessions[s.id] = s
	st.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     st.cfg.CookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   st.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return s, nil
}

func (st *Store) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, s := range st.sessions {
		if seen := s.idleSince(); oldestID == "" || seen.Before(oldest) {
			oldestID, oldest = id, seen
		}
	}
	delete(st.sessions, oldestID)
}

// Middleware attaches the request's session, if any, to its context.
// Requests without one carry no session; only Create adds sessions.
func (st *Store) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s := st.Lookup(r); s != nil {
				r = r.WithContext(WithSession(r.Context(), s))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// EnsureCatalog performs the one catalog fetch of s if it has not happened
// yet. Concurrent callers for the same session share a single upstream call.
// The fetch is detached from ctx cancellation so a disconnecting client does
// not fail the catalog for the rest of the session; the source is expected
// to bound its own duration.
func (st *Store) EnsureCatalog(ctx context.Context, s *Session, src product.Source) error {
	if s.phase() != catalog.PhaseLoading {
		return nil
	}
	_, err, _ := st.loads.Do(s.id, func() (any, error) {
		if s.phase() != catalog.PhaseLoading {
			return nil, nil
		}
		products, err := src.List(context.WithoutCancel(ctx))
		s.Do(func(c *catalog.State, _ *cart.Cart) {
			c.Resolve(products, err)
		})
		return nil, err
	})
	return err
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep evicts sessions idle for longer than the configured timeout and
// returns how many were removed.
func (st *Store) Sweep(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	var removed int
	for id, s := range st.sessions {
		if now.Sub(s.idleSince()) > st.cfg.IdleTimeout {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper evicts idle sessions every half idle timeout until ctx is
// cancelled.
func (st *Store) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(st.cfg.IdleTimeout / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st.Sweep(st.now())
			}
		}
	}()
}
