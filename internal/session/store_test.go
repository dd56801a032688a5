package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/product"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	calls    atomic.Int32
	products []product.Product
	err      error
	wait     chan struct{}
}

func (f *fakeSource) List(ctx context.Context) ([]product.Product, error) {
	f.calls.Add(1)
	if f.wait != nil {
		<-f.wait
	}
	return f.products, f.err
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T, now func() time.Time) *Store {
	t.Helper()
	st, err := NewStore(Config{
		HashKey:     []byte("0123456789abcdef0123456789abcdef"),
		BlockKey:    []byte("abcdef0123456789"),
		IdleTimeout: time.Minute,
		Now:         now,
	})
	require.NoError(t, err)
	return st
}

func TestNewStore_RequiresHashKey(t *testing.T) {
	_, err := NewStore(Config{})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func withCookies(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestStore_Create(t *testing.T) {
	st := newTestStore(t, nil)

	rec := httptest.NewRecorder()
	s, err := st.Create(rec)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())
	assert.False(t, s.Authenticated())
	assert.Equal(t, 1, st.Len())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, defaultCookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.NotContains(t, c.Value, s.ID())
}

func TestStore_Lookup(t *testing.T) {
	st := newTestStore(t, nil)

	t.Run("returns session for cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		first, err := st.Create(rec)
		require.NoError(t, err)
		first.SetToken("tok")

		second := st.Lookup(withCookies(rec))
		assert.Same(t, first, second)
		assert.Equal(t, "tok", second.Token())
	})

	t.Run("missing cookie", func(t *testing.T) {
		assert.Nil(t, st.Lookup(httptest.NewRequest(http.MethodGet, "/", nil)))
	})

	t.Run("tampered cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: defaultCookieName, Value: "forged"})
		assert.Nil(t, st.Lookup(req))
	})
}

func TestStore_CreateEvictsLeastRecentlyUsed(t *testing.T) {
	clk := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	st, err := NewStore(Config{
		HashKey:     []byte("0123456789abcdef0123456789abcdef"),
		MaxSessions: 2,
		Now:         clk.Now,
	})
	require.NoError(t, err)

	recA := httptest.NewRecorder()
	a, err := st.Create(recA)
	require.NoError(t, err)
	clk.Advance(time.Second)
	recB := httptest.NewRecorder()
	_, err = st.Create(recB)
	require.NoError(t, err)

	// Using a makes b the least recently used.
	clk.Advance(time.Second)
	require.Same(t, a, st.Lookup(withCookies(recA)))

	clk.Advance(time.Second)
	_, err = st.Create(httptest.NewRecorder())
	require.NoError(t, err)

	assert.Equal(t, 2, st.Len())
	assert.Same(t, a, st.Lookup(withCookies(recA)))
	assert.Nil(t, st.Lookup(withCookies(recB)))
}

func TestStore_Middleware(t *testing.T) {
	st := newTestStore(t, nil)

	var (
		got    *Session
		called bool
	)
	h := st.Middleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		called = true
		got = From(r.Context())
	}))

	t.Run("anonymous request gets no session", func(t *testing.T) {
		for range 100 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Empty(t, rec.Result().Cookies())
		}
		require.True(t, called)
		assert.Nil(t, got)
		assert.Zero(t, st.Len())
	})

	t.Run("known cookie attaches session", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s, err := st.Create(rec)
		require.NoError(t, err)

		h.ServeHTTP(httptest.NewRecorder(), withCookies(rec))
		assert.Same(t, s, got)
	})

	assert.Nil(t, From(context.Background()))
}

func TestSession_SetTokenResetsState(t *testing.T) {
	s := newSession("id", time.Now())
	s.Do(func(st *catalog.State, c *cart.Cart) {
		st.Resolve([]product.Product{{ID: 1, Price: decimal.NewFromInt(5)}}, nil)
		require.True(t, c.Add(st.Products(), 1))
	})

	s.SetToken("tok")

	s.Do(func(st *catalog.State, c *cart.Cart) {
		assert.Equal(t, catalog.PhaseLoading, st.Phase())
		assert.Zero(t, c.Count())
	})
}

func TestStore_EnsureCatalog(t *testing.T) {
	products := []product.Product{
		{ID: 1, Title: "Laptop", Price: decimal.NewFromInt(900)},
		{ID: 2, Title: "Phone", Price: decimal.NewFromInt(500)},
	}

	t.Run("fetches once", func(t *testing.T) {
		st := newTestStore(t, nil)
		s := newSession("a", time.Now())
		src := &fakeSource{products: products}

		require.NoError(t, st.EnsureCatalog(context.Background(), s, src))
		require.NoError(t, st.EnsureCatalog(context.Background(), s, src))

		assert.EqualValues(t, 1, src.calls.Load())
		s.Do(func(c *catalog.State, _ *cart.Cart) {
			assert.Equal(t, catalog.PhaseReady, c.Phase())
			assert.Len(t, c.Visible(), 2)
		})
	})

	t.Run("failure is terminal", func(t *testing.T) {
		st := newTestStore(t, nil)
		s := newSession("b", time.Now())
		src := &fakeSource{err: errors.New("boom")}

		require.Error(t, st.EnsureCatalog(context.Background(), s, src))
		require.NoError(t, st.EnsureCatalog(context.Background(), s, src))

		assert.EqualValues(t, 1, src.calls.Load())
		s.Do(func(c *catalog.State, _ *cart.Cart) {
			assert.Equal(t, catalog.PhaseFailed, c.Phase())
		})
	})

	t.Run("concurrent callers share fetch", func(t *testing.T) {
		st := newTestStore(t, nil)
		s := newSession("c", time.Now())
		src := &fakeSource{products: products, wait: make(chan struct{})}

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, st.EnsureCatalog(context.Background(), s, src))
			}()
		}
		require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
		time.Sleep(10 * time.Millisecond)
		close(src.wait)
		wg.Wait()

		assert.EqualValues(t, 1, src.calls.Load())
	})

	t.Run("survives cancelled request", func(t *testing.T) {
		st := newTestStore(t, nil)
		s := newSession("d", time.Now())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		src := &fakeSource{products: products}
		require.NoError(t, st.EnsureCatalog(ctx, s, src))
		s.Do(func(c *catalog.State, _ *cart.Cart) {
			assert.Equal(t, catalog.PhaseReady, c.Phase())
		})
	})
}

func TestStore_Sweep(t *testing.T) {
	clk := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	st := newTestStore(t, clk.Now)

	rec := httptest.NewRecorder()
	_, err := st.Create(rec)
	require.NoError(t, err)
	clk.Advance(45 * time.Second)
	_, err = st.Create(httptest.NewRecorder())
	require.NoError(t, err)
	require.Equal(t, 2, st.Len())

	clk.Advance(30 * time.Second)
	assert.Equal(t, 1, st.Sweep(clk.Now()))
	assert.Equal(t, 1, st.Len())
	assert.Nil(t, st.Lookup(withCookies(rec)))
}

func TestStore_StartSweeperStops(t *testing.T) {
	st := newTestStore(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	st.StartSweeper(ctx)
	cancel()
	// goleak in TestMain fails the run if the sweeper outlives ctx.
	time.Sleep(10 * time.Millisecond)
}
