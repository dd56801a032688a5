package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/gorilla/securecookie"
	"github.com/klauspost/pgzip"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/dummyjson"
	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/internal/session"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("upstream", cfg.Upstream.BaseURL),
	)

	unit, err := cfg.CurrencyUnit()
	if err != nil {
		return err
	}

	client := dummyjson.NewClient(cfg.Upstream.BaseURL,
		dummyjson.WithTimeout(cfg.Upstream.Timeout),
		dummyjson.WithTelemetry(m.TracerProvider(), m.MeterProvider()),
	)

	hashKey := []byte(cfg.Session.HashKey)
	if len(hashKey) == 0 {
		// Sessions live in memory, so a per-process key loses nothing.
		hashKey = securecookie.GenerateRandomKey(32)
	}
	sessions, err := session.NewStore(session.Config{
		CookieName:   cfg.Session.CookieName,
		HashKey:      hashKey,
		BlockKey:     []byte(cfg.Session.BlockKey),
		CookieSecure: cfg.Session.Secure,
		IdleTimeout:  cfg.Session.IdleTimeout,
		MaxSessions:  cfg.Session.MaxSessions,
	})
	if err != nil {
		return errors.Wrap(err, "create session store")
	}
	sessions.StartSweeper(ctx)

	if _, err := m.MeterProvider().Meter("storefront").Int64ObservableGauge("storefront.sessions.active",
		metric.WithDescription("Live in-memory sessions"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(sessions.Len()))
			return nil
		}),
	); err != nil {
		return errors.Wrap(err, "register session gauge")
	}

	// Health check service.
	healthSvc := health.New(lg.Named("health"))
	healthSvc.Add(health.Liveness, "goroutines", health.GoroutineCountCheck(10000))
	healthSvc.Add(health.Readiness, "upstream", health.PingCheck(client), health.WithTimeout(5*time.Second))
	healthSvc.Start(ctx, 10*time.Second)
	defer healthSvc.Stop()

	h, err := handler.NewHandler(handler.HandlerConfig{Currency: unit}, client, client, sessions)
	if err != nil {
		return errors.Wrap(err, "create handler")
	}

	loginLimiter := httpmiddleware.NewLimiter(httpmiddleware.RateLimitConfig{
		Max:     cfg.RateLimit.Max,
		Window:  cfg.RateLimit.Window,
		KeyFunc: httpmiddleware.ClientIPAndForm("username"),
		Message: "Too many login attempts. Please try again later.",
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux, loginLimiter.Middleware())

	routeFinder := httpmiddleware.MakeRouteFinder(mux)
	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		// Covers the upstream call made while rendering the catalog.
		WriteTimeout:   cfg.Upstream.Timeout + 10*time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		Addr:           cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Recovery(),
			httpmiddleware.Instrument("storefront", routeFinder, m.MeterProvider()),
			httpmiddleware.Compress(pgzip.DefaultCompression),
		),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loginLimiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		// Graceful shutdown: wait for cancellation, drain, then stop.
		<-gctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})

	healthSvc.SetReady(true)
	return g.Wait()
}
