package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/kokoro-shop/storefront/db"
	"github.com/kokoro-shop/storefront/internal/domain/cart"
	"github.com/kokoro-shop/storefront/internal/domain/product"
	"github.com/kokoro-shop/storefront/internal/domain/promo"
	"github.com/kokoro-shop/storefront/internal/handler"
	"github.com/kokoro-shop/storefront/internal/storage/file"
	"github.com/kokoro-shop/storefront/internal/storage/memory"
	"github.com/kokoro-shop/storefront/internal/storage/postgres"
	"github.com/kokoro-shop/storefront/pkg/health"
	"github.com/kokoro-shop/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage),
	)

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Repositories per storage backend. Memory and file modes serve the
	// embedded catalog; postgres serves whatever seed-db loaded.
	var (
		cartRepo    cart.Repository
		productRepo product.Repository
	)
	switch cfg.Storage {
	case StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))

		cartRepo = postgres.NewCartRepository(pool)
		productRepo = postgres.NewProductRepository(pool)
	case StorageFile:
		repo, err := file.NewCartRepository(cfg.StateDir)
		if err != nil {
			return errors.Wrap(err, "create cart state dir")
		}
		cartRepo = repo

		catalog, err := product.DecodeCatalog(db.SeedProducts)
		if err != nil {
			return errors.Wrap(err, "load embedded catalog")
		}
		productRepo = memory.NewProductRepository(catalog)
	case StorageMemory:
		cartRepo = memory.NewCartRepository()

		catalog, err := product.DecodeCatalog(db.SeedProducts)
		if err != nil {
			return errors.Wrap(err, "load embedded catalog")
		}
		productRepo = memory.NewProductRepository(catalog)
	default:
		return errors.Errorf("unknown storage backend %q", cfg.Storage)
	}

	healthSvc.Start(ctx, 10*time.Second)
	defer healthSvc.Stop()

	// Promo table: static codes from config, plus optional bulk sets loaded
	// into a bloom filter.
	rules, err := cfg.PromoRules()
	if err != nil {
		return errors.Wrap(err, "parse promo codes")
	}
	promoTable, err := promo.NewTable(rules)
	if err != nil {
		return errors.Wrap(err, "build promo table")
	}
	if len(cfg.Promo.BulkFiles) > 0 {
		start := time.Now()
		filter, err := promo.LoadBulkFilter(ctx, cfg.Promo.BulkFiles, cfg.Promo.BulkCapacity, cfg.Promo.BulkFPR)
		if err != nil {
			return errors.Wrap(err, "load bulk promo codes")
		}
		if err := promoTable.SetBulkSet(filter, cfg.BulkFraction()); err != nil {
			return errors.Wrap(err, "set bulk promo set")
		}
		lg.Info("Bulk promo codes loaded",
			zap.Int("files", len(cfg.Promo.BulkFiles)),
			zap.Duration("took", time.Since(start)),
		)
	}

	pricingCfg, err := cfg.PricingConfig()
	if err != nil {
		return errors.Wrap(err, "parse pricing config")
	}

	cartStore := cart.NewStore(cartRepo)

	h, err := handler.NewHandler(productRepo, cartStore, promoTable, pricingCfg, m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create handler")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	wrapped := httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "X-Cart-Session"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.LogRequests(),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(wrapped, "storefront-api",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
			otelhttp.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != "/livez" && r.URL.Path != "/readyz"
			}),
		),
	}

	healthSvc.SetReady(true)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
