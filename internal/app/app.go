package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xenking/hotel-delivery/internal/cache"
	"github.com/xenking/hotel-delivery/internal/domain/checkout"
	"github.com/xenking/hotel-delivery/internal/domain/customer"
	"github.com/xenking/hotel-delivery/internal/domain/menu"
	"github.com/xenking/hotel-delivery/internal/domain/offer"
	"github.com/xenking/hotel-delivery/internal/domain/order"
	"github.com/xenking/hotel-delivery/internal/domain/packaging"
	"github.com/xenking/hotel-delivery/internal/handler"
	"github.com/xenking/hotel-delivery/internal/repository"
	"github.com/xenking/hotel-delivery/pkg/health"
	"github.com/xenking/hotel-delivery/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Redis holds cart sessions and the menu cache.
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return errors.Wrap(err, "parse redis url")
	}
	rdb := redis.NewClient(redisOpts)
	defer func() { _ = rdb.Close() }()

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck("postgres", pool))
	healthSvc.AddReadinessCheck("redis", 2*time.Second, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}, health.WithFailureThreshold(3))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(500*time.Millisecond), health.Optional())
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	menuRepo := cache.NewMenu(repository.NewMenuRepository(pool), rdb, cfg.MenuCache.TTL)
	offerRepo := repository.NewOfferRepository(pool)
	ruleRepo := repository.NewPackagingRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	apikeyRepo := repository.NewAPIKeyRepository(pool)
	carts := cache.NewCartStore(rdb, cfg.Cart.TTL)

	// Domain services.
	customerSvc := customer.NewService(customerRepo)
	packagingSvc := packaging.NewService(ruleRepo, menuRepo)
	checkoutSvc, err := checkout.NewService(carts, menuRepo, offerRepo, orderRepo, customerSvc,
		checkout.WithTracerProvider(m.TracerProvider()),
		checkout.WithMeterProvider(m.MeterProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "create checkout service")
	}

	// HTTP handlers.
	h := handler.NewHandler(handler.HandlerConfig{ImageBaseURL: cfg.ImageBaseURL}, handler.Services{
		Menu:      menu.NewService(menuRepo, menu.WithRepricer(packagingSvc)),
		Offers:    offer.NewService(offerRepo),
		Packaging: packagingSvc,
		Checkout:  checkoutSvc,
		Orders:    order.NewService(orderRepo),
		Customers: customerSvc,
	})
	api := h.Routes(handler.Guards{
		Admin: handler.APIKeyAuth(apikeyRepo, []byte(cfg.APIKeyPepper)),
		OfferAttempts: httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
			Max:     cfg.RateLimit.OfferAttempts,
			Window:  cfg.RateLimit.OfferWindow,
			Message: "too many offer code attempts",
		}),
	},
		httpmiddleware.Instrument("delivery-api", httpmiddleware.ChiRoute, m),
		httpmiddleware.LogRequests(httpmiddleware.ChiRoute),
		httpmiddleware.Labeler(httpmiddleware.ChiRoute),
	)

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", api)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.RequestID(),
			httpmiddleware.Recovery(lg),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", handler.APIKeyHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
		),
	}

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
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
