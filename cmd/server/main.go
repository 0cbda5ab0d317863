package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"budgetwise/internal/amqp"
	"budgetwise/internal/auth"
	"budgetwise/internal/cache"
	"budgetwise/internal/config"
	"budgetwise/internal/expenses"
	"budgetwise/internal/handlers"
	"budgetwise/internal/log"
	"budgetwise/internal/middleware"
	"budgetwise/internal/models"
	"budgetwise/internal/storage"

	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)

	db, err := storage.NewDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Info("Database ready", "dialect", string(db.Dialect()))

	issuer, err := newIssuer(cfg)
	if err != nil {
		return err
	}
	guard := auth.NewGuard(issuer)
	gate := auth.NewGate(db, issuer, cfg.BcryptCost)

	expenseCache, closeCache, err := newExpenseCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	publisher, closePublisher := newPublisher(cfg, logger)
	defer closePublisher()

	svc := expenses.NewService(db, guard,
		expenses.WithCache(expenseCache),
		expenses.WithPublisher(publisher),
		expenses.WithLogger(logger),
	)
	h := handlers.NewHandlers(gate, guard, svc, db)

	var limiter *middleware.RateLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitPerMinute)
		defer limiter.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           setupRouter(h, cfg, logger, limiter),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting BudgetWise API", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// newIssuer signs with the configured secret. Token lifetime is fixed at
// auth.DefaultTokenTTL and has no setting.
func newIssuer(cfg config.Config) (*auth.Issuer, error) {
	issuer, err := auth.NewIssuer([]byte(cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}
	return issuer, nil
}

// setupRouter wraps the API routes in the shared middleware stack.
// limiter may be nil to disable rate limiting.
func setupRouter(h *handlers.Handlers, cfg config.Config, logger *log.Logger, limiter *middleware.RateLimiter) http.Handler {
	mws := []middleware.Middleware{
		log.Middleware(logger, middleware.ClientIP),
		middleware.Recover,
		middleware.SecurityHeaders,
		middleware.CORS(cfg.CORSAllowedOrigins),
	}
	if limiter != nil {
		mws = append(mws, limiter.Middleware)
	}
	mws = append(mws, middleware.LowercaseAPIPaths)

	return middleware.Chain(h.Routes(), mws...)
}

// newExpenseCache returns a Redis cache when REDIS_ADDR is set and an
// in-process LRU otherwise.
func newExpenseCache(ctx context.Context, cfg config.Config, logger *log.Logger) (cache.Cache[models.Expense], func(), error) {
	cacheLogger := logger.WithComponent(log.ComponentCache)

	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		cacheLogger.Info("Using Redis expense cache", "addr", cfg.RedisAddr)
		return cache.NewRedis[models.Expense](client, "budgetwise:", cfg.CacheTTL), func() { client.Close() }, nil
	}

	if cfg.CacheSize == 0 || cfg.CacheTTL == 0 {
		cacheLogger.Info("Expense cache disabled")
		return cache.Nop[models.Expense]{}, func() {}, nil
	}

	lru := cache.NewLRU[models.Expense](cfg.CacheSize, cfg.CacheTTL)
	manager := cache.NewManager()
	manager.Register(lru)
	manager.StartCleanup(cfg.CacheTTL, func(n int) {
		cacheLogger.Debug("Expired cache entries removed", "count", n)
	})
	cacheLogger.Info("Using in-process expense cache", "size", cfg.CacheSize, "ttl", cfg.CacheTTL.String())
	return lru, manager.Stop, nil
}

// newPublisher connects to the broker when AMQP_URL is set. A broker that
// cannot be reached disables publishing instead of failing startup.
func newPublisher(cfg config.Config, logger *log.Logger) (amqp.Publisher, func()) {
	amqpLogger := logger.WithComponent(log.ComponentAMQP)
	if cfg.AMQPURL == "" {
		return amqp.Nop{}, func() {}
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		amqpLogger.Error("Failed to initialize AMQP client, events disabled", log.FieldError, err)
		return amqp.Nop{}, func() {}
	}
	amqpLogger.Info("Publishing expense events", "exchange", cfg.AMQPExchange)
	return client, func() { client.Close() }
}
