package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/RoBiul-Hasan-Jisan/hudai/internal/auth"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/client/catalog"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/client/orders"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/client/remotecart"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/config"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/event"
	handler "github.com/RoBiul-Hasan-Jisan/hudai/internal/handler/http"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/service"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/session"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/storage"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/storage/memory"
	pgstore "github.com/RoBiul-Hasan-Jisan/hudai/internal/storage/postgres"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/storage/postgres/migrations"
	redisstore "github.com/RoBiul-Hasan-Jisan/hudai/internal/storage/redis"
	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/database"
	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/health"
	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/httpclient"
	pkgkafka "github.com/RoBiul-Hasan-Jisan/hudai/pkg/kafka"
	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/tracing"
)

// App wires together all dependencies and runs the cart service.
type App struct {
	cfg           *config.Config
	logger        *slog.Logger
	closers       []func() error
	traceShutdown func(context.Context) error
	cancelRouter  context.CancelFunc
	httpServer    *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	traceShutdown, err := tracing.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.traceShutdown = traceShutdown

	healthHandler := health.NewHandler()

	backend, err := a.openStorage(ctx, healthHandler)
	if err != nil {
		a.close()
		return nil, err
	}
	sessions := session.NewManager(backend, cfg.SessionCacheSize, cfg.SessionIdleTimeout, logger)

	// Upstream storefront API, one breaker per resource.
	upstreamClient := httpclient.New(cfg.Upstream)
	catalogClient := catalog.New(
		httpclient.NewCircuitBreakerClient(upstreamClient, httpclient.DefaultCircuitBreakerConfig("catalog"), logger),
		cfg.APIBaseURL,
	)
	ordersClient := orders.New(
		httpclient.NewCircuitBreakerClient(upstreamClient, httpclient.DefaultCircuitBreakerConfig("orders"), logger),
		cfg.APIBaseURL,
	)
	remoteCartClient := remotecart.New(
		httpclient.NewCircuitBreakerClient(upstreamClient, httpclient.DefaultCircuitBreakerConfig("remote-cart"), logger),
		cfg.APIBaseURL,
	)
	healthHandler.RegisterOptional("catalog", func(ctx context.Context) error {
		_, err := catalogClient.Categories(ctx)
		return err
	})

	var publisher event.Publisher = event.Noop{}
	if cfg.EventsEnabled {
		producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		if err := producer.Ping(ctx); err != nil {
			logger.Warn("kafka unreachable, continuing in degraded mode",
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		}
		a.closers = append(a.closers, producer.Close)
		healthHandler.RegisterOptional("kafka", producer.Ping)
		publisher = event.NewProducer(producer, logger)
	}

	// Build the dependency graph.
	cartService := service.NewCartService(sessions, catalogClient, ordersClient, remoteCartClient,
		publisher, cfg.Pricing(), logger)
	storefrontService := service.NewStorefrontService(catalogClient, ordersClient, logger)
	tokens := auth.NewValidator(cfg.JWTSecret, cfg.JWTIssuer)

	routerCtx, cancelRouter := context.WithCancel(context.Background())
	a.cancelRouter = cancelRouter
	router := handler.NewRouter(routerCtx, cartService, storefrontService, healthHandler, tokens.Validate,
		handler.RouterConfig{
			CORSOrigins:    cfg.CORSAllowedOrigins,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
		}, logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// openStorage connects the durable backend selected by the storage driver and
// registers it as a required health check.
func (a *App) openStorage(ctx context.Context, healthHandler *health.Handler) (storage.Backend, error) {
	cfg, logger := a.cfg, a.logger

	var backend storage.Backend
	switch cfg.StorageDriver {
	case config.StorageRedis:
		rdb, err := database.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		logger.Info("connected to Redis",
			slog.String("addr", cfg.Redis.Addr()),
			slog.Int("db", cfg.Redis.DB),
		)
		backend = redisstore.NewStorage(rdb, cfg.CartTTL)

	case config.StoragePostgres:
		pool, err := database.NewPostgresPool(ctx, &cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.Postgres.Host),
			slog.String("database", cfg.Postgres.DBName),
		)

		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")

		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool); err != nil {
			logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
		}
		if cfg.SlowQueryThreshold > 0 {
			database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)
		}
		backend = pgstore.NewStorage(pool)

	case config.StorageMemory:
		logger.Warn("using in-memory cart storage; carts are lost on restart")
		backend = memory.New()

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	healthHandler.Register(cfg.StorageDriver, backend.Ping)
	return backend, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("storage", a.cfg.StorageDriver),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.close()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}
	if err := a.traceShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}
	a.close()

	a.logger.Info("application shutdown complete")
	return nil
}

// close releases connections in reverse order of acquisition.
func (a *App) close() {
	if a.cancelRouter != nil {
		a.cancelRouter()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("close error", slog.String("error", err.Error()))
		}
	}
	a.closers = nil
}
