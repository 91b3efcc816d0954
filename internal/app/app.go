package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/gustavofullstack/udia-reviews-v2/internal/config"
	"github.com/gustavofullstack/udia-reviews-v2/internal/event"
	handler "github.com/gustavofullstack/udia-reviews-v2/internal/handler/http"
	"github.com/gustavofullstack/udia-reviews-v2/internal/orders"
	"github.com/gustavofullstack/udia-reviews-v2/internal/render"
	"github.com/gustavofullstack/udia-reviews-v2/internal/repository"
	"github.com/gustavofullstack/udia-reviews-v2/internal/repository/memory"
	"github.com/gustavofullstack/udia-reviews-v2/internal/repository/postgres"
	redisrepo "github.com/gustavofullstack/udia-reviews-v2/internal/repository/redis"
	"github.com/gustavofullstack/udia-reviews-v2/internal/service"
	"github.com/gustavofullstack/udia-reviews-v2/migrations"
	"github.com/gustavofullstack/udia-reviews-v2/pkg/database"
	"github.com/gustavofullstack/udia-reviews-v2/pkg/health"
	"github.com/gustavofullstack/udia-reviews-v2/pkg/httpclient"
	pkgkafka "github.com/gustavofullstack/udia-reviews-v2/pkg/kafka"
	"github.com/gustavofullstack/udia-reviews-v2/pkg/middleware"
	"github.com/gustavofullstack/udia-reviews-v2/pkg/tracing"
)

const serviceName = "reviews"

// App wires together all dependencies and runs the reviews service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	orderConsumer  *pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	if err := a.build(ctx); err != nil {
		a.closeResources()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	healthHandler := health.NewHandler()

	repo, err := a.openReviewStore(ctx, healthHandler)
	if err != nil {
		return err
	}

	redisCfg := database.DefaultRedisConfig()
	redisCfg.Addr = cfg.RedisAddr
	redisCfg.Password = cfg.RedisPassword
	redisCfg.DB = cfg.RedisDB
	rdb, err := database.NewRedisClient(ctx, redisCfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rdb
	logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})

	// Order service client behind a circuit breaker.
	baseClient := httpclient.New(httpclient.DefaultConfig())
	cbCfg := httpclient.CircuitBreakerConfig{
		Name:         "reviews-order-lookup",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, logger).
		WithFallback(orders.CircuitOpenFallback)
	orderClient := orders.NewClient(cbClient, cfg.OrderServiceURL, cfg.EligibleStatuses(), logger).
		WithLookback(cfg.OrderLookback)

	renderer, err := render.New(cfg.FeedbackURL)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	policy := service.RateLimitPolicy{
		Action:      service.DefaultRateLimitPolicy().Action,
		MaxAttempts: cfg.RateLimitMaxAttempts,
		Window:      cfg.RateLimitWindow(),
		Interval:    cfg.SubmitInterval(),
	}
	limiter := service.NewRateLimiter(redisrepo.NewRateLimitStore(rdb), policy)
	resolver := service.NewResolver(orderClient, redisrepo.NewLastOrderCache(rdb, cfg.LastOrderCacheTTL()), logger)
	stats := service.NewStatsService(repo, redisrepo.NewStatsCache(rdb, cfg.StatsCacheTTL()), logger)
	fragments := service.NewFragmentCache(redisrepo.NewFragmentCache(rdb), logger)
	security := service.NewSecurityLog(redisrepo.NewSecurityLog(rdb, cfg.SecurityLogMax), logger)
	listing := service.NewListingService(repo, stats, renderer, fragments, cfg.FragmentCacheTTL())
	submissions := service.NewSubmissionService(repo, limiter, resolver, stats, fragments, security, renderer,
		service.ContentBounds{Min: cfg.ContentMinLength, Max: cfg.ContentMaxLength}, logger)
	admin := service.NewAdminService(repo, stats, fragments, security, logger)

	if cfg.KafkaEnabled {
		a.startKafka(rdb, resolver, submissions, admin, healthHandler)
	}

	var validate middleware.TokenValidator
	if cfg.JWTSecret != "" {
		validate = middleware.HMACValidator([]byte(cfg.JWTSecret))
	}
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins

	router := handler.NewRouter(
		handler.NewReviewHandler(submissions, listing, resolver, logger),
		handler.NewAdminHandler(admin, logger),
		healthHandler,
		handler.RouterConfig{
			Validator:    validate,
			TrustGateway: cfg.TrustGateway,
			CORS:         corsCfg,
			PprofCIDRs:   cfg.PprofAllowedCIDRs,
			EdgeRPS:      cfg.EdgeRPS,
			EdgeBurst:    cfg.EdgeBurst,
			CacheMaxAge:  cfg.HTTPCacheMaxAgeSeconds,
		},
		logger,
	)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

func (a *App) openReviewStore(ctx context.Context, healthHandler *health.Handler) (repository.ReviewRepository, error) {
	cfg, logger := a.cfg, a.logger
	if cfg.ReviewStore == config.StoreMemory {
		logger.Warn("using in-memory review store; reviews are lost on restart")
		return memory.NewReviewRepository(), nil
	}

	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	return postgres.NewReviewRepository(pool), nil
}

// startKafka publishes review events through observers and consumes order
// events to keep the last-order cache fresh.
func (a *App) startKafka(rdb *goredis.Client, resolver *service.Resolver, submissions *service.SubmissionService, admin *service.AdminService, healthHandler *health.Handler) {
	cfg, logger := a.cfg, a.logger

	a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	events := event.NewProducer(a.producer, logger)
	submissions.AddObserver(events)
	admin.AddObserver(events)

	a.dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
	idempotency := pkgkafka.NewRedisIdempotencyStore(rdb, "reviews:events", 24*time.Hour)
	orderEvents := event.NewOrderConsumer(resolver, logger)
	a.orderConsumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaConsumerGroup,
		Topics:   event.OrderTopics(),
		MinBytes: 1,
		MaxBytes: 10e6,
	}, pkgkafka.IdempotentHandler(idempotency, orderEvents.Handle, logger), logger).WithDLQ(a.dlq)

	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return a.producer.Ping(ctx)
	})
}

// Run starts the HTTP server and the order consumer, then blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.orderConsumer != nil {
		go func() {
			if err := a.orderConsumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("order event consumer: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown stops components in order: HTTP server, order consumer, tracer,
// Kafka producers, Redis, PostgreSQL.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.orderConsumer != nil {
		if err := a.orderConsumer.Close(); err != nil {
			a.logger.Error("order consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	errs = append(errs, a.closeResources()...)

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeResources releases the clients opened by build. It is also used when
// build fails halfway.
func (a *App) closeResources() []error {
	var errs []error
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("kafka dlq close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errs
}

var (
	_ service.ReviewObserver   = (*event.Producer)(nil)
	_ service.DeletionObserver = (*event.Producer)(nil)
	_ service.OrderLookup      = (*orders.Client)(nil)
	_ event.LastOrderForgetter = (*service.Resolver)(nil)
)
