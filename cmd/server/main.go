package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	financeapp "github.com/retailcore/backend/internal/application/finance"
	inventoryapp "github.com/retailcore/backend/internal/application/inventory"
	appshared "github.com/retailcore/backend/internal/application/shared"
	tradeapp "github.com/retailcore/backend/internal/application/trade"
	"github.com/retailcore/backend/internal/infrastructure/cache"
	"github.com/retailcore/backend/internal/infrastructure/config"
	"github.com/retailcore/backend/internal/infrastructure/logger"
	"github.com/retailcore/backend/internal/infrastructure/persistence"
	"github.com/retailcore/backend/internal/infrastructure/telemetry"
	"github.com/retailcore/backend/internal/interfaces/http/handler"
	"github.com/retailcore/backend/internal/interfaces/http/middleware"
	"github.com/retailcore/backend/internal/interfaces/http/router"
)

//	@title			Retail Fulfillment API
//	@version		1.0
//	@description	Order fulfillment, stock ledger, customer debts and cash session reconciliation.
//	@BasePath		/api/v1

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	serviceName := cfg.Telemetry.ServiceName

	// OTLP log export is teed into the primary logger once the provider is up
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	if logProvider.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(logProvider, serviceName, logger.ParseLevel(cfg.Log.Level))
		if log, err = logger.New(logCfg, otelCore); err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = log.Sync()
	}()
	zap.ReplaceGlobals(log)

	log.Info("Starting retail backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	meter := meterProvider.Meter(serviceName)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		ProfileTypes:      cfg.Profiling.ProfileTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && cfg.Profiling.SpanProfiles {
		tracerProvider.EnableSpanProfiles()
	}

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh

	db, err := persistence.NewDatabase(&cfg.Database, dbTracing, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to access database pool", zap.Error(err))
	}

	cacheFactory := cache.NewFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	redisClient, err := cacheFactory.Connect(ctx)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	businessMetrics, err := telemetry.NewBusinessMetrics(meter)
	if err != nil {
		log.Fatal("Failed to register business metrics", zap.Error(err))
	}

	// Repositories
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	debtRepo := persistence.NewGormDebtRepository(db.DB)
	sessionRepo := persistence.NewGormCashSessionRepository(db.DB)
	uow := persistence.NewGormUnitOfWork(db.DB)

	// Application services
	retry := appshared.RetryPolicy{
		MaxAttempts:     cfg.Fulfillment.MaxAttempts,
		InitialInterval: cfg.Fulfillment.InitialBackoff,
		MaxInterval:     cfg.Fulfillment.MaxBackoff,
	}

	orderService := tradeapp.NewOrderFulfillmentService(uow, orderRepo)
	orderService.SetRetryPolicy(retry)
	orderService.SetIdempotencyStore(cacheFactory.IdempotencyStore(), cfg.Fulfillment.IdempotencyTTL)
	orderService.SetMetrics(businessMetrics)
	orderService.SetLogger(log)

	stockService := inventoryapp.NewStockService(uow, movementRepo)
	stockService.SetRetryPolicy(retry)
	stockService.SetMetrics(businessMetrics)
	stockService.SetLogger(log)

	debtService := financeapp.NewDebtService(uow, debtRepo)
	debtService.SetSummaryCache(cacheFactory.SummaryCache(), cfg.Finance.SummaryCacheTTL)
	debtService.SetSalesReader(persistence.NewReportingReader(sqlDB))
	debtService.SetMetrics(businessMetrics)
	debtService.SetLogger(log)

	sessionService := financeapp.NewCashSessionService(uow, sessionRepo)
	sessionService.SetMetrics(businessMetrics)
	sessionService.SetLogger(log)

	// HTTP handlers
	orderHandler := handler.NewOrderHandler(orderService)
	orderHandler.RequireIdempotencyKey(cfg.Fulfillment.RequireIdempKey)

	healthHandler := handler.NewHealthHandler(cfg.App.Name, telemetry.ServiceVersion)
	healthHandler.AddCheck("database", db.Ping)
	if redisClient != nil {
		healthHandler.AddCheck("redis", redisCheck(redisClient))
	}

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine, err := router.New(router.Options{
		Logger:         log,
		ServiceName:    serviceName,
		TracingEnabled: tracerProvider.IsEnabled(),
		Meter:          meter,
		MetricsEnabled: cfg.Telemetry.MetricsEnabled,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		CORS:           corsCfg,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	}, router.Handlers{
		Orders:       orderHandler,
		Debts:        handler.NewDebtHandler(debtService),
		CashSessions: handler.NewCashSessionHandler(sessionService),
		Stock:        handler.NewStockHandler(stockService),
		Health:       healthHandler,
	})
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()
	log.Info("Shutting down server...")

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	shutdown(shutdownCtx, log,
		namedCloser{"cache", func(context.Context) error { return cacheFactory.Close() }},
		namedCloser{"database", func(context.Context) error { return db.Close() }},
		namedCloser{"profiler", func(context.Context) error { return profiler.Stop() }},
		namedCloser{"metrics", meterProvider.Shutdown},
		namedCloser{"tracing", tracerProvider.Shutdown},
		namedCloser{"log exporter", logProvider.Shutdown},
	)

	log.Info("Server exited gracefully")
	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		os.Exit(1)
	}
}

type namedCloser struct {
	name  string
	close func(context.Context) error
}

// shutdown releases resources in order, logging and continuing on failure
func shutdown(ctx context.Context, log *zap.Logger, closers ...namedCloser) {
	for _, c := range closers {
		if err := c.close(ctx); err != nil {
			log.Error("Error during shutdown", zap.String("component", c.name), zap.Error(err))
		}
	}
}

func redisCheck(client *redis.Client) handler.ReadinessCheck {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
