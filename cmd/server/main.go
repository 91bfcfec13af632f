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

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/crossbay/backend/internal/application/payment"
	"github.com/crossbay/backend/internal/application/quoting"
	"github.com/crossbay/backend/internal/application/reconciliation"
	"github.com/crossbay/backend/internal/domain/pricing"
	"github.com/crossbay/backend/internal/domain/shared"
	"github.com/crossbay/backend/internal/infrastructure/cache"
	"github.com/crossbay/backend/internal/infrastructure/config"
	"github.com/crossbay/backend/internal/infrastructure/event"
	"github.com/crossbay/backend/internal/infrastructure/logger"
	"github.com/crossbay/backend/internal/infrastructure/persistence"
	"github.com/crossbay/backend/internal/infrastructure/scheduler"
	"github.com/crossbay/backend/internal/infrastructure/telemetry"
	"github.com/crossbay/backend/internal/interfaces/http/handler"
	"github.com/crossbay/backend/internal/interfaces/http/middleware"
	"github.com/crossbay/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	log.Info("starting crossbay backend",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port))

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shut down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shut down meter provider", zap.Error(err))
		}
	}()

	var businessMetrics *telemetry.BusinessMetrics
	if cfg.Telemetry.Enabled {
		businessMetrics, err = telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:  meterProvider.Meter("crossbay-business"),
			Logger: log,
		})
		if err != nil {
			log.Warn("failed to initialize business metrics, continuing without", zap.Error(err))
		}
	}

	// Repositories
	quoteRepo := persistence.NewGormQuoteRepository(db.DB)
	transitionLogRepo := persistence.NewGormTransitionLogRepository(db.DB)
	paymentEventRepo := persistence.NewGormPaymentEventRepository(db.DB)
	refundRequestRepo := persistence.NewGormRefundRequestRepository(db.DB)
	profileRepo := persistence.NewGormProfileRepository(db.DB)
	rateRepo := persistence.NewGormRateRepository(db.DB)
	routeConfigRepo := persistence.NewGormRouteConfigRepository(db.DB)

	idempotencyStore := cache.NewIdempotencyStore(cfg, log)
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("failed to close idempotency store", zap.Error(err))
		}
	}()

	// Payments and refunds must serialize against each other per quote,
	// so both services share one lock set.
	quoteLocks := payment.NewQuoteLocks()

	publisher := event.NewInMemoryBus(log)
	publisher.Subscribe(event.NewAuditLogHandler(log), event.AuditedEventTypes()...)

	// Domain services
	rateResolver := pricing.NewRateResolver(rateRepo)
	calculator := pricing.NewCalculator(
		pricing.WithAmountCeiling(decimal.NewFromFloat(cfg.Pricing.AmountCeiling)),
	)

	// Application services
	quoteService := quoting.NewQuoteService(quoteRepo, transitionLogRepo, publisher, log)
	calculationService := quoting.NewCalculationService(
		quoteRepo, profileRepo, routeConfigRepo, rateResolver, calculator, log,
		quoting.WithCalculationMetrics(businessMetrics))
	expirationService := quoting.NewExpirationService(
		quoteRepo, transitionLogRepo, log,
		quoting.WithBatchSize(cfg.Expiration.BatchSize),
		quoting.WithExpirationMetrics(businessMetrics),
	)
	paymentService := payment.NewPaymentService(payment.PaymentServiceConfig{
		Quotes:      quoteRepo,
		Entries:     paymentEventRepo,
		Transitions: transitionLogRepo,
		Idempotency: idempotencyStore,
		IdemConfig: shared.IdempotencyConfig{
			TTL:     cfg.Idempotency.TTL,
			Enabled: cfg.Idempotency.Enabled,
		},
		Publisher: publisher,
		Metrics:   businessMetrics,
		Logger:    log,
		Locks:     quoteLocks,
		Epsilon:   decimal.NewFromFloat(cfg.Pricing.SettlementEpsilon),
	})
	refundService := payment.NewRefundService(payment.RefundServiceConfig{
		Quotes:    quoteRepo,
		Refunds:   refundRequestRepo,
		Entries:   paymentEventRepo,
		Publisher: publisher,
		Metrics:   businessMetrics,
		Logger:    log,
		Locks:     quoteLocks,
		Epsilon:   decimal.NewFromFloat(cfg.Pricing.SettlementEpsilon),
	})
	reconciliationOpts := []reconciliation.Option{
		reconciliation.WithTolerance(decimal.NewFromFloat(cfg.Reconciliation.Tolerance)),
		reconciliation.WithBatchSize(cfg.Reconciliation.BatchSize),
		reconciliation.WithMetrics(businessMetrics),
	}
	if cfg.Reconciliation.RepairCache {
		reconciliationOpts = append(reconciliationOpts, reconciliation.WithCacheRepair())
	}
	reconciliationService := reconciliation.NewReconciliationService(
		quoteRepo, paymentEventRepo, log, reconciliationOpts...)

	// Background schedulers
	expirationScheduler := scheduler.NewExpirationScheduler(expirationService, log,
		scheduler.ExpirationSchedulerConfig{
			Enabled:      cfg.Expiration.Enabled,
			Interval:     cfg.Expiration.SweepInterval,
			SweepTimeout: 30 * time.Second,
		})
	if err := expirationScheduler.Start(ctx); err != nil {
		log.Fatal("failed to start expiration scheduler", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := expirationScheduler.Stop(stopCtx); err != nil {
			log.Error("failed to stop expiration scheduler", zap.Error(err))
		}
	}()

	reconciliationScheduler := scheduler.NewReconciliationScheduler(reconciliationService, log,
		scheduler.ReconciliationSchedulerConfig{
			Enabled:    cfg.Reconciliation.Enabled,
			Interval:   cfg.Reconciliation.Interval,
			RunTimeout: 10 * time.Minute,
		})
	if err := reconciliationScheduler.Start(ctx); err != nil {
		log.Fatal("failed to start reconciliation scheduler", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := reconciliationScheduler.Stop(stopCtx); err != nil {
			log.Error("failed to stop reconciliation scheduler", zap.Error(err))
		}
	}()

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(logger.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowMethods: cfg.HTTP.CORSAllowMethods,
		AllowHeaders: cfg.HTTP.CORSAllowHeaders,
	}))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())

	engine.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.NewQuoteHandler(quoteService, calculationService, cfg.Expiration.DefaultValidity)).
		Register(handler.NewPaymentHandler(paymentService)).
		Register(handler.NewRefundHandler(refundService)).
		Register(handler.NewPricingHandler(calculationService)).
		Register(handler.NewSystemHandler(db)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shut down", zap.Error(err))
	}

	log.Info("server stopped")
}
