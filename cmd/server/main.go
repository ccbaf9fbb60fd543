package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appshipping "github.com/commerce/fulfillment/internal/application/shipping"
	"github.com/commerce/fulfillment/internal/domain/shipping"
	"github.com/commerce/fulfillment/internal/infrastructure/artifact"
	"github.com/commerce/fulfillment/internal/infrastructure/cache"
	"github.com/commerce/fulfillment/internal/infrastructure/carrier"
	"github.com/commerce/fulfillment/internal/infrastructure/config"
	"github.com/commerce/fulfillment/internal/infrastructure/logger"
	"github.com/commerce/fulfillment/internal/infrastructure/persistence"
	"github.com/commerce/fulfillment/internal/infrastructure/storage"
	"github.com/commerce/fulfillment/internal/infrastructure/telemetry"
	"github.com/commerce/fulfillment/internal/interfaces/http/handler"
	"github.com/commerce/fulfillment/internal/interfaces/http/middleware"
	"github.com/commerce/fulfillment/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting fulfillment service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Telemetry: traces, logs and metrics over OTLP. All no-ops when
	// disabled.
	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}
	ctx := context.Background()
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = telemetry.NewBridgedLogger(log, loggerProvider)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.AutoMigrate(); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}
	if cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.RegisterDBTracing(db.DB, telemetryCfg, log); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	catalog := persistence.NewGormProductCatalog(db.DB)
	orders := persistence.NewGormOrderStore(db.DB)

	// Quote cache: Redis in prod, in-memory fallback when unreachable
	// so a cache outage never takes quoting down.
	var quoteCache shipping.QuoteCache
	redisCache, err := cache.NewRedisQuoteCache(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, log)
	if err != nil {
		log.Warn("Redis unavailable, quote cache degraded to in-memory", zap.Error(err))
		quoteCache = cache.NewMemoryQuoteCache()
	} else {
		quoteCache = redisCache
		log.Info("Redis quote cache connected")
	}

	// Carrier provider
	provider, err := carrier.NewEasyPostAdapter(&carrier.EasyPostConfig{
		APIKey:  cfg.Carrier.APIKey,
		BaseURL: cfg.Carrier.BaseURL,
		Timeout: time.Duration(cfg.Carrier.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		log.Fatal("Failed to configure carrier provider", zap.Error(err))
	}

	// Label archive: optional, purchases work without it.
	var archiver shipping.LabelArchiver
	if cfg.Storage.Enabled() {
		s3Archive, err := storage.NewS3LabelArchive(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to configure label archive", zap.Error(err))
		}
		archiver = s3Archive
		log.Info("Label archive enabled", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		archiver = storage.NewNoopLabelArchive()
		log.Info("Label archive disabled, no storage bucket configured")
	}

	planner := shipping.NewPlanner(cfg.Shipping.PlannerConfig())
	origin := cfg.Shipping.OriginAddress()

	quoteService := appshipping.NewQuoteService(
		catalog, quoteCache, provider, planner,
		origin, cfg.Shipping.QuoteTTL, cfg.Shipping.SelectionOptions(), log,
	)
	purchaseService := appshipping.NewPurchaseService(
		orders, catalog, provider, planner,
		archiver, artifact.NewQRGenerator(), origin, log,
	)

	shippingMetrics, err := telemetry.NewShippingMetrics(meterProvider.Meter("fulfillment/shipping"))
	if err != nil {
		log.Fatal("Failed to register shipping metrics", zap.Error(err))
	}
	quoteService.SetMetrics(shippingMetrics)
	purchaseService.SetMetrics(shippingMetrics)

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.TraceAttributes())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	systemHandler := handler.NewSystemHandler(map[string]handler.Pinger{
		"database": db,
	})
	engine.GET("/healthz", systemHandler.Health)

	shippingHandler := handler.NewShippingHandler(quoteService, purchaseService)
	router.NewRouter(engine).
		Register(shippingHandler).
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
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
