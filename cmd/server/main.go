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

	appreturns "github.com/erp/returns/internal/application/returns"
	"github.com/erp/returns/internal/domain/finance"
	"github.com/erp/returns/internal/infrastructure/auth"
	"github.com/erp/returns/internal/infrastructure/cache"
	"github.com/erp/returns/internal/infrastructure/config"
	"github.com/erp/returns/internal/infrastructure/event"
	"github.com/erp/returns/internal/infrastructure/logger"
	"github.com/erp/returns/internal/infrastructure/payment"
	"github.com/erp/returns/internal/infrastructure/persistence"
	"github.com/erp/returns/internal/infrastructure/telemetry"
	"github.com/erp/returns/internal/interfaces/http/handler"
	"github.com/erp/returns/internal/interfaces/http/middleware"
	"github.com/erp/returns/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const slowQueryThreshold = 200 * time.Millisecond

//	@title			Returns API
//	@version		1.0
//	@description	Return requests, refunds and credit notes for delivered orders

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}, cfg.App.Name)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
	log.Info("server exited gracefully")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting returns engine",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	db, err := persistence.NewDatabase(&cfg.Database,
		logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), slowQueryThreshold))
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database", zap.Error(err))
		}
	}()
	if tracer.IsEnabled() && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.RegisterDBTracing(db.DB, cfg.Database.DBName, log); err != nil {
			return fmt.Errorf("register db tracing: %w", err)
		}
	}
	log.Info("database connected")

	idem, err := cache.NewIdempotencyStore(ctx, cfg.Redis, cfg.App.Env != "production", log)
	if err != nil {
		return err
	}
	defer func() { _ = idem.Close() }()

	var metrics *telemetry.ReturnMetrics
	if cfg.Telemetry.MetricsEnabled {
		metrics = telemetry.NewReturnMetrics()
	}

	gateway, err := newRefundGateway(cfg.Payment, log)
	if err != nil {
		return err
	}
	dispatcher := appreturns.NewRefundDispatcher(gateway, nil, log)
	service := appreturns.NewRMAService(
		persistence.NewGormTransactionScope(db.DB),
		dispatcher,
		appreturns.Config{DefaultWindowDays: cfg.Returns.DefaultWindowDays},
		log,
	)
	if metrics != nil {
		dispatcher.SetMetrics(metrics)
		service.SetMetrics(metrics)
	}

	auditRepo := persistence.NewGormAuditLogRepository(db.DB)
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(event.NewIdempotentHandler(
		appreturns.NewAuditHandler(auditRepo, log), idem, event.DefaultHandlerDedupTTL, log))
	if err := bus.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = bus.Stop(context.Background()) }()

	processor, closeSink, err := wireEvents(cfg, service, bus, db, log)
	if err != nil {
		return err
	}
	defer closeSink()
	if processor != nil {
		if metrics != nil {
			processor.SetRelayObserver(metrics.ObserveOutboxRelay)
		}
		if err := processor.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = processor.Stop(stopCtx)
		}()
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	engineCfg := router.EngineConfig{
		Logger:    log,
		Readiness: map[string]router.Pinger{"database": sqlDB},
	}
	if pinger, ok := idem.(router.Pinger); ok {
		engineCfg.Readiness["redis"] = pinger
	}
	if tracer.IsEnabled() {
		engineCfg.TracingService = cfg.Telemetry.ServiceName
	}
	if metrics != nil {
		engineCfg.Metrics = metrics
		engineCfg.MetricsHandler = metrics.Handler()
	}

	middleware.SetupValidator()
	engine := router.NewEngine(engineCfg)
	router.NewRouter(engine, router.WithAPIMiddleware(
		middleware.JWTAuth(auth.NewJWTService(cfg.JWT), log),
		middleware.SpanAttributes(),
		middleware.Idempotency(idem, cfg.HTTP.IdempotencyTTL),
	)).
		Register(handler.NewReturnsHandler(service, auditRepo)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRefundGateway returns nil when no provider is configured; card and
// wallet refunds then fail as not configured
func newRefundGateway(cfg config.PaymentConfig, log *zap.Logger) (finance.RefundGateway, error) {
	switch cfg.Provider {
	case "square":
		gw, err := payment.NewSquareRefundGateway(payment.SquareConfig{
			AccessToken:        cfg.Square.AccessToken,
			BaseURL:            cfg.Square.BaseURL,
			Timeout:            cfg.Timeout,
			BreakerMaxFailures: cfg.BreakerMaxFailures,
			BreakerOpenTimeout: cfg.BreakerOpenTimeout,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("configure square gateway: %w", err)
		}
		return gw, nil
	case "", "none":
		log.Warn("no refund provider configured")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
	}
}

// wireEvents connects the service to the bus and, when enabled, the outbox
// relay. With Kafka the relay publishes to the topic and the bus is fed
// directly after commit; without it the relay feeds the bus.
func wireEvents(cfg *config.Config, service *appreturns.RMAService, bus *event.InMemoryEventBus, db *persistence.Database, log *zap.Logger) (*event.OutboxProcessor, func(), error) {
	noop := func() {}
	if !cfg.Outbox.ProcessorEnabled {
		service.SetEventPublisher(bus)
		return nil, noop, nil
	}

	serializer := event.NewRMAEventSerializer()
	service.SetOutboxEncoder(serializer)

	var sink event.Sink
	closeSink := noop
	if cfg.Kafka.Enabled {
		kafka, err := event.NewKafkaPublisher(event.KafkaConfig{
			Brokers:  cfg.Kafka.Brokers,
			Topic:    cfg.Kafka.Topic,
			ClientID: cfg.Kafka.ClientID,
		}, log)
		if err != nil {
			return nil, noop, err
		}
		sink = kafka
		closeSink = func() { _ = kafka.Close() }
		service.SetEventPublisher(bus)
	} else {
		sink = event.NewBusSink(bus, serializer)
	}

	pcfg := event.DefaultOutboxProcessorConfig()
	if cfg.Outbox.BatchSize > 0 {
		pcfg.BatchSize = cfg.Outbox.BatchSize
	}
	if cfg.Outbox.PollInterval > 0 {
		pcfg.PollInterval = cfg.Outbox.PollInterval
	}
	if cfg.Outbox.CleanupRetention > 0 {
		pcfg.CleanupRetention = cfg.Outbox.CleanupRetention
	}
	pcfg.MaxRetries = cfg.Outbox.MaxRetries

	return event.NewOutboxProcessor(persistence.NewGormOutboxRepository(db.DB), sink, pcfg, log), closeSink, nil
}
