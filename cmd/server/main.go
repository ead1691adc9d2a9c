// Command server runs the purchase-order intake API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	partnerapp "github.com/Z3RO333/formularios/internal/application/partner"
	tradeapp "github.com/Z3RO333/formularios/internal/application/trade"
	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/Z3RO333/formularios/internal/infrastructure/cache"
	"github.com/Z3RO333/formularios/internal/infrastructure/config"
	"github.com/Z3RO333/formularios/internal/infrastructure/event"
	"github.com/Z3RO333/formularios/internal/infrastructure/logger"
	"github.com/Z3RO333/formularios/internal/infrastructure/migration"
	"github.com/Z3RO333/formularios/internal/infrastructure/notification"
	"github.com/Z3RO333/formularios/internal/infrastructure/persistence"
	"github.com/Z3RO333/formularios/internal/infrastructure/persistence/models"
	"github.com/Z3RO333/formularios/internal/infrastructure/scheduler"
	"github.com/Z3RO333/formularios/internal/infrastructure/storage"
	"github.com/Z3RO333/formularios/internal/infrastructure/telemetry"
	"github.com/Z3RO333/formularios/internal/interfaces/http/handler"
	"github.com/Z3RO333/formularios/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownGrace = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	baseLog, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}

	if err := run(cfg, baseLog); err != nil {
		baseLog.Error("server stopped with error", zap.Error(err))
		_ = baseLog.Sync()
		os.Exit(1)
	}
	_ = baseLog.Sync()
}

func run(cfg *config.Config, baseLog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telCfg := telemetry.FromConfig(cfg.Telemetry)
	providers, err := telemetry.Setup(ctx, telCfg, baseLog)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := providers.Shutdown(sctx); err != nil {
			baseLog.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	log := telemetry.BridgeLogger(baseLog, providers.Logs, telCfg.ServiceName, logger.ParseLevel(cfg.Log.Level))
	log.Info("starting formularios",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telCfg, log); err != nil {
		return fmt.Errorf("db tracing: %w", err)
	}
	if err := migrateSchema(db.DB, &cfg.Database, log); err != nil {
		return err
	}

	var businessMetrics *telemetry.BusinessMetrics
	var httpMetrics *telemetry.HTTPMetrics
	if providers.Meter.IsEnabled() {
		meter := providers.Meter.Meter(telemetry.MeterName)
		businessMetrics, err = telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:           meter,
			Logger:          log,
			BacklogProvider: telemetry.NewGormBacklogProvider(db.DB),
		})
		if err != nil {
			return fmt.Errorf("business metrics: %w", err)
		}
		businessMetrics.StartPeriodicCollection(ctx, 0)
		defer businessMetrics.Stop()

		if httpMetrics, err = telemetry.NewHTTPMetrics(meter); err != nil {
			return fmt.Errorf("http metrics: %w", err)
		}
	}

	// Events are dispatched after commit; handlers only do best-effort side
	// effects (audit trail, decision notifications).
	bus := event.NewInMemoryEventBus(log, event.WithTracer(providers.Tracer.Tracer(telemetry.TracerName)))
	bus.Subscribe(event.NewAuditHandler(persistence.NewGormAuditRepository(db.DB), log))
	if notifier := notification.NewNotifier(ctx, cfg.Notification, cfg.Redis, log); notifier != nil {
		defer func() { _ = notifier.Close() }()
		bus.Subscribe(notification.NewDecisionHandler(notifier, log))
	}
	if err := bus.Start(ctx); err != nil {
		return fmt.Errorf("event bus: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = bus.Stop(sctx)
	}()

	objects, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	var guard shared.SubmissionGuard
	if cfg.Submission.Enabled {
		guard, err = cache.NewSubmissionGuardFactory(cfg.Redis, cache.WithLogger(log)).CreateGuard(ctx)
		if err != nil {
			return fmt.Errorf("submission guard: %w", err)
		}
		defer func() { _ = guard.Close() }()
	}

	handlers, merger := buildHandlers(cfg, db.DB, services{
		bus:     bus,
		metrics: businessMetrics,
		guard:   guard,
		objects: objects,
		log:     log,
	})

	if cfg.Scan.Enabled {
		stopScan, err := startDuplicateScan(ctx, cfg.Scan, merger, businessMetrics, log)
		if err != nil {
			return fmt.Errorf("duplicate scan: %w", err)
		}
		defer stopScan()
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	handlers.Health = handler.NewHealthHandler(sqlDB, telCfg.ServiceVersion)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.New(router.Config{
		ServiceName:      telCfg.ServiceName,
		MaxBodySize:      cfg.HTTP.MaxBodySize,
		RequestTimeout:   cfg.HTTP.RequestTimeout,
		CORSAllowOrigins: cfg.HTTP.CORSAllowOrigins,
		TrustedProxies:   cfg.HTTP.TrustedProxies,
		TracingEnabled:   providers.Tracer.IsEnabled(),
		ProfilingEnabled: providers.Profiler.IsRunning(),
		HTTPMetrics:      httpMetrics,
	}, handlers, log)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Info("server exited")
	return nil
}

type services struct {
	bus     shared.EventPublisher
	metrics *telemetry.BusinessMetrics
	guard   shared.SubmissionGuard
	objects tradeapp.ObjectStorageService
	log     *zap.Logger
}

func buildHandlers(cfg *config.Config, db *gorm.DB, s services) (router.Handlers, *partnerapp.SupplierMerger) {
	scope := persistence.NewGormTransactionScope(db)

	resolver := partnerapp.NewSupplierResolver(scope, partnerapp.ResolverConfig{
		AcceptanceThreshold: cfg.Matching.AcceptanceThreshold,
		PlaceholderName:     cfg.Matching.PlaceholderName,
	}, s.log)
	resolver.SetEventPublisher(s.bus)
	resolver.SetBusinessMetrics(s.metrics)

	merger := partnerapp.NewSupplierMerger(scope, cfg.Matching.SuspicionThreshold, s.log)
	merger.SetEventPublisher(s.bus)
	merger.SetBusinessMetrics(s.metrics)

	orders := tradeapp.NewOrderService(scope, resolver, s.log)
	orders.SetEventPublisher(s.bus)
	orders.SetBusinessMetrics(s.metrics)
	if s.guard != nil {
		orders.SetSubmissionGuard(s.guard, shared.SubmissionConfig{Enabled: true, TTL: cfg.Submission.TTL})
	}

	lifecycle := tradeapp.NewLifecycleService(scope, s.log)
	lifecycle.SetEventPublisher(s.bus)
	lifecycle.SetBusinessMetrics(s.metrics)

	attachments := tradeapp.NewAttachmentService(scope, s.objects, s.log)
	attachments.SetConfig(tradeapp.AttachmentServiceConfig{DownloadURLExpiry: cfg.Storage.PresignExpiry})

	return router.Handlers{
		Orders:      handler.NewPurchaseOrderHandler(orders, lifecycle),
		Attachments: handler.NewAttachmentHandler(attachments),
		Suppliers:   handler.NewSupplierHandler(partnerapp.NewSupplierService(persistence.NewGormSupplierRepository(db)), resolver, merger),
	}, merger
}

// startDuplicateScan runs the supplier duplicate scan in the background on
// the configured interval. The returned func stops it.
func startDuplicateScan(ctx context.Context, cfg config.DuplicateScanConfig, merger *partnerapp.SupplierMerger, metrics *telemetry.BusinessMetrics, log *zap.Logger) (func(), error) {
	schedCfg := scheduler.DefaultSchedulerConfig()
	schedCfg.JobTimeout = cfg.JobTimeout

	sched, err := scheduler.NewScheduler(schedCfg, log, scheduler.NewDuplicateScanExecutor(merger, metrics, log))
	if err != nil {
		return nil, err
	}
	trigger, err := scheduler.NewIntervalTrigger(sched, scheduler.JobKindDuplicateScan, cfg.Interval, cfg.RunOnStart, log)
	if err != nil {
		return nil, err
	}
	if err := sched.Start(ctx); err != nil {
		return nil, err
	}
	if err := trigger.Start(ctx); err != nil {
		return nil, err
	}

	return func() {
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = trigger.Stop(sctx)
		_ = sched.Stop(sctx)
	}, nil
}

// migrateSchema applies the SQL migrations on PostgreSQL over a dedicated
// connection. SQLite is a local development driver and gets its schema from
// the GORM models instead.
func migrateSchema(db *gorm.DB, cfg *config.DatabaseConfig, log *zap.Logger) error {
	if cfg.Driver == "sqlite" {
		return db.AutoMigrate(models.All()...)
	}

	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	m, err := migration.New(sqlDB, log)
	if err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("migrations: %w", err)
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("close migrator", zap.Error(err))
		}
	}()
	return m.Up()
}
