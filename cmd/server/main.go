package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appguarda "github.com/joaopxt/ze-do-bip-backend/internal/application/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/config"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/lock"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/logger"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/persistence"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/scheduler"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/siac"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/storage"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/telemetry"
	"github.com/joaopxt/ze-do-bip-backend/internal/interfaces/http/handler"
	"github.com/joaopxt/ze-do-bip-backend/internal/interfaces/http/middleware"
	"github.com/joaopxt/ze-do-bip-backend/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}, cfg.App.Name)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting guarda backend",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
		zap.String("store", cfg.SIAC.StoreCode),
	)

	ctx := context.Background()

	// Telemetry first so the database and HTTP instrumentation pick up the
	// global providers.
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer shutdown(log, "tracer provider", tp.Shutdown)

	logsLevel, err := zapcore.ParseLevel(cfg.Telemetry.LogsLevel)
	if err != nil {
		log.Warn("Unknown telemetry.logs_level, shipping info and above", zap.String("level", cfg.Telemetry.LogsLevel))
		logsLevel = zapcore.InfoLevel
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
		Level:             logsLevel,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer shutdown(log, "logger provider", lp.Shutdown)
	log = lp.Bridge(log)

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer shutdown(log, "meter provider", mp.Shutdown)
	meter := mp.Meter(telemetry.TracerName)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		ProfileTypes:      cfg.Profiling.ProfileTypes,
		Tags:              map[string]string{"store": cfg.SIAC.StoreCode},
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		_ = profiler.Stop()
	}()
	if profiler.IsEnabled() && cfg.Profiling.SpanProfiles {
		tp.EnableSpanProfiles()
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithIgnoreRecordNotFoundError(true),
	)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	if sqlDB, err := db.DB.DB(); err == nil {
		poolMetrics, err := telemetry.NewDBPoolMetrics(meter, sqlDB)
		if err != nil {
			log.Warn("Database pool metrics unavailable", zap.Error(err))
		} else {
			defer poolMetrics.Stop()
		}
	}

	// Locks: redis when configured, in-process otherwise
	lockOpts := []lock.FactoryOption{lock.WithLogger(log)}
	if cfg.Redis.Enabled {
		redisClient, err := lock.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}()
		lockOpts = append(lockOpts, lock.WithRedis(redisClient))
		log.Info("Redis locks enabled", zap.String("addr", cfg.Redis.Addr()))
	}
	locks := lock.NewFactory(lockOpts...)
	if !locks.Distributed() {
		log.Warn("Running with in-process locks; do not run more than one replica")
	}

	// SIAC gateway
	gateway, err := siac.NewClient(cfg.SIAC, log)
	if err != nil {
		log.Fatal("Failed to create SIAC client", zap.Error(err))
	}

	// Repositories and services
	receiptRepo := persistence.NewGormReceiptRepository(db.DB)
	lineItemRepo := persistence.NewGormLineItemRepository(db.DB)
	masterData := persistence.NewGormMasterDataRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	guardaMetrics, err := telemetry.NewGuardaMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create guarda metrics", zap.Error(err))
	}

	receiptService := appguarda.NewReceiptService(receiptRepo, lineItemRepo, masterData, gateway, txScope,
		appguarda.ReceiptServiceConfig{
			StoreCode:       cfg.SIAC.StoreCode,
			DefaultUserCode: cfg.SIAC.DefaultUserCode,
		}, log)

	scanService := appguarda.NewScanService(receiptRepo, lineItemRepo, txScope,
		locks.Locker(cfg.Scan.LockTTL, cfg.Scan.LockWait), cfg.SIAC.StoreCode, log)
	scanService.SetMetrics(guardaMetrics)

	productService := appguarda.NewProductService(gateway, masterData, cfg.SIAC.StoreCode, log)

	reconciliation := appguarda.NewReconciliationService(gateway, receiptRepo, masterData, txScope, cfg.SIAC.StoreCode, log)
	reconciliation.SetMetrics(guardaMetrics)

	if cfg.Storage.Enabled {
		archive, err := storage.NewS3BackupArchive(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create backup archive", zap.Error(err))
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare backup bucket", zap.Error(err))
		}
		reconciliation.SetBackupArchive(archive)
		log.Info("Backup archive enabled", zap.String("bucket", archive.GetBucket()))
	}

	// Reconciliation scheduler; the run lock never waits so a second replica
	// skips the tick instead of queueing behind the first.
	location, err := time.LoadLocation(cfg.Sync.Timezone)
	if err != nil {
		log.Warn("Unknown sync timezone, using local time", zap.String("timezone", cfg.Sync.Timezone), zap.Error(err))
		location = time.Local
	}
	syncConfig := scheduler.DefaultGuardaSyncSchedulerConfig()
	syncConfig.Enabled = cfg.Sync.Enabled
	syncConfig.Interval = cfg.Sync.Interval
	syncConfig.Location = location
	syncScheduler := scheduler.NewGuardaSyncScheduler(syncConfig, reconciliation, locks.Locker(cfg.Sync.LockTTL, 0), log)
	if err := syncScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start sync scheduler", zap.Error(err))
	}
	defer shutdown(log, "sync scheduler", syncScheduler.Stop)

	// HTTP
	engine, err := router.NewEngine(router.EngineConfig{
		Mode:           ginMode(cfg.App),
		TrustedProxies: cfg.HTTP.TrustedProxies,
		CORS:           corsConfig(cfg.HTTP),
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Meter: meter,
	}, log)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	r := router.NewRouter(engine)
	r.Register(router.GuardaRoutes(handler.NewGuardaHandler(receiptService, scanService, syncScheduler, cfg.SIAC.Region))).
		Register(router.ProductRoutes(handler.NewProductHandler(productService, scanService)))
	r.Setup()
	router.RegisterHealth(engine, handler.NewHealthHandler(db, gateway, syncScheduler))

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

func ginMode(app config.AppConfig) string {
	if app.IsProduction() {
		return gin.ReleaseMode
	}
	return gin.DebugMode
}

func corsConfig(h config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = h.CORSAllowOrigins
	if len(h.CORSAllowMethods) > 0 {
		cors.AllowMethods = h.CORSAllowMethods
	}
	if len(h.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = h.CORSAllowHeaders
	}
	return cors
}

// shutdown runs a component's stop function with its own deadline
func shutdown(log *zap.Logger, name string, stop func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := stop(ctx); err != nil {
		log.Error("Error stopping "+name, zap.Error(err))
	}
}
