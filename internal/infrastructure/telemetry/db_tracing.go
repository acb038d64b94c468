package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool          // Enable database tracing
	LogFullSQL      bool          // Include query variables in spans (dev only)
	SlowQueryThresh time.Duration // Threshold for marking queries as slow (default: 200ms)
	DBSystem        string        // Database system name (default: "postgresql")

	// TracerProvider overrides the global provider when set
	TracerProvider trace.TracerProvider
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:         false,
		LogFullSQL:      false,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin wraps the otelgorm plugin with slow query detection.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}
	return &DBTracingPlugin{
		config: cfg,
		logger: logger,
	}
}

// RegisterOtelGorm registers otelgorm on db together with the timing
// callbacks that flag slow queries and failed statements on the span.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(p.config.DBSystem),
	}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if p.config.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(p.config.TracerProvider))
	}

	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := p.registerCallbacks(db); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

type gormHookFunc func(name string, fn func(*gorm.DB)) error

// registerCallbacks hooks timing around every statement kind. The after
// hook must run before otelgorm ends the span.
func (p *DBTracingPlugin) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		register gormHookFunc
		hook     func(*gorm.DB)
		name     string
	}{
		{cb.Create().Before("gorm:create").Register, markQueryStart, "otel_timing:before_create"},
		{cb.Query().Before("gorm:query").Register, markQueryStart, "otel_timing:before_query"},
		{cb.Update().Before("gorm:update").Register, markQueryStart, "otel_timing:before_update"},
		{cb.Delete().Before("gorm:delete").Register, markQueryStart, "otel_timing:before_delete"},
		{cb.Row().Before("gorm:row").Register, markQueryStart, "otel_timing:before_row"},
		{cb.Raw().Before("gorm:raw").Register, markQueryStart, "otel_timing:before_raw"},

		{cb.Create().After("gorm:create").Before("otel:after:create").Register, p.afterQuery, "otel_slow_query:create"},
		{cb.Query().After("gorm:query").Before("otel:after:query").Register, p.afterQuery, "otel_slow_query:query"},
		{cb.Update().After("gorm:update").Before("otel:after:update").Register, p.afterQuery, "otel_slow_query:update"},
		{cb.Delete().After("gorm:delete").Before("otel:after:delete").Register, p.afterQuery, "otel_slow_query:delete"},
		{cb.Row().After("gorm:row").Before("otel:after:row").Register, p.afterQuery, "otel_slow_query:row"},
		{cb.Raw().After("gorm:raw").Before("otel:after:raw").Register, p.afterQuery, "otel_slow_query:raw"},
	}

	for _, h := range hooks {
		if err := h.register(h.name, h.hook); err != nil {
			return err
		}
	}
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

func (p *DBTracingPlugin) afterQuery(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	// a missing row is an expected answer, not a failed statement
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	startTime, ok := ctx.Value(queryStartTimeKey).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(startTime); elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"
