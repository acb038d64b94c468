package telemetry

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// DBPoolMetrics reports database/sql pool statistics as observable gauges.
// Values are read from the pool at collection time.
type DBPoolMetrics struct {
	registration metric.Registration
}

// NewDBPoolMetrics registers db_pool_connections{db.pool.state} and
// db_pool_connections_max against sqlDB.
func NewDBPoolMetrics(meter metric.Meter, sqlDB *sql.DB) (*DBPoolMetrics, error) {
	connections, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Number of connections in the pool by state"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gauge db_pool_connections: %w", err)
	}
	maxOpen, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum number of open connections allowed"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gauge db_pool_connections_max: %w", err)
	}

	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(connections, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(connections, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(connections, int64(stats.OpenConnections), metric.WithAttributes(AttrDBState.String("open")))
		o.ObserveInt64(maxOpen, int64(stats.MaxOpenConnections))
		return nil
	}, connections, maxOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to register pool callback: %w", err)
	}

	return &DBPoolMetrics{registration: reg}, nil
}

// Stop unregisters the pool callback.
func (m *DBPoolMetrics) Stop() error {
	if m == nil || m.registration == nil {
		return nil
	}
	return m.registration.Unregister()
}
