package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"

	appguarda "github.com/joaopxt/ze-do-bip-backend/internal/application/guarda"
)

// GuardaMetrics records reconciliation and scan measurements.
type GuardaMetrics struct {
	syncRuns     *Counter
	syncReceipts *Counter
	syncDuration *Histogram
	scans        *Counter
}

var _ appguarda.Metrics = (*GuardaMetrics)(nil)

// NewGuardaMetrics creates the guarda instruments on meter.
func NewGuardaMetrics(meter metric.Meter) (*GuardaMetrics, error) {
	syncRuns, err := NewCounter(meter, "guarda_sync_runs_total", "Reconciliation runs by status", "{run}")
	if err != nil {
		return nil, err
	}
	syncReceipts, err := NewCounter(meter, "guarda_sync_receipts_total", "Receipts handled by reconciliation by outcome", "{receipt}")
	if err != nil {
		return nil, err
	}
	syncDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "guarda_sync_duration_ms",
		Description: "Reconciliation run duration",
		Unit:        "ms",
		Boundaries:  SyncDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	scans, err := NewCounter(meter, "guarda_scans_total", "Scan confirmations by outcome", "{scan}")
	if err != nil {
		return nil, err
	}

	return &GuardaMetrics{
		syncRuns:     syncRuns,
		syncReceipts: syncReceipts,
		syncDuration: syncDuration,
		scans:        scans,
	}, nil
}

// RecordSync records one reconciliation run.
func (m *GuardaMetrics) RecordSync(ctx context.Context, result appguarda.SyncResult, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.syncRuns.Inc(ctx, AttrStatus.String(status))
	m.syncDuration.Record(ctx, float64(elapsed.Milliseconds()), AttrStatus.String(status))

	outcomes := []struct {
		name  string
		count int
	}{
		{"synced", result.Synced},
		{"skipped", result.Skipped},
		{"error", result.Errors},
		{"removed", result.Removed},
	}
	for _, o := range outcomes {
		if o.count > 0 {
			m.syncReceipts.Add(ctx, int64(o.count), AttrOutcome.String(o.name))
		}
	}
}

// RecordScan records one scan confirmation attempt.
func (m *GuardaMetrics) RecordScan(ctx context.Context, outcome string) {
	m.scans.Inc(ctx, AttrOutcome.String(outcome))
}
