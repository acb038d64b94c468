package guarda

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrLockNotObtained is returned by TryLock when the key is held elsewhere
var ErrLockNotObtained = errors.New("lock not obtained")

// Unlock releases a lock obtained from a Locker
type Unlock func(ctx context.Context) error

// Locker provides keyed mutual exclusion. Lock waits for the key up to an
// implementation-defined limit; TryLock fails immediately with
// ErrLockNotObtained.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
	TryLock(ctx context.Context, key string) (Unlock, error)
}

// SyncLockKey guards reconciliation runs across replicas
const SyncLockKey = "guarda:sync"

// LineItemLockKey serializes scans of one line item
func LineItemLockKey(lineItemID int64) string {
	return fmt.Sprintf("guarda:line:%d", lineItemID)
}

// Scan outcomes reported to Metrics
const (
	ScanOutcomeCompleted = "completed"
	ScanOutcomePartial   = "partial"
	ScanOutcomeRejected  = "rejected"
	ScanOutcomeFailed    = "failed"
)

// Metrics receives reconciliation and scan measurements
type Metrics interface {
	RecordSync(ctx context.Context, result SyncResult, elapsed time.Duration, err error)
	RecordScan(ctx context.Context, outcome string)
}

type noopMetrics struct{}

func (noopMetrics) RecordSync(context.Context, SyncResult, time.Duration, error) {}
func (noopMetrics) RecordScan(context.Context, string)                           {}
