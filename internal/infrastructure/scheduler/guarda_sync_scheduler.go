package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	appguarda "github.com/joaopxt/ze-do-bip-backend/internal/application/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/domain/guarda"
)

// SyncRunner performs one reconciliation pass
type SyncRunner interface {
	Sync(ctx context.Context) (appguarda.SyncResult, error)
}

// GuardaSyncSchedulerConfig holds configuration for the reconciliation scheduler
type GuardaSyncSchedulerConfig struct {
	// Enabled turns the periodic run on; manual runs work either way
	Enabled bool
	// Interval between scheduled runs
	Interval time.Duration
	// Location is the timezone gocron schedules in
	Location *time.Location
}

// DefaultGuardaSyncSchedulerConfig returns default configuration
func DefaultGuardaSyncSchedulerConfig() GuardaSyncSchedulerConfig {
	return GuardaSyncSchedulerConfig{
		Enabled:  false,
		Interval: time.Minute,
		Location: time.Local,
	}
}

// Validate validates the configuration
func (c *GuardaSyncSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// SyncStatus is a snapshot of the scheduler state
type SyncStatus struct {
	Enabled          bool                  `json:"enabled"`
	IsRunning        bool                  `json:"is_running"`
	LastRunStartedAt *time.Time            `json:"last_run_started_at,omitempty"`
	LastResult       *appguarda.SyncResult `json:"last_result,omitempty"`
	LastError        string                `json:"last_error,omitempty"`
	NextRunAt        *time.Time            `json:"next_run_at,omitempty"`
}

// GuardaSyncScheduler runs reconciliation on a fixed interval and on demand.
// At most one run is in flight per process; the sync lock extends that to
// every replica sharing the locker.
type GuardaSyncScheduler struct {
	config GuardaSyncSchedulerConfig
	runner SyncRunner
	locker appguarda.Locker
	logger *zap.Logger
	now    func() time.Time

	cron *gocron.Scheduler
	job  *gocron.Job

	mu               sync.Mutex
	started          bool
	isRunning        bool
	lastRunStartedAt time.Time
	lastResult       *appguarda.SyncResult
	lastErr          error
}

// NewGuardaSyncScheduler creates a new scheduler
func NewGuardaSyncScheduler(
	config GuardaSyncSchedulerConfig,
	runner SyncRunner,
	locker appguarda.Locker,
	logger *zap.Logger,
) *GuardaSyncScheduler {
	if config.Location == nil {
		config.Location = time.Local
	}
	return &GuardaSyncScheduler{
		config: config,
		runner: runner,
		locker: locker,
		logger: logger.Named("sync_scheduler"),
		now:    time.Now,
	}
}

// Start schedules periodic runs. It does nothing when the scheduler is
// disabled or already started.
func (s *GuardaSyncScheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("SIAC sync scheduler disabled")
		return nil
	}
	if err := s.config.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	cron := gocron.NewScheduler(s.config.Location)
	cron.SingletonModeAll()
	job, err := cron.Every(s.config.Interval).WaitForSchedule().Do(s.runScheduled, ctx)
	if err != nil {
		return fmt.Errorf("schedule sync job: %w", err)
	}
	cron.StartAsync()

	s.cron = cron
	s.job = job
	s.started = true

	s.logger.Info("SIAC sync scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.String("timezone", s.config.Location.String()),
	)
	return nil
}

// Stop stops scheduling and waits for a run in flight, bounded by ctx
func (s *GuardaSyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	cron := s.cron
	s.started = false
	s.cron = nil
	s.job = nil
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		cron.Stop()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("SIAC sync scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs one reconciliation pass now. It returns
// guarda.ErrSyncInProgress while another run holds the process guard or
// the sync lock.
func (s *GuardaSyncScheduler) RunOnce(ctx context.Context) (appguarda.SyncResult, error) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return appguarda.SyncResult{}, guarda.ErrSyncInProgress
	}
	s.isRunning = true
	s.lastRunStartedAt = s.now()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	unlock, err := s.locker.TryLock(ctx, appguarda.SyncLockKey)
	if err != nil {
		if errors.Is(err, appguarda.ErrLockNotObtained) {
			return appguarda.SyncResult{}, guarda.ErrSyncInProgress.Wrap(err)
		}
		return appguarda.SyncResult{}, fmt.Errorf("acquire sync lock: %w", err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release sync lock", zap.Error(err))
		}
	}()

	result, err := s.runner.Sync(ctx)

	s.mu.Lock()
	s.lastResult = &result
	s.lastErr = err
	s.mu.Unlock()

	return result, err
}

// Status returns the scheduler state
func (s *GuardaSyncScheduler) Status() SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := SyncStatus{
		Enabled:    s.config.Enabled,
		IsRunning:  s.isRunning,
		LastResult: s.lastResult,
	}
	if !s.lastRunStartedAt.IsZero() {
		started := s.lastRunStartedAt
		st.LastRunStartedAt = &started
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	if s.job != nil {
		if next := s.job.NextRun(); !next.IsZero() {
			st.NextRunAt = &next
		}
	}
	return st
}

// runScheduled has no run deadline; each SIAC call carries its own timeout
func (s *GuardaSyncScheduler) runScheduled(ctx context.Context) {
	_, err := s.RunOnce(ctx)
	switch {
	case errors.Is(err, guarda.ErrSyncInProgress):
		s.logger.Debug("Scheduled SIAC sync skipped, previous run still in flight")
	case err != nil:
		s.logger.Error("Scheduled SIAC sync failed", zap.Error(err))
	}
}
