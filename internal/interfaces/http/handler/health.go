package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/logger"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/scheduler"
)

const healthTimeout = 5 * time.Second

// Pinger checks connectivity to a dependency
type Pinger interface {
	Ping(ctx context.Context) error
}

// SyncStatusProvider reports the reconciliation scheduler state
type SyncStatusProvider interface {
	Status() scheduler.SyncStatus
}

// HealthHandler serves the liveness and SIAC connectivity checks
type HealthHandler struct {
	BaseHandler
	db       Pinger
	gateway  Pinger
	sync     SyncStatusProvider
	startAt  time.Time
	checkTTL time.Duration
}

// NewHealthHandler creates a new HealthHandler. sync may be nil when the
// scheduler is not running in this process.
func NewHealthHandler(db, gateway Pinger, sync SyncStatusProvider) *HealthHandler {
	return &HealthHandler{
		BaseHandler: newBaseHandler(""),
		db:          db,
		gateway:     gateway,
		sync:        sync,
		startAt:     time.Now(),
		checkTTL:    healthTimeout,
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string                `json:"status"`
	Timestamp string                `json:"timestamp"`
	Uptime    string                `json:"uptime"`
	Database  string                `json:"database"`
	Sync      *scheduler.SyncStatus `json:"sync,omitempty"`
}

// Health handles GET /health. A failing database ping answers 503.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.checkTTL)
	defer cancel()

	now := h.now()
	resp := HealthResponse{
		Status:    "OK",
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Uptime:    now.Sub(h.startAt).Round(time.Second).String(),
		Database:  "up",
	}
	if h.sync != nil {
		status := h.sync.Status()
		resp.Sync = &status
	}

	status := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		logger.GetGinLogger(c).Warn("database health check failed", zap.Error(err))
		resp.Status = "DEGRADED"
		resp.Database = "down"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// SIAC handles GET /health/siac
func (h *HealthHandler) SIAC(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.checkTTL)
	defer cancel()

	start := time.Now()
	if err := h.gateway.Ping(ctx); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{
		"siac":       "up",
		"latency_ms": time.Since(start).Milliseconds(),
	})
}
