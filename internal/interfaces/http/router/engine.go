package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/logger"
	"github.com/joaopxt/ze-do-bip-backend/internal/interfaces/http/middleware"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured
const DefaultMaxBodyBytes = 1 << 20

// EngineConfig configures the middleware chain of the API engine
type EngineConfig struct {
	Mode           string
	TrustedProxies []string
	CORS           middleware.CORSConfig
	MaxBodyBytes   int64
	Tracing        middleware.TracingConfig
	// Meter records HTTP metrics when set
	Meter metric.Meter
}

// NewEngine builds a gin engine with the standard middleware chain.
// Order matters: the request id must exist before tracing and logging read
// it, and recovery wraps everything.
func NewEngine(cfg EngineConfig, log *zap.Logger) (*gin.Engine, error) {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(cfg.Tracing),
		middleware.SpanEnricher(),
		logger.GinMiddleware(log),
		middleware.CORSWithConfig(cfg.CORS),
		middleware.Secure(),
		middleware.BodyLimit(maxBody),
	)

	if cfg.Meter != nil {
		metrics, err := middleware.HTTPMetrics(cfg.Meter)
		if err != nil {
			return nil, fmt.Errorf("http metrics: %w", err)
		}
		engine.Use(metrics)
	}

	return engine, nil
}
