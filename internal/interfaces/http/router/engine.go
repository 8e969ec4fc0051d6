package router

import (
	"context"
	"net/http"
	"time"

	"github.com/erp/returns/internal/infrastructure/logger"
	"github.com/erp/returns/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// EngineConfig selects the engine-wide middleware and operational endpoints
type EngineConfig struct {
	Logger *zap.Logger
	// TracingService enables otelgin spans when non-empty
	TracingService string
	// Metrics records per-route HTTP metrics when set
	Metrics middleware.HTTPRecorder
	// MetricsHandler is served at /metrics when set
	MetricsHandler http.Handler
	// Readiness dependencies checked by /ready, keyed by name
	Readiness map[string]Pinger
	BodyLimit int64
}

// NewEngine creates a gin engine with recovery, request logging, optional
// tracing and metrics, and the /health, /ready and /metrics endpoints
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = middleware.DefaultBodyLimit
	}

	engine := gin.New()
	engine.Use(logger.Recovery(log))
	if cfg.TracingService != "" {
		engine.Use(middleware.Tracing(cfg.TracingService))
	}
	engine.Use(logger.GinMiddleware(log))
	if cfg.Metrics != nil {
		engine.Use(middleware.HTTPMetrics(cfg.Metrics))
	}
	engine.Use(middleware.BodyLimit(cfg.BodyLimit))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/ready", readiness(cfg.Readiness, log))
	if cfg.MetricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}
	return engine
}

func readiness(deps map[string]Pinger, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := make(map[string]string, len(deps))
		ready := true
		for name, dep := range deps {
			if err := dep.PingContext(ctx); err != nil {
				log.Warn("readiness check failed", zap.String("dependency", name), zap.Error(err))
				checks[name] = "unavailable"
				ready = false
				continue
			}
			checks[name] = "ok"
		}

		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"ready": ready, "checks": checks})
	}
}
