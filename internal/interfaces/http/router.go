// Package http assembles the gin route tree and the server around it.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/monitoring/logging"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/interfaces/http/handlers"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies for the
// route tree.
type RouterConfig struct {
	LotHandler    *handlers.LotHandler
	HealthHandler *handlers.HealthHandler

	Logger logging.Logger

	// MetricsGatherer enables GET /metrics when set.
	MetricsGatherer prometheus.Gatherer

	// Mode is the gin mode: debug, release or test.
	Mode string

	CORS      *middleware.CORSConfig
	RateLimit *middleware.RateLimitConfig
}

// NewRouter builds the complete route tree: public probes, the metrics
// endpoint and the /api/v1 lot processing group.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())

	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, middleware.DefaultLoggingConfig()))
	}
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	if cfg.RateLimit != nil {
		r.Use(middleware.RateLimit(*cfg.RateLimit))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsGatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api/v1")
	if cfg.LotHandler != nil {
		lots := api.Group("/lots")
		lots.POST("/process", cfg.LotHandler.Process)
		lots.POST("/process-batch", cfg.LotHandler.ProcessBatch)
		lots.GET("/review", cfg.LotHandler.ListReview)
		lots.GET("/:lotID", cfg.LotHandler.GetResult)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": "route not found"})
	})
	return r
}
