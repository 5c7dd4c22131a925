package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/maintenance-api/internal/service"
)

// readyTimeout bounds the store ping behind /ready.
const readyTimeout = 2 * time.Second

// MetricsHandler exposes probes and the Prometheus scrape endpoint.
type MetricsHandler struct {
	metrics *service.MetricsService
	ping    func(context.Context) error
	driver  string
}

// NewMetricsHandler constructs a metrics handler. ping checks the store.
func NewMetricsHandler(metrics *service.MetricsService, driver string, ping func(context.Context) error) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, ping: ping, driver: driver}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health godoc
// @Summary Liveness probe
// @Tags Ops
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready godoc
// @Summary Readiness probe
// @Tags Ops
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /ready [get]
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "store": h.driver, "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "store": h.driver})
}
