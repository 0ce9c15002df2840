package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm/internal/observability"
)

// MetricsHandler exposes the in-process counters.
type MetricsHandler struct {
	metrics *observability.Metrics
}

// NewMetricsHandler constructs handler.
func NewMetricsHandler(metrics *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Get handles GET /metrics.
func (h *MetricsHandler) Get(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
