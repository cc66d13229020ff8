package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/queueflow/queue-service/internal/service"
)

// AnalyticsHandler serves read-only reporting endpoints.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler returns a new handler instance.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// AgentSummary returns an agent's same-day stats.
func (h *AnalyticsHandler) AgentSummary(c *fiber.Ctx) error {
	stats, err := h.analytics.AgentSummary(c.UserContext(), c.Params("agentId"), timeParam(c, "date"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"agent_id":            c.Params("agentId"),
		"waiting":             stats.Waiting,
		"serving":             stats.Serving,
		"completed":           stats.Completed,
		"no_show":             stats.NoShow,
		"cancelled":           stats.Cancelled,
		"avg_service_seconds": stats.AvgServiceSeconds,
	})
}

// timeParam parses an optional YYYY-MM-DD query parameter.
func timeParam(c *fiber.Ctx, name string) time.Time {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}
	}
	parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
