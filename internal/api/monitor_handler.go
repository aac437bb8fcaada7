package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"sentinel-go/internal/domain"
	"sentinel-go/internal/metrics"
	"sentinel-go/internal/monitor"
)

// MonitorHandler handles HTTP requests controlling the monitoring loop.
type MonitorHandler struct {
	manager *monitor.Manager
	logger  *slog.Logger

	// baseCtx outlives individual requests; scheduled cycles started
	// through the API must not die with the request that started them.
	baseCtx context.Context
}

// NewMonitorHandler creates a new monitor handler.
func NewMonitorHandler(baseCtx context.Context, manager *monitor.Manager, logger *slog.Logger) *MonitorHandler {
	return &MonitorHandler{
		manager: manager,
		logger:  logger,
		baseCtx: baseCtx,
	}
}

// Start handles POST /v1/monitor/start
func (h *MonitorHandler) Start(c *fiber.Ctx) error {
	if err := h.manager.StartMonitoring(h.baseCtx); err != nil {
		if errors.Is(err, monitor.ErrAlreadyRunning) {
			return Conflict(c, "monitoring is already running")
		}
		h.logger.Error("failed to start monitoring", "error", err)
		return InternalError(c, "failed to start monitoring")
	}
	return Success(c, map[string]bool{"running": true})
}

// Stop handles POST /v1/monitor/stop
func (h *MonitorHandler) Stop(c *fiber.Ctx) error {
	h.manager.StopMonitoring()
	return Success(c, map[string]bool{"running": false})
}

// Status handles GET /v1/monitor/status
func (h *MonitorHandler) Status(c *fiber.Ctx) error {
	return Success(c, map[string]bool{"running": h.manager.Running()})
}

// Check handles POST /v1/monitor/check
// Runs one on-demand evaluation cycle and returns the alerts it triggered.
func (h *MonitorHandler) Check(c *fiber.Ctx) error {
	metrics.EvaluationCyclesTotal.WithLabelValues("manual").Inc()
	alerts, err := h.manager.ManualCheck(c.Context())
	if err != nil {
		h.logger.Error("manual check failed", "error", err)
		return InternalError(c, "manual check failed")
	}
	if alerts == nil {
		alerts = []domain.TriggeredAlert{}
	}
	return Success(c, map[string]interface{}{
		"triggered": len(alerts),
		"alerts":    alerts,
	})
}

// TestChannels handles POST /v1/monitor/channels/test
func (h *MonitorHandler) TestChannels(c *fiber.Ctx) error {
	return Success(c, h.manager.TestChannels(c.Context()))
}
