package api

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"sentinel-go/internal/domain"
	"sentinel-go/internal/monitor"
)

// AlertHandler handles HTTP requests for alert history queries and
// lifecycle operations.
type AlertHandler struct {
	manager *monitor.Manager
	logger  *slog.Logger
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(manager *monitor.Manager, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{
		manager: manager,
		logger:  logger,
	}
}

// List handles GET /v1/alerts
// Supports compound filtering via query parameters: status, severity
// (comma-separated), rule_id, start_time, end_time (unix ms), limit,
// and sort (asc|desc).
func (h *AlertHandler) List(c *fiber.Ctx) error {
	filter := domain.HistoryFilter{
		RuleID: c.Query("rule_id"),
	}

	if statuses := c.Query("status"); statuses != "" {
		for _, s := range strings.Split(statuses, ",") {
			status := domain.AlertStatus(strings.TrimSpace(s))
			if !status.IsValid() {
				return BadRequest(c, "unknown status: "+string(status))
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	if severities := c.Query("severity"); severities != "" {
		for _, s := range strings.Split(severities, ",") {
			severity := domain.Severity(strings.TrimSpace(s))
			if !severity.IsValid() {
				return BadRequest(c, "unknown severity: "+string(severity))
			}
			filter.Severities = append(filter.Severities, severity)
		}
	}

	if v := c.Query("start_time"); v != "" {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.StartTime = ts
		}
	}
	if v := c.Query("end_time"); v != "" {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.EndTime = ts
		}
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if filter.Limit == 0 {
		filter.Limit = 100
	}
	if c.Query("sort") == "asc" {
		filter.SortOrder = domain.SortAscending
	}

	return Success(c, h.manager.QueryHistory(filter))
}

// Active handles GET /v1/alerts/active
func (h *AlertHandler) Active(c *fiber.Ctx) error {
	return Success(c, h.manager.GetActiveAlerts())
}

// Statistics handles GET /v1/alerts/statistics
func (h *AlertHandler) Statistics(c *fiber.Ctx) error {
	return Success(c, h.manager.GetStatistics())
}

// GetByID handles GET /v1/alerts/:id
func (h *AlertHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	entry := h.manager.GetAlert(id)
	if entry == nil {
		return NotFound(c, "alert not found")
	}
	return Success(c, entry)
}

// acknowledgeRequest is the body for POST /v1/alerts/:id/acknowledge.
type acknowledgeRequest struct {
	By   string `json:"by"`
	Note string `json:"note,omitempty"`
}

// Acknowledge handles POST /v1/alerts/:id/acknowledge
func (h *AlertHandler) Acknowledge(c *fiber.Ctx) error {
	id := c.Params("id")

	var req acknowledgeRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}
	if req.By == "" {
		return ValidationError(c, "by is required")
	}

	if !h.manager.Acknowledge(c.Context(), id, req.By, req.Note) {
		return Conflict(c, "alert not found or not acknowledgeable")
	}
	return Success(c, h.manager.GetAlert(id))
}

// snoozeRequest is the body for POST /v1/alerts/:id/snooze.
type snoozeRequest struct {
	DurationMs int64  `json:"duration_ms"`
	By         string `json:"by"`
}

// Snooze handles POST /v1/alerts/:id/snooze
func (h *AlertHandler) Snooze(c *fiber.Ctx) error {
	id := c.Params("id")

	var req snoozeRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}
	if req.DurationMs <= 0 {
		return ValidationError(c, "duration_ms must be positive")
	}
	if req.By == "" {
		return ValidationError(c, "by is required")
	}

	duration := time.Duration(req.DurationMs) * time.Millisecond
	if !h.manager.Snooze(c.Context(), id, duration, req.By) {
		return Conflict(c, "alert not found or not active")
	}
	return Success(c, h.manager.GetAlert(id))
}

// resolveRequest is the body for POST /v1/alerts/:id/resolve.
type resolveRequest struct {
	Resolution string `json:"resolution,omitempty"`
}

// Resolve handles POST /v1/alerts/:id/resolve
func (h *AlertHandler) Resolve(c *fiber.Ctx) error {
	id := c.Params("id")

	var req resolveRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}

	if !h.manager.Resolve(c.Context(), id, req.Resolution) {
		return Conflict(c, "alert not found or already resolved")
	}
	return Success(c, h.manager.GetAlert(id))
}
