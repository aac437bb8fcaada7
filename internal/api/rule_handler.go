package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"sentinel-go/internal/domain"
	"sentinel-go/internal/monitor"
)

// RuleHandler handles HTTP requests for alert rule management.
type RuleHandler struct {
	manager *monitor.Manager
	logger  *slog.Logger
}

// NewRuleHandler creates a new rule handler.
func NewRuleHandler(manager *monitor.Manager, logger *slog.Logger) *RuleHandler {
	return &RuleHandler{
		manager: manager,
		logger:  logger,
	}
}

// List handles GET /v1/rules
func (h *RuleHandler) List(c *fiber.Ctx) error {
	return Success(c, h.manager.Rules())
}

// Create handles POST /v1/rules
// Adds a rule, replacing any existing rule with the same id. A missing
// id is generated. Takes effect on the next evaluation cycle.
func (h *RuleHandler) Create(c *fiber.Ctx) error {
	var rule domain.AlertRule
	if err := c.BodyParser(&rule); err != nil {
		return BadRequest(c, "invalid request body")
	}

	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	if err := h.manager.AddRule(rule); err != nil {
		return ValidationError(c, err.Error())
	}

	h.logger.Info("rule added", "ruleID", rule.ID, "metric", rule.MetricName)
	return Created(c, rule)
}

// GetByID handles GET /v1/rules/:id
func (h *RuleHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	rule := h.manager.GetRule(id)
	if rule == nil {
		return NotFound(c, "rule not found")
	}
	return Success(c, rule)
}

// Delete handles DELETE /v1/rules/:id
func (h *RuleHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if !h.manager.RemoveRule(id) {
		return NotFound(c, "rule not found")
	}
	h.logger.Info("rule removed", "ruleID", id)
	return NoContent(c)
}

// Trend handles GET /v1/rules/:id/trend
// Returns the rolling history of aggregated values for a rule.
func (h *RuleHandler) Trend(c *fiber.Ctx) error {
	id := c.Params("id")
	if h.manager.GetRule(id) == nil {
		return NotFound(c, "rule not found")
	}
	return Success(c, h.manager.Trend(id))
}
