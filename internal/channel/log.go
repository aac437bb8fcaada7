package channel

import (
	"context"
	"log/slog"

	"sentinel-go/internal/domain"
)

// Log is a channel that writes alerts to the structured log. It is the
// default channel in memory mode and deliberately implements only the
// mandatory capability, exercising the manager's per-alert fallback
// path for channels without batch support.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a log channel.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

// Name identifies the channel.
func (l *Log) Name() string {
	return "log"
}

// Send writes one alert to the log.
func (l *Log) Send(ctx context.Context, alert domain.TriggeredAlert) error {
	l.logger.Warn("alert triggered",
		"marker", SeverityMarker(alert.Rule.Severity),
		"alertID", alert.ID,
		"ruleID", alert.Rule.ID,
		"severity", alert.Rule.Severity,
		"value", alert.Value,
		"message", alert.Message,
	)
	return nil
}
