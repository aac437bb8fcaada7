// Package channel defines the notification delivery contract consumed
// by the alert manager, plus the built-in webhook and log channels.
// Optional capabilities (batch dispatch, health test) are probed once at
// registration time rather than type-asserted at every call site.
package channel

import (
	"context"

	"sentinel-go/internal/domain"
)

// Channel is the mandatory capability every notification channel
// implements. Implementations must be safe for concurrent use and must
// tolerate alerts with missing optional fields (labels, runbook URL).
type Channel interface {
	// Name identifies the channel in logs and metrics.
	Name() string

	// Send delivers a single alert. Timeout and retry policy are the
	// channel's own responsibility.
	Send(ctx context.Context, alert domain.TriggeredAlert) error
}

// BatchSender is an optional capability for channels that can deliver
// several alerts in one message.
type BatchSender interface {
	SendBatch(ctx context.Context, alerts []domain.TriggeredAlert) error
}

// Tester is an optional capability for channels that can verify their
// own connectivity.
type Tester interface {
	Test(ctx context.Context) error
}

// Registration wraps a channel with its probed optional capabilities.
type Registration struct {
	Channel

	batch  BatchSender
	tester Tester
}

// Register probes the optional capabilities of a channel once and
// returns the registration the manager dispatches through.
func Register(ch Channel) *Registration {
	reg := &Registration{Channel: ch}
	if b, ok := ch.(BatchSender); ok {
		reg.batch = b
	}
	if t, ok := ch.(Tester); ok {
		reg.tester = t
	}
	return reg
}

// SupportsBatch reports whether the channel can deliver batches.
func (r *Registration) SupportsBatch() bool {
	return r.batch != nil
}

// SendBatch delivers several alerts in one message. Callers must check
// SupportsBatch first.
func (r *Registration) SendBatch(ctx context.Context, alerts []domain.TriggeredAlert) error {
	return r.batch.SendBatch(ctx, alerts)
}

// Test verifies channel connectivity. Channels without the capability
// are assumed healthy.
func (r *Registration) Test(ctx context.Context) bool {
	if r.tester == nil {
		return true
	}
	return r.tester.Test(ctx) == nil
}

// SeverityMarker returns the consistent visual marker channels prepend
// to rendered alerts.
func SeverityMarker(s domain.Severity) string {
	switch s {
	case domain.SeverityCritical:
		return "[CRIT]"
	case domain.SeverityWarning:
		return "[WARN]"
	default:
		return "[INFO]"
	}
}
