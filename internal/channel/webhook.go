package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"sentinel-go/internal/domain"
)

// webhookTimeout caps a single delivery attempt.
const webhookTimeout = 10 * time.Second

// WebhookPayload is the JSON body posted for a single alert.
type WebhookPayload struct {
	AlertID    string            `json:"alert_id"`
	RuleID     string            `json:"rule_id"`
	RuleName   string            `json:"rule_name"`
	Severity   string            `json:"severity"`
	Marker     string            `json:"marker"`
	Value      float64           `json:"value"`
	Threshold  float64           `json:"threshold"`
	Message    string            `json:"message"`
	RunbookURL string            `json:"runbook_url,omitempty"`
	Labels     map[string]string `json:"labels,omitempty"`
	Timestamp  int64             `json:"timestamp"`
}

// WebhookBatchPayload is the JSON body posted for a batch flush.
type WebhookBatchPayload struct {
	Count  int              `json:"count"`
	Alerts []WebhookPayload `json:"alerts"`
}

// Webhook delivers alerts as JSON POSTs to a configured URL. It
// implements the batch and test capabilities. The zero value is not
// usable; construct with NewWebhook.
type Webhook struct {
	name   string
	url    string
	client *http.Client
}

// NewWebhook creates a webhook channel posting to the given URL.
func NewWebhook(name, url string) *Webhook {
	return &Webhook{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: webhookTimeout},
	}
}

// Name identifies the channel.
func (w *Webhook) Name() string {
	return w.name
}

// Send posts one alert to the webhook URL.
func (w *Webhook) Send(ctx context.Context, alert domain.TriggeredAlert) error {
	return w.post(ctx, buildPayload(alert))
}

// SendBatch posts all alerts of a flush as a single request.
func (w *Webhook) SendBatch(ctx context.Context, alerts []domain.TriggeredAlert) error {
	payload := WebhookBatchPayload{
		Count:  len(alerts),
		Alerts: make([]WebhookPayload, 0, len(alerts)),
	}
	for _, alert := range alerts {
		payload.Alerts = append(payload.Alerts, buildPayload(alert))
	}
	return w.post(ctx, payload)
}

// Test posts an empty batch to verify the endpoint accepts requests.
func (w *Webhook) Test(ctx context.Context) error {
	return w.post(ctx, WebhookBatchPayload{Count: 0, Alerts: []WebhookPayload{}})
}

func (w *Webhook) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// buildPayload renders a notification payload from an alert.
func buildPayload(alert domain.TriggeredAlert) WebhookPayload {
	return WebhookPayload{
		AlertID:    alert.ID,
		RuleID:     alert.Rule.ID,
		RuleName:   alert.Rule.Name,
		Severity:   string(alert.Rule.Severity),
		Marker:     SeverityMarker(alert.Rule.Severity),
		Value:      alert.Value,
		Threshold:  alert.Rule.Threshold,
		Message:    alert.Message,
		RunbookURL: alert.Rule.RunbookURL,
		Labels:     alert.Labels,
		Timestamp:  alert.Timestamp,
	}
}
