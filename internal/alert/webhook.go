package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"revue/internal/version"
)

// Payload formats understood by WebhookNotifier
const (
	FormatJSON    = "json"
	FormatDiscord = "discord"
	FormatSlack   = "slack"
)

const webhookTimeout = 5 * time.Second

// WebhookNotifier posts alerts to an HTTP endpoint. A failed delivery is logged
// and dropped.
type WebhookNotifier struct {
	url    string
	format string
	client *http.Client
	logger *slog.Logger
}

// NewWebhookNotifier creates a webhook notifier. An empty format means JSON.
func NewWebhookNotifier(url, format string, logger *slog.Logger) *WebhookNotifier {
	if format == "" {
		format = FormatJSON
	}
	return &WebhookNotifier{
		url:    url,
		format: format,
		client: &http.Client{Timeout: webhookTimeout},
		logger: logger,
	}
}

func (w *WebhookNotifier) Notify(ctx context.Context, a Alert) {
	if err := w.deliver(ctx, a); err != nil {
		w.logger.Warn("Alert webhook delivery failed",
			"alert_id", a.ID,
			"url", w.url,
			"error", err.Error(),
		)
	}
}

func (w *WebhookNotifier) deliver(ctx context.Context, a Alert) error {
	payload, err := FormatPayload(w.format, a)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "revue/"+version.Version)
	req.Header.Set("X-Revue-Alert-ID", a.ID)

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10*1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return nil
}

// FormatPayload renders an alert for the given webhook flavour
func FormatPayload(format string, a Alert) ([]byte, error) {
	switch format {
	case FormatDiscord:
		return formatDiscord(a)
	case FormatSlack:
		return formatSlack(a)
	default:
		return json.Marshal(a)
	}
}

func formatDiscord(a Alert) ([]byte, error) {
	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{
			{
				"title":       fmt.Sprintf("revue %s", a.Code),
				"description": fmt.Sprintf("%s: %s", a.Op, a.Detail),
				"color":       0xFF0000,
				"timestamp":   a.Time.Format(time.RFC3339),
				"footer": map[string]interface{}{
					"text": a.ID,
				},
			},
		},
	}
	return json.Marshal(payload)
}

func formatSlack(a Alert) ([]byte, error) {
	payload := map[string]interface{}{
		"attachments": []map[string]interface{}{
			{
				"color":  "danger",
				"text":   fmt.Sprintf(":x: %s failed with %s: %s", a.Op, a.Code, a.Detail),
				"ts":     a.Time.Unix(),
				"footer": "revue",
			},
		},
	}
	return json.Marshal(payload)
}
