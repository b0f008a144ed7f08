// Package notify delivers best-effort admin notifications through an
// external email-sending webhook. Delivery failures are the caller's to
// log and swallow; they must never affect a stock mutation's outcome.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Notifier sends a notification to a set of recipients.
type Notifier interface {
	Notify(ctx context.Context, to []string, subject, body string) error
}

// Webhook posts notifications as JSON to an email-sending webhook.
type Webhook struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

// NewWebhook builds a Webhook notifier for the given endpoint.
func NewWebhook(url string, log *zap.Logger) *Webhook {
	return &Webhook{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

type webhookPayload struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Notify posts the message. A non-2xx response counts as a failure.
func (w *Webhook) Notify(ctx context.Context, to []string, subject, body string) error {
	payload, err := json.Marshal(webhookPayload{To: to, Subject: subject, Body: body})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("send notification: webhook returned %s", resp.Status)
	}
	w.log.Debug("notification delivered",
		zap.Int("recipients", len(to)),
		zap.String("subject", subject))
	return nil
}

// Noop discards all notifications. Used when no webhook is configured.
type Noop struct{}

func (Noop) Notify(ctx context.Context, to []string, subject, body string) error { return nil }
