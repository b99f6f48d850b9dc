package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WebhookSink posts events as JSON to an HTTP collector.
type WebhookSink struct {
	URL    string
	APIKey string
	Agent  string

	HTTP *http.Client
}

type webhookPayload struct {
	Agent   string         `json:"agent"`
	Action  string         `json:"action"`
	Level   string         `json:"level"`
	Details map[string]any `json:"details"`
	SentAt  string         `json:"sent_at"`
}

func (w *WebhookSink) Notify(ctx context.Context, ev Event) error {
	if w == nil {
		return nil
	}
	url := strings.TrimSpace(w.URL)
	if url == "" {
		return errors.New("notify webhook url is empty")
	}
	b, err := json.Marshal(webhookPayload{
		Agent:   w.agent(),
		Action:  ev.Action,
		Level:   ev.Level,
		Details: ev.Details,
		SentAt:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if key := strings.TrimSpace(w.APIKey); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := w.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bb, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return fmt.Errorf("notify webhook http %d: %s", resp.StatusCode, strings.TrimSpace(string(bb)))
	}
	return nil
}

func (w *WebhookSink) agent() string {
	if a := strings.TrimSpace(w.Agent); a != "" {
		return a
	}
	return "matka-service"
}

func (w *WebhookSink) httpClient() *http.Client {
	if w.HTTP != nil {
		return w.HTTP
	}
	return &http.Client{Timeout: 10 * time.Second}
}
