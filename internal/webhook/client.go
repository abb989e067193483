// Package webhook is the boundary to the external workflow engine that
// performs the actual email generation and sending. The engine is consumed as
// an opaque HTTP endpoint; any non-2xx response or transport failure is a
// submission failure.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tinselhq/tinsel/internal/config"
)

const defaultTimeout = 10 * time.Second

// secretHeader carries the shared secret the workflow engine checks.
const secretHeader = "X-N8N-SECRET"

// Payload is the exact wire body the workflow engine expects. Recipients stays
// the raw comma/newline-delimited string as entered in the form.
type Payload struct {
	HolidayName  string `json:"holiday_name"`
	Tone         string `json:"tone"`
	SenderName   string `json:"sender_name"`
	AudienceType string `json:"audience_type"`
	Language     string `json:"language"`
	Recipients   string `json:"recipients"`
}

// Client posts holiday-email submissions to the configured webhook URL.
type Client struct {
	url        string
	secret     string
	httpClient *http.Client
}

// NewClient creates a webhook client. The request timeout is explicit rather
// than inherited from transport defaults.
func NewClient(cfg config.WebhookConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url:    cfg.URL,
		secret: cfg.Secret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Submit posts one submission to the workflow engine. An empty tone defaults
// to "warm" on the wire. The secret header is omitted when no secret is
// configured.
func (c *Client) Submit(ctx context.Context, p Payload) error {
	if p.Tone == "" {
		p.Tone = "warm"
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set(secretHeader, c.secret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
