// Package client is the Go API client used by the CLI. It mirrors what the
// embedded browser form does: password login, token plus API key on every
// protected call, and local session purge when the server rejects the
// credentials.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tinselhq/tinsel/internal/model"
)

// APIError is a non-2xx response decoded from the standard error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Client talks to one Tinsel server. It carries the static API key; the
// bearer token for protected calls is supplied per request by the session
// manager.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Client for the given server.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Login exchanges the access password for a session token. Unauthenticated;
// subject to the server's strict login limiter.
func (c *Client) Login(ctx context.Context, password string) (*model.LoginResponse, error) {
	var resp model.LoginResponse
	err := c.do(ctx, "POST", "/auth/login", "", map[string]string{"password": password}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Send submits a holiday email batch.
func (c *Client) Send(ctx context.Context, token string, req SendParams) (*model.SendResponse, error) {
	var resp model.SendResponse
	err := c.do(ctx, "POST", "/api/send-holiday-emails", token, req, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendParams is the payload for Send. Recipients is comma or newline
// separated, exactly as typed in the form.
type SendParams struct {
	HolidayName  string `json:"holidayName"`
	Tone         string `json:"tone,omitempty"`
	AudienceType string `json:"audienceType,omitempty"`
	Language     string `json:"language,omitempty"`
	SenderName   string `json:"senderName"`
	Recipients   string `json:"recipients"`
}

// ListLogs fetches one page of the batch log.
func (c *Client) ListLogs(ctx context.Context, token string, limit, offset int, status string) (*model.ListBatchesResponse, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	if status != "" {
		q.Set("status", status)
	}
	path := "/api/email-logs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp model.ListBatchesResponse
	if err := c.do(ctx, "GET", path, token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetLog fetches one batch with its recipients.
func (c *Client) GetLog(ctx context.Context, token, batchID string) (*model.GetBatchResponse, error) {
	var resp model.GetBatchResponse
	if err := c.do(ctx, "GET", "/api/email-logs/"+batchID, token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-API-Key", c.apiKey)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := &APIError{Status: res.StatusCode, Code: model.CodeInternalError, Message: res.Status}
		var envelope model.ErrorResponse
		if err := json.NewDecoder(res.Body).Decode(&envelope); err == nil && envelope.Code != "" {
			apiErr.Code = envelope.Code
			apiErr.Message = envelope.Error
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
