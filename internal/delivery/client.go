// Package delivery posts batches of ingest events to the backend.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/paisatrail/paisatrail/internal/model"
	"github.com/paisatrail/paisatrail/internal/service"
)

const batchPath = "/ingest/notifications/batch"

// StatusError is a non-2xx backend response. The queue classifies it as
// retryable or permanent from the status code.
type StatusError struct {
	Body string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ingest backend returned %d: %s", e.Code, e.Body)
}

// StatusCode returns the HTTP status code.
func (e *StatusError) StatusCode() int {
	return e.Code
}

// batchRequest is the wire body for a batch delivery.
type batchRequest struct {
	DeviceID string              `json:"device_id"`
	Events   []model.IngestEvent `json:"events"`
}

// Client delivers event batches over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	authToken  string
}

// NewClient creates a delivery client for the given backend base URL.
// authToken may be empty for unauthenticated backends.
func NewClient(baseURL, authToken string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SendBatch posts one batch for the device. Transport errors pass through
// unwrapped so the caller's retry classification sees them as such; non-2xx
// responses come back as *StatusError.
func (c *Client) SendBatch(ctx context.Context, deviceID string, events []model.IngestEvent) (*service.BatchResponse, error) {
	body, err := json.Marshal(batchRequest{DeviceID: deviceID, Events: events})
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+batchPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var out service.BatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}
