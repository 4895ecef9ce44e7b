// Package semantic is a thin HTTP client for the semantic classification
// service, consulted for domain judgments that plain type checking
// cannot make. Like the detection service it is treated as an opaque
// collaborator.
package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mastergate/internal/inspect"
	"mastergate/internal/schema"
)

// Client calls the classification service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the given base URL. timeout bounds each
// classification call; zero falls back to 10s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type classifyRequest struct {
	Column schema.Column `json:"column"`
	Value  any           `json:"value"`
}

// Classify asks the service whether value is acceptable for the column.
func (c *Client) Classify(ctx context.Context, col schema.Column, value any) (inspect.Verdict, error) {
	body, err := json.Marshal(classifyRequest{Column: col, Value: value})
	if err != nil {
		return inspect.Verdict{}, fmt.Errorf("encode classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/classify", bytes.NewReader(body))
	if err != nil {
		return inspect.Verdict{}, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return inspect.Verdict{}, fmt.Errorf("classification service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return inspect.Verdict{}, fmt.Errorf("classification service returned %d: %s", resp.StatusCode, msg)
	}

	var verdict inspect.Verdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return inspect.Verdict{}, fmt.Errorf("decode classify response: %w", err)
	}
	return verdict, nil
}
