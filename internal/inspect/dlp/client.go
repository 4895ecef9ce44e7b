// Package dlp is a thin HTTP client for the sensitive-data detection
// service. The service is an opaque scoring collaborator: text in,
// finding labels out. No detection logic lives on this side.
package dlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client calls the detection service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the given base URL. timeout bounds each
// detection call; zero falls back to 10s so a stalled service surfaces
// as an error instead of a hang.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type detectRequest struct {
	Text string `json:"text"`
}

type detectResponse struct {
	Findings []struct {
		InfoType string `json:"info_type"`
	} `json:"findings"`
}

// Detect submits text for inspection and returns the matched finding
// labels. An empty slice means no findings.
func (c *Client) Detect(ctx context.Context, text string) ([]string, error) {
	body, err := json.Marshal(detectRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("encode detect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/inspect", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build detect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detection service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("detection service returned %d: %s", resp.StatusCode, msg)
	}

	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode detect response: %w", err)
	}

	labels := make([]string, 0, len(out.Findings))
	for _, f := range out.Findings {
		labels = append(labels, f.InfoType)
	}
	return labels, nil
}
