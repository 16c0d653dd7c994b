package analyticsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/models"
)

// DefaultTimeout bounds a single analytics call
const DefaultTimeout = 30 * time.Second

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("analytics service error (status %d): %s", e.StatusCode, e.Message)
}

// Client calls the arbitrage analytics service over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new analytics client. httpClient may be nil.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: DefaultTimeout,
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Analyze submits a quote snapshot and returns the detected opportunities
func (c *Client) Analyze(ctx context.Context, req models.AnalyzeRequest) ([]models.Opportunity, error) {
	var resp models.AnalyzeResponse
	if err := c.post(ctx, "/api/analyze", req, &resp); err != nil {
		return nil, err
	}
	return resp.Opportunities, nil
}

// Simulate re-runs the Monte Carlo stage for a previously produced opportunity
func (c *Client) Simulate(ctx context.Context, req models.SimulateRequest) (models.SimulationSummary, error) {
	var summary models.SimulationSummary
	if err := c.post(ctx, "/api/simulate", req, &summary); err != nil {
		return models.SimulationSummary{}, err
	}
	return summary, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
