package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Client is the HTTP implementation of Generator. It posts generation
// requests to the hosted inference endpoint and normalizes responses and
// failures.
type Client struct {
	config ClientConfig
	client *http.Client
	costs  *CostTable
	logger *slog.Logger
}

// ClientConfig configures the inference client.
type ClientConfig struct {
	// BaseURL is the inference endpoint base URL.
	// Example: "https://api.example.com/v1"
	BaseURL string

	// APIKey is the bearer token for the endpoint, if required.
	APIKey string

	// Timeout bounds each generation call. A call that exceeds it is a
	// retryable failure and is never charged units.
	// Default: 60 seconds.
	Timeout time.Duration

	// MaxIdleConns and MaxIdleConnsPerHost tune connection pooling.
	MaxIdleConns        int
	MaxIdleConnsPerHost int

	// Costs is the fallback unit cost table used when the upstream
	// response omits usage data. Defaults to DefaultCostTable.
	Costs *CostTable

	// Logger is the structured logger. Defaults to slog.Default.
	Logger *slog.Logger
}

// NewClient creates an inference client with connection pooling.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 10
	}
	if cfg.MaxIdleConnsPerHost == 0 {
		cfg.MaxIdleConnsPerHost = 10
	}
	if cfg.Costs == nil {
		cfg.Costs = DefaultCostTable()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		config: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		costs:  cfg.Costs,
		logger: cfg.Logger.With("component", "inference"),
	}
}

// generateRequest is the wire format sent to the endpoint.
type generateRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

// generateResponse is the wire format returned by the endpoint.
type generateResponse struct {
	Text  string `json:"text"`
	Usage struct {
		PromptTokens     int   `json:"prompt_tokens"`
		CompletionTokens int   `json:"completion_tokens"`
		Neurons          int64 `json:"neurons"`
	} `json:"usage"`
	Error string `json:"error,omitempty"`
}

// Generate implements Generator.
func (c *Client) Generate(ctx context.Context, req *Request) (*Result, error) {
	body, err := json.Marshal(generateRequest{
		Model:     req.Model,
		Prompt:    req.Prompt,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return nil, &Error{Kind: KindMalformed, Model: req.Model,
			Message: "failed to encode request", Cause: err}
	}

	url := c.config.BaseURL + "/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Model: req.Model,
			Message: "failed to build request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, &Error{Kind: KindTimeout, Model: req.Model,
				Message: "generation call timed out", Cause: err}
		}
		return nil, &Error{Kind: KindTransport, Model: req.Model,
			Message: "generation call failed", Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Model: req.Model,
			StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: KindUpstream, Model: req.Model,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("upstream returned %s", http.StatusText(resp.StatusCode))}
	}

	var decoded generateResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, &Error{Kind: KindMalformed, Model: req.Model,
			StatusCode: resp.StatusCode, Message: "failed to decode response", Cause: err}
	}
	if decoded.Error != "" {
		return nil, &Error{Kind: KindUpstream, Model: req.Model,
			StatusCode: resp.StatusCode, Message: decoded.Error}
	}
	if decoded.Text == "" {
		return nil, &Error{Kind: KindMalformed, Model: req.Model,
			StatusCode: resp.StatusCode, Message: "response contained no text"}
	}

	units := decoded.Usage.Neurons
	if units == 0 {
		// Upstream omitted usage data; fall back to the cost table.
		totalTokens := decoded.Usage.PromptTokens + decoded.Usage.CompletionTokens
		units = c.costs.Units(req.Model, totalTokens, req.Prompt, decoded.Text)
	}

	c.logger.Debug("generation completed",
		"model", req.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"units", units,
	)

	return &Result{Text: decoded.Text, UnitsUsed: units}, nil
}

// HealthCheck probes the endpoint with a lightweight request. Returns nil
// if the endpoint is reachable and responding.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("inference endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 500 {
		return fmt.Errorf("inference endpoint unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
