package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dbchat/dbchat/internal/pipeline"
	"github.com/dbchat/dbchat/internal/schema"
)

// Client talks to the dbchat HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

type ClientOptions struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: baseURL, apiKey: strings.TrimSpace(opts.APIKey), http: httpClient}
}

// APIError is a non-2xx response decoded from the service error body.
type APIError struct {
	StatusCode int
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	Retryable  bool   `json:"retryable"`
	TraceID    string `json:"trace_id"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

type ChatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

type ChatResult struct {
	Explanation string              `json:"explanation"`
	Intent      pipeline.Intent     `json:"intent"`
	SQL         string              `json:"sql,omitempty"`
	Attempt     int                 `json:"attempt"`
	Columns     []string            `json:"columns,omitempty"`
	Rows        [][]any             `json:"rows,omitempty"`
	Executed    bool                `json:"executed"`
	Failure     *pipeline.Failure   `json:"failure,omitempty"`
	Chart       *pipeline.ChartSpec `json:"chart,omitempty"`
	Report      string              `json:"report,omitempty"`
	Artifacts   []string            `json:"artifacts,omitempty"`
	Warnings    []string            `json:"warnings,omitempty"`
	SessionID   string              `json:"session_id,omitempty"`
	TraceID     string              `json:"trace_id,omitempty"`
}

type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var status HealthStatus
	err := c.do(ctx, http.MethodGet, "/v1/health", nil, &status)
	return status, err
}

func (c *Client) Ready(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/v1/ready", nil, nil)
}

func (c *Client) Chat(ctx context.Context, req ChatRequest) (ChatResult, error) {
	var result ChatResult
	err := c.do(ctx, http.MethodPost, "/v1/chat", req, &result)
	return result, err
}

func (c *Client) Schema(ctx context.Context, refresh bool) (*schema.Snapshot, error) {
	method := http.MethodGet
	path := "/v1/schema"
	if refresh {
		method = http.MethodPost
		path = "/v1/schema/refresh"
	}
	var snapshot schema.Snapshot
	if err := c.do(ctx, method, path, nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}
