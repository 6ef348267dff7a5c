// Package openaicompat implements codegen.Generator against any backend
// speaking the OpenAI Chat Completions protocol (OpenAI, vLLM, LiteLLM,
// proxy gateways).
package openaicompat

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

	"github.com/taskpilot-dev/taskpilot/pkg/api"
	"github.com/taskpilot-dev/taskpilot/pkg/codegen"
)

const (
	defaultTimeout     = 20 * time.Second
	defaultTemperature = 0.2
	maxErrorBodySize   = 2048
)

// Config holds the connection settings for a Chat Completions backend.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.openai.com/v1".
	BaseURL string
	// APIKey is sent as a bearer token.
	APIKey string
	// Model is the model identifier passed through to the backend.
	Model string
	// Timeout bounds a single generation call. Defaults to 20s.
	Timeout time.Duration
	// Temperature defaults to 0.2; generation should be reproducible
	// rather than creative.
	Temperature *float64
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client is a codegen.Generator backed by a Chat Completions endpoint.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
}

// New validates the config and creates a client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	temperature := defaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: temperature,
		httpClient:  httpClient,
	}, nil
}

// Name implements codegen.Generator.
func (c *Client) Name() string {
	return "openaicompat"
}

// Close implements codegen.Generator.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Generate performs a single chat completion and parses the reply into an
// artifact. It never retries; failed attempts surface to the engine.
func (c *Client) Generate(ctx context.Context, req codegen.Request) (*api.Artifact, error) {
	chatReq := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: codegen.SystemPrompt},
			{Role: "user", Content: req.Task},
		},
		Temperature: c.temperature,
	}
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("encoding chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, mapHTTPError(resp)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, &codegen.MalformedResponseError{Reason: "invalid completion envelope: " + err.Error()}
	}
	if len(chatResp.Choices) == 0 {
		return nil, codegen.ErrEmptyResponse
	}
	return codegen.ParseArtifact(chatResp.Choices[0].Message.Content)
}

func mapNetworkError(err error) error {
	msg := "request failed"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		msg = "request timed out"
	case errors.Is(err, context.Canceled):
		msg = "request canceled"
	}
	return &codegen.UpstreamError{Message: msg, Err: err}
}

func mapHTTPError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	message := strings.TrimSpace(string(body))

	// Backends wrap errors as {"error": {"message": ...}}; surface just
	// the message when present.
	var wrapped struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Error.Message != "" {
		message = wrapped.Error.Message
	}
	if message == "" {
		message = resp.Status
	}
	return &codegen.UpstreamError{StatusCode: resp.StatusCode, Message: message}
}
