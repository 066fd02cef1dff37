package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"risk-assessor/internal/config"
	"risk-assessor/internal/logger"
	"risk-assessor/internal/utils"

	"github.com/sirupsen/logrus"
)

const (
	completionTemperature = 0.2
	completionTopP        = 0.9
	defaultMaxTokens      = 2048
)

// CompletionClientInterface defines the interface for the LLM completion client
type CompletionClientInterface interface {
	Complete(ctx context.Context, prompt, model, apiBase string, maxTokens int) (string, error)
	Probe(ctx context.Context, apiBase string) bool
}

// CompletionClient talks to an OpenAI-compatible /completions endpoint such as vLLM
type CompletionClient struct {
	httpClient   *http.Client
	probeTimeout time.Duration
	logger       *logrus.Logger
}

// CompletionRequest represents a request to the completions endpoint
type CompletionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	TopP        float64 `json:"top_p"`
}

// CompletionResponse represents a response from the completions endpoint
type CompletionResponse struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Choices []CompletionChoice `json:"choices"`
	Usage   CompletionUsage    `json:"usage"`
}

// CompletionChoice represents one generated completion
type CompletionChoice struct {
	Index        int    `json:"index"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

// CompletionUsage represents token usage information
type CompletionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// NewCompletionClient creates a new completion client
func NewCompletionClient(cfg *config.Config) *CompletionClient {
	return &CompletionClient{
		httpClient:   NewHTTPClient(cfg, cfg.LLMTimeout),
		probeTimeout: cfg.LLMProbeTimeout,
		logger:       logger.Log,
	}
}

// Complete sends a single completion request. There is no retry: a failed call is
// reported to the caller, which decides how to degrade.
func (c *CompletionClient) Complete(ctx context.Context, prompt, model, apiBase string, maxTokens int) (string, error) {
	start := time.Now()
	correlationID := logger.CorrelationID(ctx)

	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	c.logger.WithFields(map[string]interface{}{
		"correlation_id": correlationID,
		"model":          model,
		"api_base":       apiBase,
		"prompt_length":  len(prompt),
		"max_tokens":     maxTokens,
	}).Info("Making completion API call")

	requestBody, err := json.Marshal(CompletionRequest{
		Model:       model,
		Prompt:      prompt,
		Temperature: completionTemperature,
		MaxTokens:   maxTokens,
		TopP:        completionTopP,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(apiBase, "completions"), bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	text, completion, err := c.parseCompletionResponse(resp)
	if err != nil {
		return "", err
	}

	duration := time.Since(start)
	c.logger.WithFields(map[string]interface{}{
		"correlation_id":    correlationID,
		"duration_ms":       duration.Milliseconds(),
		"response_length":   len(text),
		"prompt_tokens":     completion.Usage.PromptTokens,
		"completion_tokens": completion.Usage.CompletionTokens,
	}).Info("Completion API response received")

	return text, nil
}

// Probe reports whether the model server answers GET {apiBase}/models with 200
func (c *CompletionClient) Probe(ctx context.Context, apiBase string) bool {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint(apiBase, "models"), nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"api_base": apiBase,
			"error":    err.Error(),
		}).Warn("LLM server probe failed")
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// parseCompletionResponse reads the first choice's text from a completion response
func (c *CompletionClient) parseCompletionResponse(resp *http.Response) (string, *CompletionResponse, error) {
	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", nil, NewAPIError("completion", resp.StatusCode, utils.TruncateForLog(strings.TrimSpace(string(responseBody)), 200))
	}

	var completion CompletionResponse
	if err := json.Unmarshal(responseBody, &completion); err != nil {
		return "", nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", nil, fmt.Errorf("empty completion choices")
	}

	return strings.TrimSpace(completion.Choices[0].Text), &completion, nil
}

func endpoint(apiBase, path string) string {
	return strings.TrimRight(apiBase, "/") + "/" + path
}
