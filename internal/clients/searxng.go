package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"risk-assessor/internal/config"
	"risk-assessor/internal/logger"
	"risk-assessor/internal/models"

	"github.com/sirupsen/logrus"
)

// SearXNGClient queries a self-hosted SearXNG meta-search instance
type SearXNGClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// SearXNGResponse represents the JSON output format of /search
type SearXNGResponse struct {
	Results []SearXNGResult `json:"results"`
}

// SearXNGResult represents a single SearXNG result
type SearXNGResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// NewSearXNGClient creates a client for the instance at baseURL
func NewSearXNGClient(cfg *config.Config, baseURL string) *SearXNGClient {
	return &SearXNGClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: NewHTTPClient(cfg, cfg.SearchTimeout),
		logger:     logger.Log,
	}
}

// Kind returns the search method this client serves
func (c *SearXNGClient) Kind() models.SearchMethod {
	return models.SearchSearXNG
}

// Available reports whether an instance URL is configured
func (c *SearXNGClient) Available() bool {
	return c.baseURL != ""
}

// BaseURL returns the instance this client queries
func (c *SearXNGClient) BaseURL() string {
	return c.baseURL
}

// Search runs GET {baseURL}/search?q=...&format=json
func (c *SearXNGClient) Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("searxng: %w", ErrNotConfigured)
	}

	start := time.Now()
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewAPIError("searxng", resp.StatusCode, "")
	}

	var searxResp SearXNGResponse
	if err := json.Unmarshal(body, &searxResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	results := make([]models.SearchResult, 0, len(searxResp.Results))
	for _, item := range searxResp.Results {
		if maxResults > 0 && len(results) >= maxResults {
			break
		}
		if item.URL == "" {
			continue
		}
		results = append(results, models.SearchResult{
			Title:      item.Title,
			URL:        item.URL,
			Snippet:    item.Content,
			SourceTool: models.ToolSearXNG,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"correlation_id": logger.CorrelationID(ctx),
		"base_url":       c.baseURL,
		"duration_ms":    time.Since(start).Milliseconds(),
		"results_count":  len(results),
	}).Info("SearXNG search completed")

	return results, nil
}
