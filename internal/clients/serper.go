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
	"risk-assessor/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// SerperClient handles communication with the Serper API for Google web search
type SerperClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

// SerperRequest represents a request to the Serper API
type SerperRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num"`
}

// SerperResponse represents a response from the Serper API
type SerperResponse struct {
	Organic        []SerperResult        `json:"organic"`
	KnowledgeGraph *SerperKnowledgeGraph `json:"knowledgeGraph,omitempty"`
}

// SerperResult represents a single search result
type SerperResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// SerperKnowledgeGraph represents a knowledge graph result
type SerperKnowledgeGraph struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Website     string `json:"website"`
}

// SerperError represents an error response from the Serper API
type SerperError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *SerperError) Error() string {
	return fmt.Sprintf("serper API error (%s): %s", e.Type, e.Message)
}

// NewSerperClient creates a new Serper API client
func NewSerperClient(cfg *config.Config) *SerperClient {
	return &SerperClient{
		apiKey:     cfg.SerperAPIKey,
		baseURL:    cfg.SerperURL,
		httpClient: NewHTTPClient(cfg, cfg.SearchTimeout),
		limiter:    newSearchLimiter(cfg.SearchRatePerSecond),
		logger:     logger.Log,
	}
}

// Kind returns the search method this client serves
func (c *SerperClient) Kind() models.SearchMethod {
	return models.SearchGoogle
}

// Available reports whether an API key is configured
func (c *SerperClient) Available() bool {
	return c.apiKey != ""
}

// Search performs a web search using the Serper API
func (c *SerperClient) Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("serper: %w", ErrNotConfigured)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("serper rate limiter: %w", err)
	}

	start := time.Now()
	correlationID := logger.CorrelationID(ctx)

	c.logger.WithFields(map[string]interface{}{
		"correlation_id": correlationID,
		"query":          query,
		"num_results":    maxResults,
	}).Info("Performing Serper web search")

	requestBody, err := json.Marshal(SerperRequest{Query: query, Num: maxResults})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr SerperError
		if json.Unmarshal(responseBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("API error (status %d): %w", resp.StatusCode, &apiErr)
		}
		return nil, NewAPIError("serper", resp.StatusCode, "")
	}

	var serperResp SerperResponse
	if err := json.Unmarshal(responseBody, &serperResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	results := c.toSearchResults(&serperResp, maxResults)

	c.logger.WithFields(map[string]interface{}{
		"correlation_id":      correlationID,
		"duration_ms":         time.Since(start).Milliseconds(),
		"results_count":       len(results),
		"has_knowledge_graph": serperResp.KnowledgeGraph != nil,
	}).Info("Serper search completed")

	return results, nil
}

// toSearchResults converts organic results, preceded by the knowledge graph website
// when Google identified one for the query
func (c *SerperClient) toSearchResults(resp *SerperResponse, maxResults int) []models.SearchResult {
	results := make([]models.SearchResult, 0, len(resp.Organic)+1)

	if kg := resp.KnowledgeGraph; kg != nil && strings.HasPrefix(kg.Website, "http") {
		results = append(results, models.SearchResult{
			Title:      kg.Title,
			URL:        kg.Website,
			Snippet:    kg.Description,
			SourceTool: models.ToolGoogle,
		})
	}

	for _, r := range resp.Organic {
		if r.Link == "" {
			continue
		}
		results = append(results, models.SearchResult{
			Title:      r.Title,
			URL:        r.Link,
			Snippet:    r.Snippet,
			SourceTool: models.ToolGoogle,
		})
	}

	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// newSearchLimiter paces calls to a public search backend; a non-positive rate disables pacing
func newSearchLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}
