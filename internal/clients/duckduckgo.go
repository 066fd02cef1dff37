package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"risk-assessor/internal/config"
	"risk-assessor/internal/logger"
	"risk-assessor/internal/models"
	"risk-assessor/internal/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

// DuckDuckGoClient scrapes the DuckDuckGo HTML results page
type DuckDuckGoClient struct {
	searchURL  string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

// NewDuckDuckGoClient creates a new DuckDuckGo HTML search client
func NewDuckDuckGoClient(cfg *config.Config) *DuckDuckGoClient {
	return &DuckDuckGoClient{
		searchURL:  cfg.DDGHTMLURL,
		userAgent:  cfg.UserAgent,
		httpClient: NewHTTPClient(cfg, cfg.SearchTimeout),
		limiter:    newSearchLimiter(cfg.SearchRatePerSecond),
		logger:     logger.Log,
	}
}

// Kind returns the search method this client serves
func (c *DuckDuckGoClient) Kind() models.SearchMethod {
	return models.SearchDDG
}

// Available reports whether a results page URL is configured
func (c *DuckDuckGoClient) Available() bool {
	return c.searchURL != ""
}

// Search fetches the results page for query and parses result anchors
func (c *DuckDuckGoClient) Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("duckduckgo rate limiter: %w", err)
	}

	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, NewAPIError("duckduckgo", resp.StatusCode, "")
	}

	results, err := ParseDuckDuckGoResults(resp.Body, maxResults)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"correlation_id": logger.CorrelationID(ctx),
		"query":          query,
		"duration_ms":    time.Since(start).Milliseconds(),
		"results_count":  len(results),
	}).Info("DuckDuckGo search completed")

	return results, nil
}

// ParseDuckDuckGoResults extracts organic results from a DuckDuckGo HTML page.
// Sponsored blocks are skipped.
func ParseDuckDuckGoResults(r io.Reader, maxResults int) ([]models.SearchResult, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	var results []models.SearchResult
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && utils.HasClass(n, "result") {
			if !utils.HasClass(n, "result--ad") {
				if res, ok := parseDuckDuckGoResult(n); ok {
					results = append(results, res)
					if maxResults > 0 && len(results) >= maxResults {
						return false
					}
				}
			}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(doc)

	return results, nil
}

func parseDuckDuckGoResult(block *html.Node) (models.SearchResult, bool) {
	anchor := utils.FindFirst(block, func(n *html.Node) bool { return utils.HasClass(n, "result__a") })
	if anchor == nil {
		return models.SearchResult{}, false
	}
	href := UnwrapDuckDuckGoURL(utils.Attr(anchor, "href"))
	if !strings.HasPrefix(href, "http") {
		return models.SearchResult{}, false
	}

	snippet := ""
	if s := utils.FindFirst(block, func(n *html.Node) bool { return utils.HasClass(n, "result__snippet") }); s != nil {
		snippet = strings.Join(strings.Fields(utils.NodeText(s, " ")), " ")
	}

	return models.SearchResult{
		Title:      utils.NodeText(anchor, " "),
		URL:        href,
		Snippet:    snippet,
		SourceTool: models.ToolDDG,
	}, true
}

// UnwrapDuckDuckGoURL resolves DuckDuckGo redirect links (//duckduckgo.com/l/?uddg=...)
// to their target. Other URLs are returned unchanged.
func UnwrapDuckDuckGoURL(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(u.Hostname(), "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}
