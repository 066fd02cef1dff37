package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"risk-assessor/internal/clients"
	"risk-assessor/internal/config"
	"risk-assessor/internal/logger"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// maxPageBytes bounds how much of a response body is read
const maxPageBytes = 5 << 20

// FetchError is the "no usable content" outcome of fetching a page
type FetchError struct {
	URL   string
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("Error fetching %s: %v", e.URL, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Page is the raw markup of one fetched URL
type Page struct {
	URL    string
	Markup []byte
}

// RiskText extracts risk-relevant text from the page
func (p *Page) RiskText() (string, error) {
	doc, err := html.Parse(bytes.NewReader(p.Markup))
	if err != nil {
		return "", &FetchError{URL: p.URL, Cause: err}
	}
	return ExtractRiskText(doc), nil
}

// RiskSubpages lists in-site links that look like risk or compliance pages
func (p *Page) RiskSubpages() ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(p.Markup))
	if err != nil {
		return nil, &FetchError{URL: p.URL, Cause: err}
	}
	return FindRiskSubpages(p.URL, doc), nil
}

// Fetcher retrieves pages with a browser-like user agent
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	logger     *logrus.Logger
}

// NewFetcher creates a new page fetcher
func NewFetcher(cfg *config.Config) *Fetcher {
	return &Fetcher{
		httpClient: clients.NewHTTPClient(cfg, cfg.FetchTimeout),
		userAgent:  cfg.UserAgent,
		logger:     logger.Log,
	}
}

// FetchPage downloads url. Any transport failure or non-2xx status is a *FetchError.
func (f *Fetcher) FetchPage(ctx context.Context, url string) (*Page, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Cause: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{URL: url, Cause: clients.NewAPIError("page", resp.StatusCode, http.StatusText(resp.StatusCode))}
	}

	markup, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, &FetchError{URL: url, Cause: err}
	}

	f.logger.WithFields(map[string]interface{}{
		"correlation_id": logger.CorrelationID(ctx),
		"url":            url,
		"status":         resp.StatusCode,
		"bytes":          len(markup),
		"duration_ms":    time.Since(start).Milliseconds(),
	}).Debug("Page fetched")

	return &Page{URL: url, Markup: markup}, nil
}

// FetchRiskText fetches url and extracts its risk-relevant text
func (f *Fetcher) FetchRiskText(ctx context.Context, url string) (string, error) {
	page, err := f.FetchPage(ctx, url)
	if err != nil {
		return "", err
	}
	return page.RiskText()
}
