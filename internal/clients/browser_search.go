package clients

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"risk-assessor/internal/config"
	"risk-assessor/internal/logger"
	"risk-assessor/internal/models"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

// resultLinkSelector matches organic result anchors on the DuckDuckGo results page
const resultLinkSelector = "a.result__a"

// BrowserSearchClient drives a headless Chromium to read a search engine results page
type BrowserSearchClient struct {
	enabled   bool
	bin       string
	searchURL string
	wait      time.Duration
	timeout   time.Duration
	proxy     string
	noProxy   string
	lookPath  func() (string, bool)
	logger    *logrus.Logger
}

// NewBrowserSearchClient creates a new headless browser search client
func NewBrowserSearchClient(cfg *config.Config) *BrowserSearchClient {
	return &BrowserSearchClient{
		enabled:   cfg.HeadlessEnabled,
		bin:       cfg.HeadlessBrowserBin,
		searchURL: cfg.DDGHTMLURL,
		wait:      cfg.HeadlessWaitDuration,
		timeout:   cfg.SearchTimeout,
		proxy:     browserProxy(cfg),
		noProxy:   cfg.NoProxy,
		lookPath:  launcher.LookPath,
		logger:    logger.Log,
	}
}

// Kind returns the search method this client serves
func (c *BrowserSearchClient) Kind() models.SearchMethod {
	return models.SearchPlaywright
}

// Available reports whether the provider is enabled and a browser binary can be found
func (c *BrowserSearchClient) Available() bool {
	if !c.enabled || c.searchURL == "" {
		return false
	}
	if c.bin != "" {
		return true
	}
	_, found := c.lookPath()
	return found
}

// Search opens the results page for query and collects result anchors
func (c *BrowserSearchClient) Search(ctx context.Context, query string, maxResults int) (results []models.SearchResult, err error) {
	if !c.Available() {
		return nil, fmt.Errorf("headless browser: %w", ErrNotConfigured)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	start := time.Now()

	l := c.newLauncher(ctx)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	defer func() { _ = browser.Close() }()

	page, err := browser.Page(proto.TargetCreateTarget{URL: c.searchURL + "?q=" + url.QueryEscape(query)})
	if err != nil {
		return nil, fmt.Errorf("open results page: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for results page: %w", err)
	}
	if c.wait > 0 {
		select {
		case <-time.After(c.wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	elements, err := page.Elements(resultLinkSelector)
	if err != nil {
		return nil, fmt.Errorf("query result links: %w", err)
	}

	for _, el := range elements {
		if maxResults > 0 && len(results) >= maxResults {
			break
		}
		href, err := el.Attribute("href")
		if err != nil || href == nil || *href == "" {
			continue
		}
		target := UnwrapDuckDuckGoURL(*href)
		if !strings.HasPrefix(target, "http") {
			continue
		}
		title, _ := el.Text()
		results = append(results, models.SearchResult{
			Title:      strings.TrimSpace(title),
			URL:        target,
			SourceTool: models.ToolHeadlessBrowser,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"correlation_id": logger.CorrelationID(ctx),
		"query":          query,
		"duration_ms":    time.Since(start).Milliseconds(),
		"results_count":  len(results),
	}).Info("Headless browser search completed")

	return results, nil
}

// newLauncher configures the browser process with the binary and outbound proxy
func (c *BrowserSearchClient) newLauncher(ctx context.Context) *launcher.Launcher {
	l := launcher.New().Context(ctx).Headless(true)
	if c.bin != "" {
		l = l.Bin(c.bin)
	}
	if c.proxy != "" {
		l = l.Proxy(c.proxy)
		if bypass := proxyBypassList(c.noProxy); bypass != "" {
			l = l.Set(flags.Flag("proxy-bypass-list"), bypass)
		}
	}
	return l
}

// browserProxy picks the proxy Chromium should use. Results pages are fetched over
// https, so HTTPS_PROXY wins over HTTP_PROXY.
func browserProxy(cfg *config.Config) string {
	if cfg.HTTPSProxy != "" {
		return cfg.HTTPSProxy
	}
	return cfg.HTTPProxy
}

// proxyBypassList converts a comma-separated NO_PROXY into Chromium's ';' list
func proxyBypassList(noProxy string) string {
	var hosts []string
	for _, h := range strings.Split(noProxy, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return strings.Join(hosts, ";")
}
