package evidence

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"risk-assessor/internal/config"
	"risk-assessor/internal/logger"
	"risk-assessor/internal/models"
	"risk-assessor/internal/scraper"
	"risk-assessor/internal/search"
	"risk-assessor/internal/utils"

	"github.com/sirupsen/logrus"
)

// Searcher finds candidate URLs for a company
type Searcher interface {
	Search(ctx context.Context, method models.SearchMethod, companyName string, maxResults int, searxngURL string) []models.SearchResult
}

// PageFetcher retrieves pages and their risk text
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (*scraper.Page, error)
	FetchRiskText(ctx context.Context, url string) (string, error)
}

const (
	titleMainWebsite      = "Main Website"
	titleRiskPage         = "Risk/Compliance Page"
	titleAdditionalSource = "Additional Source"
	toolUnknown           = "Unknown"
	toolScraped           = "Scraped"
	sectionSeparator      = "\n\n"
)

// Collector gathers size-capped web evidence for one company
type Collector struct {
	searcher   Searcher
	fetcher    PageFetcher
	maxResults int
	logger     *logrus.Logger
}

// NewCollector creates a new evidence collector
func NewCollector(searcher Searcher, fetcher PageFetcher, maxResults int) *Collector {
	return &Collector{
		searcher:   searcher,
		fetcher:    fetcher,
		maxResults: maxResults,
		logger:     logger.Log,
	}
}

// NewCollectorFromConfig wires the configured search providers and page fetcher
func NewCollectorFromConfig(cfg *config.Config) *Collector {
	aggregator := search.NewAggregator(search.NewRegistryFromConfig(cfg))
	return NewCollector(aggregator, scraper.NewFetcher(cfg), cfg.SearchMaxResults)
}

// GatherEvidence searches for the company, scrapes its official site, up to three
// risk sub-pages and up to five secondary sources, and returns the combined text.
// When the combined text is under the evidence threshold the bundle's WebText is
// empty but any URL details gathered are kept.
func (c *Collector) GatherEvidence(ctx context.Context, companyName string, method models.SearchMethod, searxngURL string) models.EvidenceBundle {
	start := time.Now()
	log := c.logger.WithFields(map[string]interface{}{
		"correlation_id": logger.CorrelationID(ctx),
		"company":        companyName,
	})

	results := c.searcher.Search(ctx, method, companyName, c.maxResults, searxngURL)
	if len(results) == 0 {
		log.Warn("No search results, internet evidence unavailable")
		return models.EvidenceBundle{URLDetails: []models.URLDetail{}}
	}

	mainURL, candidates := search.ChooseOfficialURL(results, companyName)
	b := &bundleBuilder{details: []models.URLDetail{}}

	if mainURL != "" {
		c.collectMainSite(ctx, log, b, mainURL, candidates)
	}
	c.collectAdditional(ctx, log, b, mainURL, candidates)

	bundle := b.build()
	log.WithFields(map[string]interface{}{
		"main_url":       mainURL,
		"candidates":     len(candidates),
		"sections":       len(b.sections),
		"web_text_chars": utf8.RuneCountInString(bundle.WebText),
		"duration_ms":    time.Since(start).Milliseconds(),
	}).Info("Evidence gathered")

	return bundle
}

func (c *Collector) collectMainSite(ctx context.Context, log *logrus.Entry, b *bundleBuilder, mainURL string, candidates []models.SearchResult) {
	mainResult := findResult(candidates, mainURL)
	mainTool := string(mainResult.SourceTool)

	page, err := c.fetcher.FetchPage(ctx, mainURL)
	if err != nil {
		log.WithFields(map[string]interface{}{"url": mainURL, "error": err.Error()}).Warn("Main website fetch failed")
		return
	}

	text, err := page.RiskText()
	if err != nil {
		log.WithFields(map[string]interface{}{"url": mainURL, "error": err.Error()}).Warn("Main website extraction failed")
	} else if strings.TrimSpace(text) != "" {
		b.add(fmt.Sprintf("=== MAIN WEBSITE: %s ===\n%s", mainURL, utils.TruncateRunes(text, models.MaxMainSectionChars)), models.URLDetail{
			URL:            mainURL,
			Type:           models.URLDetailPrimary,
			Title:          orDefault(mainResult.Title, titleMainWebsite),
			Tool:           orDefault(mainTool, toolUnknown),
			ContentSnippet: utils.TruncateRunes(text, models.MaxContentSnippetChars),
		})
	}

	subpages, err := page.RiskSubpages()
	if err != nil {
		return
	}
	if len(subpages) > models.MaxRiskPages {
		subpages = subpages[:models.MaxRiskPages]
	}
	for _, riskURL := range subpages {
		riskText, err := c.fetcher.FetchRiskText(ctx, riskURL)
		if err != nil {
			log.WithFields(map[string]interface{}{"url": riskURL, "error": err.Error()}).Debug("Risk page skipped")
			continue
		}
		if utf8.RuneCountInString(riskText) <= models.MinSectionChars {
			continue
		}
		b.add(fmt.Sprintf("\n=== RISK PAGE: %s ===\n%s", riskURL, utils.TruncateRunes(riskText, models.MaxRiskPageSectionChars)), models.URLDetail{
			URL:            riskURL,
			Type:           models.URLDetailRiskPage,
			Title:          titleRiskPage,
			Tool:           orDefault(mainTool, toolScraped),
			ContentSnippet: utils.TruncateRunes(riskText, models.MaxContentSnippetChars),
		})
	}
}

// collectAdditional scrapes candidates[1:10], skipping the main URL. On a fallback pick
// the main URL may sit at index 0 of a different pool, so it can reappear here; that
// case is skipped only by exact URL match.
func (c *Collector) collectAdditional(ctx context.Context, log *logrus.Entry, b *bundleBuilder, mainURL string, candidates []models.SearchResult) {
	if len(candidates) < 2 {
		return
	}
	end := models.AdditionalCandidateEnd
	if end > len(candidates) {
		end = len(candidates)
	}

	scraped := 0
	for _, r := range candidates[1:end] {
		if scraped >= models.MaxAdditionalSources {
			break
		}
		if r.URL == "" || r.URL == mainURL {
			continue
		}

		text, err := c.fetcher.FetchRiskText(ctx, r.URL)
		if err != nil {
			log.WithFields(map[string]interface{}{"url": r.URL, "error": err.Error()}).Warn("Additional source skipped")
			continue
		}
		if utf8.RuneCountInString(text) <= models.MinSectionChars {
			continue
		}

		b.add(fmt.Sprintf("\n=== ADDITIONAL SOURCE: %s ===\n%s", r.URL, utils.TruncateRunes(text, models.MaxAdditionalSectionChars)), models.URLDetail{
			URL:            r.URL,
			Type:           models.URLDetailAdditional,
			Title:          orDefault(r.Title, titleAdditionalSource),
			Tool:           orDefault(string(r.SourceTool), toolUnknown),
			ContentSnippet: utils.TruncateRunes(text, models.MaxContentSnippetChars),
		})
		scraped++
	}
}

type bundleBuilder struct {
	sections []string
	details  []models.URLDetail
}

func (b *bundleBuilder) add(section string, detail models.URLDetail) {
	b.sections = append(b.sections, section)
	b.details = append(b.details, detail)
}

func (b *bundleBuilder) build() models.EvidenceBundle {
	webText := strings.Join(b.sections, sectionSeparator)
	if utf8.RuneCountInString(strings.TrimSpace(webText)) < models.MinEvidenceChars {
		return models.EvidenceBundle{URLDetails: b.details}
	}
	return models.EvidenceBundle{
		WebText:    utils.TruncateRunes(webText, models.MaxWebTextChars),
		URLDetails: b.details,
	}
}

func findResult(results []models.SearchResult, url string) models.SearchResult {
	for _, r := range results {
		if r.URL == url {
			return r
		}
	}
	return models.SearchResult{}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
