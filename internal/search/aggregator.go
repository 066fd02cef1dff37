package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"risk-assessor/internal/clients"
	"risk-assessor/internal/logger"
	"risk-assessor/internal/models"

	"github.com/sirupsen/logrus"
)

// Aggregator runs search providers and merges their candidates
type Aggregator struct {
	registry *Registry
	logger   *logrus.Logger
}

// NewAggregator creates a new aggregator over the registry
func NewAggregator(registry *Registry) *Aggregator {
	return &Aggregator{
		registry: registry,
		logger:   logger.Log,
	}
}

// Search dispatches on the requested method. "combined", "all" and any unrecognized
// method run the combined search; a named method runs only that provider.
func (a *Aggregator) Search(ctx context.Context, method models.SearchMethod, companyName string, maxResults int, searxngURL string) []models.SearchResult {
	switch method {
	case models.SearchDDG, models.SearchGoogle, models.SearchSearXNG, models.SearchPlaywright:
		reg := a.registry.WithSearXNG(searxngURL)
		p, ok := reg.Get(method)
		if !ok || !p.Available() {
			a.logger.WithFields(map[string]interface{}{
				"correlation_id": logger.CorrelationID(ctx),
				"provider":       method,
				"error":          fmt.Errorf("%s: %w", method, ErrProviderUnavailable).Error(),
			}).Warn("Requested search provider is unavailable")
			return []models.SearchResult{}
		}
		results, err := a.runProvider(ctx, p, companyName, maxResults)
		if err != nil {
			a.logger.WithFields(map[string]interface{}{
				"correlation_id": logger.CorrelationID(ctx),
				"provider":       method,
				"company":        companyName,
				"status_code":    clients.StatusCodeOf(err),
				"error":          err.Error(),
			}).Warn("Search provider failed")
			return []models.SearchResult{}
		}
		return results
	default:
		return a.SearchCombined(ctx, companyName, nil, maxResults, searxngURL)
	}
}

// SearchCombined invokes each enabled provider in turn, isolating failures, and
// returns URL-deduplicated results capped at twice maxResults. A nil enabled list
// selects every currently available provider.
func (a *Aggregator) SearchCombined(ctx context.Context, companyName string, enabled []models.SearchMethod, maxResults int, searxngURL string) []models.SearchResult {
	start := time.Now()
	reg := a.registry.WithSearXNG(searxngURL)
	if enabled == nil {
		enabled = reg.Available()
	}

	merged := make([]models.SearchResult, 0)
	seen := make(map[string]struct{})
	var errs []error

	for _, kind := range enabled {
		p, ok := reg.Get(kind)
		if !ok || !p.Available() {
			continue
		}

		results, err := a.runProvider(ctx, p, companyName, maxResults)
		if err != nil {
			a.logger.WithFields(map[string]interface{}{
				"correlation_id": logger.CorrelationID(ctx),
				"provider":       kind,
				"status_code":    clients.StatusCodeOf(err),
				"error":          err.Error(),
			}).Warn("Search provider failed")
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
			continue
		}

		for _, r := range results {
			if r.URL == "" {
				continue
			}
			if _, dup := seen[r.URL]; dup {
				continue
			}
			seen[r.URL] = struct{}{}
			merged = append(merged, r)
		}
	}

	if len(errs) > 0 {
		a.logger.WithFields(map[string]interface{}{
			"correlation_id": logger.CorrelationID(ctx),
			"company":        companyName,
			"error":          errors.Join(errs...).Error(),
		}).Warn("Search errors (non-critical)")
	}

	if limit := maxResults * 2; maxResults > 0 && len(merged) > limit {
		merged = merged[:limit]
	}

	a.logger.WithFields(map[string]interface{}{
		"correlation_id": logger.CorrelationID(ctx),
		"company":        companyName,
		"providers":      enabled,
		"results_count":  len(merged),
		"failed_count":   len(errs),
		"duration_ms":    time.Since(start).Milliseconds(),
	}).Info("Combined search completed")

	return merged
}

// runProvider calls one provider, converting a panic into an error
func (a *Aggregator) runProvider(ctx context.Context, p Provider, query string, maxResults int) (results []models.SearchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = fmt.Errorf("provider panicked: %v", r)
		}
	}()
	return p.Search(ctx, query, maxResults)
}
