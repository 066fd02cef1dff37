package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"risk-assessor/internal/clients"
	"risk-assessor/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	kind      models.SearchMethod
	available bool
	results   []models.SearchResult
	err       error
	panicMsg  string
	calls     int
	lastMax   int
}

func (f *fakeProvider) Kind() models.SearchMethod { return f.kind }
func (f *fakeProvider) Available() bool           { return f.available }

func (f *fakeProvider) Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	f.calls++
	f.lastMax = maxResults
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.results, f.err
}

// fakeMetaSearch is a meta-search provider bound to one instance
type fakeMetaSearch struct {
	fakeProvider
	baseURL string
}

func (f *fakeMetaSearch) BaseURL() string { return f.baseURL }

func result(url string, tool models.SourceTool) models.SearchResult {
	return models.SearchResult{Title: url, URL: url, SourceTool: tool}
}

func newTestAggregator(providers ...Provider) (*Aggregator, *test.Hook) {
	reg := NewRegistry(func(baseURL string) Provider {
		return &fakeProvider{
			kind:      models.SearchSearXNG,
			available: true,
			results:   []models.SearchResult{result(baseURL+"/hit", models.ToolSearXNG)},
		}
	})
	for _, p := range providers {
		reg.Register(p)
	}
	log, hook := test.NewNullLogger()
	agg := NewAggregator(reg)
	agg.logger = log
	return agg, hook
}

func TestRegistry_AvailableOrder(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(&fakeProvider{kind: models.SearchSearXNG, available: true})
	reg.Register(&fakeProvider{kind: models.SearchGoogle, available: false})
	reg.Register(&fakeProvider{kind: models.SearchDDG, available: true})
	reg.Register(&fakeProvider{kind: models.SearchPlaywright, available: true})

	assert.Equal(t, []models.SearchMethod{models.SearchDDG, models.SearchPlaywright, models.SearchSearXNG}, reg.Available())
}

func TestRegistry_WithSearXNG(t *testing.T) {
	agg, _ := newTestAggregator(&fakeProvider{kind: models.SearchDDG, available: true})

	scoped := agg.registry.WithSearXNG("http://searx.local")

	_, inOriginal := agg.registry.Get(models.SearchSearXNG)
	assert.False(t, inOriginal)
	p, ok := scoped.Get(models.SearchSearXNG)
	require.True(t, ok)
	assert.True(t, p.Available())
	assert.Same(t, agg.registry, agg.registry.WithSearXNG(""))
}

func TestRegistry_WithSearXNG_SameInstanceReused(t *testing.T) {
	configured := &fakeMetaSearch{fakeProvider: fakeProvider{kind: models.SearchSearXNG, available: true}, baseURL: "http://searx.local"}
	agg, _ := newTestAggregator(configured)

	assert.Same(t, agg.registry, agg.registry.WithSearXNG("http://searx.local"))

	scoped := agg.registry.WithSearXNG("http://other-searx.local")
	assert.NotSame(t, agg.registry, scoped)
	p, ok := scoped.Get(models.SearchSearXNG)
	require.True(t, ok)
	assert.NotSame(t, configured, p)
}

func TestSearchCombined_DedupAndOrder(t *testing.T) {
	ddg := &fakeProvider{kind: models.SearchDDG, available: true, results: []models.SearchResult{
		result("https://acme.com", models.ToolDDG),
		result("https://news.example.com/acme", models.ToolDDG),
	}}
	google := &fakeProvider{kind: models.SearchGoogle, available: true, results: []models.SearchResult{
		result("https://acme.com", models.ToolGoogle),
		result("", models.ToolGoogle),
		result("https://acme.com/about", models.ToolGoogle),
	}}
	agg, _ := newTestAggregator(ddg, google)

	results := agg.SearchCombined(context.Background(), "Acme Corp", nil, 10, "")

	require.Len(t, results, 3)
	assert.Equal(t, models.ToolDDG, results[0].SourceTool, "first occurrence wins")
	assert.Equal(t, "https://news.example.com/acme", results[1].URL)
	assert.Equal(t, "https://acme.com/about", results[2].URL)
	assert.Equal(t, 10, ddg.lastMax)
}

func TestSearchCombined_NoDuplicateURLs(t *testing.T) {
	var many []models.SearchResult
	for i := 0; i < 20; i++ {
		many = append(many, result(fmt.Sprintf("https://site%d.example", i%7), models.ToolDDG))
	}
	agg, _ := newTestAggregator(&fakeProvider{kind: models.SearchDDG, available: true, results: many})

	results := agg.SearchCombined(context.Background(), "Acme", nil, 10, "")

	seen := map[string]bool{}
	for _, r := range results {
		assert.False(t, seen[r.URL], "duplicate %s", r.URL)
		seen[r.URL] = true
	}
	assert.Len(t, results, 7)
}

func TestSearchCombined_CapsAtTwiceMax(t *testing.T) {
	var many []models.SearchResult
	for i := 0; i < 10; i++ {
		many = append(many, result(fmt.Sprintf("https://site%d.example", i), models.ToolDDG))
	}
	agg, _ := newTestAggregator(&fakeProvider{kind: models.SearchDDG, available: true, results: many})

	results := agg.SearchCombined(context.Background(), "Acme", nil, 3, "")

	assert.Len(t, results, 6)
}

func TestSearchCombined_FailureIsolation(t *testing.T) {
	failing := &fakeProvider{kind: models.SearchDDG, available: true, err: clients.NewAPIError("ddg", 429, "slow down")}
	panicking := &fakeProvider{kind: models.SearchGoogle, available: true, panicMsg: "nil map"}
	working := &fakeProvider{kind: models.SearchPlaywright, available: true, results: []models.SearchResult{
		result("https://acme.com", models.ToolHeadlessBrowser),
	}}
	agg, hook := newTestAggregator(failing, panicking, working)

	results := agg.SearchCombined(context.Background(), "Acme", nil, 5, "")

	require.Len(t, results, 1)
	assert.Equal(t, 1, working.calls)

	var warned bool
	statusCodes := map[models.SearchMethod]interface{}{}
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "Search provider failed" {
			statusCodes[e.Data["provider"].(models.SearchMethod)] = e.Data["status_code"]
		}
		if e.Level == logrus.WarnLevel && e.Message == "Search errors (non-critical)" {
			warned = true
			assert.Contains(t, e.Data["error"], "ddg API error (status 429): slow down")
			assert.Contains(t, e.Data["error"], "provider panicked: nil map")
		}
	}
	assert.True(t, warned)
	assert.Equal(t, map[models.SearchMethod]interface{}{models.SearchDDG: 429, models.SearchGoogle: 0}, statusCodes)
}

func TestSearchCombined_SkipsUnavailable(t *testing.T) {
	offline := &fakeProvider{kind: models.SearchGoogle, available: false}
	agg, _ := newTestAggregator(offline)

	results := agg.SearchCombined(context.Background(), "Acme", []models.SearchMethod{models.SearchGoogle}, 5, "")

	assert.Empty(t, results)
	assert.NotNil(t, results)
	assert.Equal(t, 0, offline.calls)
}

func TestSearchCombined_MetaSearchOnlyWithURL(t *testing.T) {
	agg, _ := newTestAggregator()

	assert.Empty(t, agg.SearchCombined(context.Background(), "Acme", nil, 5, ""))

	results := agg.SearchCombined(context.Background(), "Acme", nil, 5, "http://searx.local")
	require.Len(t, results, 1)
	assert.Equal(t, "http://searx.local/hit", results[0].URL)
}

func TestSearch_Dispatch(t *testing.T) {
	ddg := &fakeProvider{kind: models.SearchDDG, available: true, results: []models.SearchResult{result("https://a.example", models.ToolDDG)}}
	google := &fakeProvider{kind: models.SearchGoogle, available: true, results: []models.SearchResult{result("https://b.example", models.ToolGoogle)}}
	agg, _ := newTestAggregator(ddg, google)
	ctx := context.Background()

	assert.Len(t, agg.Search(ctx, models.SearchGoogle, "Acme", 5, ""), 1)
	assert.Equal(t, 0, ddg.calls)

	assert.Len(t, agg.Search(ctx, models.SearchCombined, "Acme", 5, ""), 2)
	assert.Len(t, agg.Search(ctx, models.SearchMethod("bogus"), "Acme", 5, ""), 2, "unknown methods degrade to combined")
	assert.Empty(t, agg.Search(ctx, models.SearchPlaywright, "Acme", 5, ""))
	assert.Empty(t, agg.Search(ctx, models.SearchSearXNG, "Acme", 5, ""))
	assert.Len(t, agg.Search(ctx, models.SearchSearXNG, "Acme", 5, "http://searx.local"), 1)
}

func TestSearch_SingleProviderError(t *testing.T) {
	failing := &fakeProvider{kind: models.SearchDDG, available: true, err: errors.New("timeout")}
	agg, hook := newTestAggregator(failing)

	results := agg.Search(context.Background(), models.SearchDDG, "Acme", 5, "")

	assert.Empty(t, results)
	assert.Equal(t, "Search provider failed", hook.LastEntry().Message)
	assert.Equal(t, 0, hook.LastEntry().Data["status_code"])
}
