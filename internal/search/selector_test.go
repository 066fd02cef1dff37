package search

import (
	"testing"

	"risk-assessor/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestIsBlockedHost(t *testing.T) {
	tests := []struct {
		host     string
		expected bool
	}{
		{"linkedin.com", true},
		{"www.linkedin.com", true},
		{"en.wikipedia.org", true},
		{"x.com", true},
		{"dropbox.com", false},
		{"acme.com", false},
		{"reuters.com.", true},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsBlockedHost(tt.host))
		})
	}
}

func TestIsProbablyOfficialSite(t *testing.T) {
	assert.True(t, IsProbablyOfficialSite("https://www.acme.com/about", "Acme Corp"))
	assert.True(t, IsProbablyOfficialSite("https://acmewidgets.co.uk", "ACME"))
	assert.False(t, IsProbablyOfficialSite("https://www.linkedin.com/company/acme", "Acme Corp"))
	assert.False(t, IsProbablyOfficialSite("https://news.example.com/acme", "Acme Corp"))
	assert.False(t, IsProbablyOfficialSite("://bad url", "Acme"))
	assert.False(t, IsProbablyOfficialSite("https://acme.com", "   "))
}

func TestChooseOfficialURL_AcmeScenario(t *testing.T) {
	results := []models.SearchResult{
		{URL: "https://acme.com", Title: "Acme"},
		{URL: "https://news.example.com/acme", Title: "News"},
	}

	url, candidates := ChooseOfficialURL(results, "Acme Corp")

	assert.Equal(t, "https://acme.com", url)
	assert.Equal(t, []models.SearchResult{results[0]}, candidates)
}

func TestChooseOfficialURL_FirstMatchWins(t *testing.T) {
	results := []models.SearchResult{
		{URL: "https://www.linkedin.com/company/acme"},
		{URL: "https://acme.io"},
		{URL: "https://acme.com"},
	}

	url, candidates := ChooseOfficialURL(results, "acme")

	assert.Equal(t, "https://acme.io", url)
	assert.Len(t, candidates, 2)
}

func TestChooseOfficialURL_FallbackToFirst(t *testing.T) {
	results := []models.SearchResult{
		{URL: "https://en.wikipedia.org/wiki/Globex"},
		{URL: "https://news.example.com/globex"},
	}

	url, candidates := ChooseOfficialURL(results, "Initech")

	assert.Equal(t, "https://en.wikipedia.org/wiki/Globex", url, "blocklisted results are still a valid fallback")
	assert.Equal(t, results, candidates)
}

func TestChooseOfficialURL_Empty(t *testing.T) {
	url, candidates := ChooseOfficialURL(nil, "Acme")

	assert.Empty(t, url)
	assert.Empty(t, candidates)
}

func TestChooseOfficialURL_ResultAlwaysFromInput(t *testing.T) {
	inputs := [][]models.SearchResult{
		{{URL: "https://a.example"}},
		{{URL: "https://facebook.com/acme"}, {URL: "https://acme.net"}},
		{{URL: "https://twitter.com/acme"}},
	}

	for _, in := range inputs {
		url, _ := ChooseOfficialURL(in, "Acme Corp")
		var found bool
		for _, r := range in {
			found = found || r.URL == url
		}
		assert.True(t, found, "selected %s not in input", url)
	}
}
