package search

import (
	"net/url"
	"strings"

	"risk-assessor/internal/models"
	"risk-assessor/internal/utils"

	"golang.org/x/net/publicsuffix"
)

// BlockedDomains are social, media and aggregator sites that are never a company's own site
var BlockedDomains = []string{
	"linkedin.com",
	"wikipedia.org",
	"bloomberg.com",
	"reuters.com",
	"moneycontrol.com",
	"economictimes.com",
	"facebook.com",
	"twitter.com",
	"x.com",
}

// IsBlockedHost reports whether host belongs to a blocklisted domain, comparing on the
// registrable domain so that e.g. "dropbox.com" does not match "x.com"
func IsBlockedHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		registrable = host
	}
	for _, blocked := range BlockedDomains {
		if registrable == blocked || host == blocked || strings.HasSuffix(host, "."+blocked) {
			return true
		}
	}
	return false
}

// IsProbablyOfficialSite reports whether rawURL is off the blocklist and its host contains
// the first token of the company name
func IsProbablyOfficialSite(rawURL, companyName string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || IsBlockedHost(host) {
		return false
	}

	key := utils.FirstToken(companyName)
	if key == "" {
		return false
	}
	return strings.Contains(strings.TrimPrefix(host, "www."), key)
}

// ChooseOfficialURL picks the first official-looking result. When none match it falls
// back to the first result overall and returns the full list as the candidate pool.
func ChooseOfficialURL(results []models.SearchResult, companyName string) (string, []models.SearchResult) {
	var official []models.SearchResult
	for _, r := range results {
		if IsProbablyOfficialSite(r.URL, companyName) {
			official = append(official, r)
		}
	}

	if len(official) > 0 {
		return official[0].URL, official
	}
	if len(results) > 0 {
		return results[0].URL, results
	}
	return "", nil
}
