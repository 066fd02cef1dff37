package search

import (
	"context"
	"errors"

	"risk-assessor/internal/clients"
	"risk-assessor/internal/config"
	"risk-assessor/internal/models"
)

// ErrProviderUnavailable marks a provider whose backing capability is missing or not configured
var ErrProviderUnavailable = errors.New("search provider unavailable")

// Provider translates a company name into candidate search results
type Provider interface {
	Kind() models.SearchMethod
	Available() bool
	Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error)
}

// ProviderOrder is the order combined search invokes providers in
var ProviderOrder = []models.SearchMethod{
	models.SearchDDG,
	models.SearchGoogle,
	models.SearchPlaywright,
	models.SearchSearXNG,
}

// Registry maps provider kinds to implementations, populated once at startup
type Registry struct {
	providers      map[models.SearchMethod]Provider
	searxngFactory func(baseURL string) Provider
}

// NewRegistry creates an empty registry. searxngFactory builds a meta-search provider
// for a per-request base URL and may be nil.
func NewRegistry(searxngFactory func(baseURL string) Provider) *Registry {
	return &Registry{
		providers:      make(map[models.SearchMethod]Provider),
		searxngFactory: searxngFactory,
	}
}

// NewRegistryFromConfig registers every provider kind the application supports
func NewRegistryFromConfig(cfg *config.Config) *Registry {
	r := NewRegistry(func(baseURL string) Provider {
		return clients.NewSearXNGClient(cfg, baseURL)
	})
	r.Register(clients.NewDuckDuckGoClient(cfg))
	r.Register(clients.NewSerperClient(cfg))
	r.Register(clients.NewBrowserSearchClient(cfg))
	r.Register(clients.NewSearXNGClient(cfg, cfg.SearXNGURL))
	return r
}

// Register adds or replaces the provider for its kind
func (r *Registry) Register(p Provider) {
	r.providers[p.Kind()] = p
}

// Get returns the provider registered for kind
func (r *Registry) Get(kind models.SearchMethod) (Provider, bool) {
	p, ok := r.providers[kind]
	return p, ok
}

// Available lists, in ProviderOrder, the kinds whose provider currently reports available
func (r *Registry) Available() []models.SearchMethod {
	var kinds []models.SearchMethod
	for _, kind := range ProviderOrder {
		if p, ok := r.providers[kind]; ok && p.Available() {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// baseURLProvider is a provider bound to one instance URL
type baseURLProvider interface {
	BaseURL() string
}

// WithSearXNG returns a copy of the registry whose meta-search provider targets baseURL.
// An empty baseURL, a registry without a factory, or a provider already bound to
// baseURL returns r unchanged.
func (r *Registry) WithSearXNG(baseURL string) *Registry {
	if baseURL == "" || r.searxngFactory == nil {
		return r
	}
	if current, ok := r.providers[models.SearchSearXNG].(baseURLProvider); ok && current.BaseURL() == baseURL {
		return r
	}
	clone := &Registry{
		providers:      make(map[models.SearchMethod]Provider, len(r.providers)),
		searxngFactory: r.searxngFactory,
	}
	for k, p := range r.providers {
		clone.providers[k] = p
	}
	clone.Register(r.searxngFactory(baseURL))
	return clone
}
