package clients

import (
	"net/http"
	"net/url"
	"time"

	"risk-assessor/internal/config"
)

// NewHTTPClient builds a client that honors the configured proxy settings.
// TLS verification is always on.
func NewHTTPClient(cfg *config.Config, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg != nil {
		proxyFunc := cfg.ProxyConfig().ProxyFunc()
		transport.Proxy = func(req *http.Request) (*url.URL, error) {
			return proxyFunc(req.URL)
		}
	} else {
		transport.Proxy = nil
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
