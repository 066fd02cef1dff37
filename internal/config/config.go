package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	env "github.com/netflix/go-env"
	"golang.org/x/net/http/httpproxy"
)

// Config holds all configuration for the application
type Config struct {
	// LLM completion server
	LLMAPIBase      string        `env:"LLM_API_BASE,default=http://localhost:8002/v1"`
	LLMModel        string        `env:"LLM_MODEL,default=Qwen/Qwen2.5-72B-Instruct"`
	LLMMaxTokens    int           `env:"LLM_MAX_TOKENS,default=2048"`
	LLMTimeout      time.Duration `env:"LLM_TIMEOUT,default=180s"`
	LLMProbeTimeout time.Duration `env:"LLM_PROBE_TIMEOUT,default=5s"`

	// Search providers
	SearchTimeout        time.Duration `env:"SEARCH_TIMEOUT,default=15s"`
	SearchMaxResults     int           `env:"SEARCH_MAX_RESULTS,default=10"`
	SearchRatePerSecond  float64       `env:"SEARCH_RATE_PER_SECOND,default=0.5"`
	SerperAPIKey         string        `env:"SERPER_API_KEY"`
	SerperURL            string        `env:"SERPER_URL,default=https://google.serper.dev/search"`
	SearXNGURL           string        `env:"SEARXNG_URL"`
	DDGHTMLURL           string        `env:"DDG_HTML_URL,default=https://html.duckduckgo.com/html/"`
	HeadlessEnabled      bool          `env:"HEADLESS_BROWSER_ENABLED,default=true"`
	HeadlessBrowserBin   string        `env:"HEADLESS_BROWSER_BIN"`
	HeadlessWaitDuration time.Duration `env:"HEADLESS_BROWSER_WAIT,default=3s"`

	// Page fetching
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT,default=15s"`
	UserAgent    string        `env:"FETCH_USER_AGENT,default=Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"`

	// Outbound proxy, read once at startup and threaded into every HTTP client
	HTTPProxy  string `env:"HTTP_PROXY"`
	HTTPSProxy string `env:"HTTPS_PROXY"`
	NoProxy    string `env:"NO_PROXY"`

	// Server configuration
	ServerPort string `env:"SERVER_PORT,default=8000"`
	LogLevel   string `env:"LOG_LEVEL,default=INFO"`

	// CORS configuration
	CORSOriginsStr string   `env:"CORS_ORIGINS,default=http://localhost:3000"`
	CORSOrigins    []string

	// Kafka configuration
	KafkaBootstrapServers string `env:"KAFKA_BOOTSTRAP_SERVERS,default=localhost:9092"`
	KafkaTopicRequests    string `env:"KAFKA_TOPIC_REQUESTS,default=risk-assessment-requests"`
	KafkaTopicResults     string `env:"KAFKA_TOPIC_RESULTS,default=risk-assessment-results"`
	KafkaGroupID          string `env:"KAFKA_GROUP_ID,default=risk-assessment-workers"`

	// Parallelism across companies in a batch
	BatchConcurrency int `env:"BATCH_CONCURRENCY,default=4"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	cfg.CORSOrigins = splitList(cfg.CORSOriginsStr)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks URLs and clamps numeric settings to safe ranges
func (c *Config) Validate() error {
	if c.BatchConcurrency < 1 {
		c.BatchConcurrency = 1
	}
	if c.BatchConcurrency > 16 {
		c.BatchConcurrency = 16
	}
	if c.SearchMaxResults < 1 {
		c.SearchMaxResults = 1
	}
	if c.LLMMaxTokens < 1 {
		c.LLMMaxTokens = 2048
	}

	if err := validateURL("LLM_API_BASE", c.LLMAPIBase, true); err != nil {
		return err
	}
	if err := validateURL("SEARXNG_URL", c.SearXNGURL, false); err != nil {
		return err
	}
	return nil
}

// ProxyConfig returns the outbound proxy settings for HTTP transports
func (c *Config) ProxyConfig() *httpproxy.Config {
	return &httpproxy.Config{
		HTTPProxy:  c.HTTPProxy,
		HTTPSProxy: c.HTTPSProxy,
		NoProxy:    c.NoProxy,
	}
}

// KafkaBrokers returns the bootstrap servers as a list
func (c *Config) KafkaBrokers() []string {
	return splitList(c.KafkaBootstrapServers)
}

func validateURL(name, raw string, required bool) error {
	if raw == "" {
		if required {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", name, raw)
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
