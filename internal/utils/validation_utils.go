package utils

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// ValidateHTTPURL checks that raw is an absolute http(s) URL
func ValidateHTTPURL(raw, fieldName string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s format: %w", fieldName, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s: scheme must be http or https", fieldName)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s: missing host", fieldName)
	}
	return nil
}

// EnsureRequestID returns the trimmed id, or a fresh UUID when id is blank
func EnsureRequestID(id string) string {
	if trimmed := strings.TrimSpace(id); trimmed != "" {
		return trimmed
	}
	return uuid.New().String()
}
