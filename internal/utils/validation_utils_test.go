package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateHTTPURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"valid https", "https://searx.example.org", ""},
		{"valid with port", "http://localhost:8080", ""},
		{"empty", "", "searxng_url cannot be empty"},
		{"bad scheme", "ftp://files.example.org", "scheme must be http or https"},
		{"no host", "http://", "missing host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHTTPURL(tt.input, "searxng_url")
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnsureRequestID(t *testing.T) {
	assert.Equal(t, "123e4567-e89b-12d3-a456-426614174000", EnsureRequestID("123e4567-e89b-12d3-a456-426614174000"))
	assert.Equal(t, "batch-7", EnsureRequestID("  batch-7 "))

	for _, blank := range []string{"", "   "} {
		generated := EnsureRequestID(blank)
		assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, generated)
	}
}
