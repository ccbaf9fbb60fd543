// Package carrier implements the rate and label provider against the
// EasyPost API.
package carrier

import (
	"errors"
	"strings"
	"time"
)

// DefaultBaseURL is the production EasyPost endpoint.
const DefaultBaseURL = "https://api.easypost.com/v2"

// EasyPostConfig holds the credentials and transport settings for the
// EasyPost adapter.
type EasyPostConfig struct {
	// APIKey authenticates every call; test keys start with "EZTK".
	APIKey string
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
	// Timeout bounds each round trip. Defaults to 30s.
	Timeout time.Duration
}

// Validate checks that the configuration can make API calls.
func (c *EasyPostConfig) Validate() error {
	if c == nil {
		return errors.New("easypost: configuration is required")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("easypost: api key is required")
	}
	return nil
}

func (c *EasyPostConfig) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

func (c *EasyPostConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Timeout
}
