package alerts

import (
	"fmt"
	"time"
)

// Config holds the configuration for the job-alert sweeper.
type Config struct {
	// SearchTimeout is the maximum time one upstream job search may take.
	// Default: 30 seconds
	SearchTimeout time.Duration

	// SendDelay is the fixed pause between consecutive email sends, to
	// stay under provider rate limits.
	// Default: 250 milliseconds
	SendDelay time.Duration

	// BaseURL is the application's public URL, used to build unsubscribe
	// links in alert emails.
	BaseURL string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		SearchTimeout: 30 * time.Second,
		SendDelay:     250 * time.Millisecond,
		BaseURL:       "http://localhost:8080",
	}
}

// Validate checks if the configuration is valid.
// Returns an error if any values are invalid.
func (c Config) Validate() error {
	if c.SearchTimeout < 1*time.Second {
		return fmt.Errorf("search timeout must be at least 1 second, got %v", c.SearchTimeout)
	}
	if c.SendDelay < 0 {
		return fmt.Errorf("send delay must not be negative, got %v", c.SendDelay)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	return nil
}
