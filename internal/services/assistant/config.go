// File: internal/services/assistant/config.go
package assistant

import (
	"fmt"
	"time"
)

type Config struct {
	// Provider credentials and targets
	APIKey        string
	BaseURL       string
	AssistantID   string
	VectorStoreID string

	// Run polling configuration. A run is the provider-side unit of work that
	// turns a queued user message into an assistant reply.
	PollInterval time.Duration
	Timeout      time.Duration
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.AssistantID == "" {
		return fmt.Errorf("ASSISTANT_ID is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		PollInterval: 800 * time.Millisecond,
		Timeout:      2 * time.Minute,
	}
}
