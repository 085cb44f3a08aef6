package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvEnrichAPIKey      = "DPR_ENRICH_API_KEY"
	EnvEnrichModel       = "DPR_ENRICH_MODEL"
	EnvEnrichTemperature = "DPR_ENRICH_TEMPERATURE"
	EnvEnrichMaxTokens   = "DPR_ENRICH_MAX_TOKENS"
)

// EnrichConfig holds enrichment model parameters. An empty API key is
// valid and puts the adapter in deterministic fallback mode.
type EnrichConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *EnrichConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *EnrichConfig) Merge(overlay *EnrichConfig) {
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.Temperature != 0 {
		c.Temperature = overlay.Temperature
	}
	if overlay.MaxTokens != 0 {
		c.MaxTokens = overlay.MaxTokens
	}
}

func (c *EnrichConfig) loadDefaults() {
	if c.Model == "" {
		c.Model = "gemini-1.5-flash"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.1
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 512
	}
}

func (c *EnrichConfig) loadEnv() {
	if v := os.Getenv(EnvEnrichAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvEnrichModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvEnrichTemperature); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			c.Temperature = t
		}
	}
	if v := os.Getenv(EnvEnrichMaxTokens); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxTokens = n
		}
	}
}

func (c *EnrichConfig) validate() error {
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("invalid temperature: %g", c.Temperature)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("invalid max_tokens: %d", c.MaxTokens)
	}
	return nil
}
