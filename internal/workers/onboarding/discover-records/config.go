package discoverrecords

import (
	"fmt"
	"time"

	"erate-tracker/internal/common/config"
)

type Config struct {
	Index      string        `mapstructure:"discovery_index"`
	MaxResults int           `mapstructure:"discovery_max_results"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		Index:      "frn_status",
		MaxResults: 200,
		Timeout:    10 * time.Second,
	}
}

// FromAppConfig builds the worker config from the onboarding section.
func FromAppConfig(cfg *config.Config) *Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if cfg.Onboarding.DiscoveryIndex != "" {
		c.Index = cfg.Onboarding.DiscoveryIndex
	}
	if cfg.Onboarding.DiscoveryMaxResults > 0 {
		c.MaxResults = cfg.Onboarding.DiscoveryMaxResults
	}
	return c
}

func (c *Config) Validate() error {
	if c.Index == "" {
		return fmt.Errorf("discovery index is required")
	}
	if c.MaxResults <= 0 || c.MaxResults > 10000 {
		return fmt.Errorf("max results must be between 1 and 10000")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
