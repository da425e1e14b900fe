package saveselection

import (
	"fmt"
	"time"
)

type Config struct {
	MaxFRNs int           `mapstructure:"max_frns"`
	Source  string        `mapstructure:"source"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		MaxFRNs: 500,
		Source:  "onboarding",
		Timeout: 10 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.MaxFRNs <= 0 {
		return fmt.Errorf("max_frns must be positive")
	}
	if c.Source == "" {
		return fmt.Errorf("source is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
