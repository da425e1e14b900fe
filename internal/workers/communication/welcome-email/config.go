package welcomeemail

import (
	"fmt"
	"strings"
	"time"

	"erate-tracker/internal/common/config"
)

const workerName = "welcome-email"

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	SESEnabled    bool          `mapstructure:"ses_enabled"`
	FromEmail     string        `mapstructure:"from_email"`
	AppBaseURL    string        `mapstructure:"app_base_url"`
	Destinations  map[string]string
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
		SESEnabled:    true,
		FromEmail:     "noreply@erate-tracker.app",
		AppBaseURL:    "https://erate-tracker.app",
		Destinations:  map[string]string{},
	}
}

func FromAppConfig(cfg *config.Config) *Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	wc := config.GetWorkerConfig(cfg, workerName)
	c.Enabled = wc.Enabled
	if wc.MaxJobsActive > 0 {
		c.MaxJobsActive = wc.MaxJobsActive
	}
	if wc.Timeout > 0 {
		c.Timeout = config.GetDuration(wc.Timeout)
	}
	c.SESEnabled = cfg.Integrations.AWS.SES.Enabled
	if cfg.Integrations.AWS.SES.FromEmail != "" {
		c.FromEmail = cfg.Integrations.AWS.SES.FromEmail
	}
	if cfg.App.BaseURL != "" {
		c.AppBaseURL = cfg.App.BaseURL
	}
	for role, dest := range cfg.Onboarding.Destinations {
		c.Destinations[role] = dest
	}
	return c
}

func (c *Config) Validate() error {
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.SESEnabled && !strings.Contains(c.FromEmail, "@") {
		return fmt.Errorf("from_email is required when SES is enabled")
	}
	return nil
}
