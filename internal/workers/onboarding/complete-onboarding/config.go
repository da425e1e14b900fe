package completeonboarding

import (
	"fmt"
	"time"

	"erate-tracker/internal/common/config"
	"erate-tracker/internal/models"
)

type Config struct {
	ProcessID    string            `mapstructure:"completion_process_id"`
	Destinations map[string]string `mapstructure:"destinations"`
	Timeout      time.Duration     `mapstructure:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		ProcessID: "erate-onboarding-completed",
		Destinations: map[string]string{
			string(models.RoleApplicant):  "/applicant",
			string(models.RoleConsultant): "/consultant",
			string(models.RoleVendor):     "/vendor",
		},
		Timeout: 10 * time.Second,
	}
}

func FromAppConfig(cfg *config.Config) *Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if cfg.Onboarding.CompletionProcessID != "" {
		c.ProcessID = cfg.Onboarding.CompletionProcessID
	}
	for role, dest := range cfg.Onboarding.Destinations {
		if dest != "" {
			c.Destinations[role] = dest
		}
	}
	return c
}

func (c *Config) Validate() error {
	for _, role := range models.Roles {
		if c.Destinations[string(role)] == "" {
			return fmt.Errorf("destination for role %s is required", role)
		}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
