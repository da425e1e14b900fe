package phoneverification

import (
	"fmt"
	"time"

	"erate-tracker/internal/common/config"
)

type Config struct {
	CodeLength         int           `mapstructure:"code_length"`
	CodeTTL            time.Duration `mapstructure:"code_ttl"`
	ResendCooldown     time.Duration `mapstructure:"resend_cooldown"`
	DefaultCountryCode string        `mapstructure:"default_country_code"`
	SenderID           string        `mapstructure:"sender_id"`
	KeyPrefix          string        `mapstructure:"key_prefix"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		CodeLength:         6,
		CodeTTL:            10 * time.Minute,
		ResendCooldown:     60 * time.Second,
		DefaultCountryCode: "1",
		KeyPrefix:          "onboarding:phone",
		Timeout:            10 * time.Second,
	}
}

// FromAppConfig builds the worker config from the onboarding and AWS sections.
func FromAppConfig(cfg *config.Config) *Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if cfg.Onboarding.CodeLength > 0 {
		c.CodeLength = cfg.Onboarding.CodeLength
	}
	if ttl := cfg.Onboarding.CodeTTL(); ttl > 0 {
		c.CodeTTL = ttl
	}
	if cd := cfg.Onboarding.ResendCooldown(); cd > 0 {
		c.ResendCooldown = cd
	}
	if cfg.Onboarding.DefaultCountryCode != "" {
		c.DefaultCountryCode = cfg.Onboarding.DefaultCountryCode
	}
	c.SenderID = cfg.Integrations.AWS.SNS.DefaultSMSSenderID
	return c
}

func (c *Config) Validate() error {
	if c.CodeLength < 4 || c.CodeLength > 10 {
		return fmt.Errorf("code_length must be between 4 and 10")
	}
	if c.CodeTTL <= 0 {
		return fmt.Errorf("code_ttl must be positive")
	}
	if c.ResendCooldown < 0 {
		return fmt.Errorf("resend_cooldown must not be negative")
	}
	if c.KeyPrefix == "" {
		return fmt.Errorf("key_prefix is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

func (c *Config) codeKey(accountID, phone string) string {
	return fmt.Sprintf("%s:code:%s:%s", c.KeyPrefix, accountID, phone)
}

func (c *Config) cooldownKey(accountID, phone string) string {
	return fmt.Sprintf("%s:cooldown:%s:%s", c.KeyPrefix, accountID, phone)
}
