package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serverYAML = `
database:
  postgres:
    host: db.internal
    database: erate
    user: ${TEST_DB_USER}
  elasticsearch:
    addresses:
      - http://es:9200
  redis:
    address: redis:6379
auth:
  keycloak:
    url: http://keycloak:8080
    realm: erate
onboarding:
  destinations:
    vendor: /vendor/home
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// ==========================
// Server configuration
// ==========================

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	t.Setenv("TEST_DB_USER", "onboarding")

	cfg, err := LoadFromFile(writeConfig(t, serverYAML))
	require.NoError(t, err)

	assert.Equal(t, "onboarding", cfg.Database.Postgres.User)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "http://es:9200", cfg.Database.Elasticsearch.URL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())

	assert.Equal(t, "frn_status", cfg.Onboarding.DiscoveryIndex)
	assert.Equal(t, 6, cfg.Onboarding.CodeLength)
	assert.Equal(t, 10*time.Minute, cfg.Onboarding.CodeTTL())
	assert.Equal(t, time.Minute, cfg.Onboarding.ResendCooldown())
	assert.Equal(t, "erate-onboarding-completed", cfg.Onboarding.CompletionProcessID)

	assert.Equal(t, "/vendor/home", cfg.Onboarding.Destinations["vendor"])
	assert.Equal(t, "/applicant", cfg.Onboarding.Destinations["applicant"])
	assert.Equal(t, "/consultant", cfg.Onboarding.Destinations["consultant"])
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing postgres host",
			body:    "database:\n  postgres:\n    database: erate\n",
			wantErr: "database.postgres.host is required",
		},
		{
			name:    "camunda enabled without broker",
			body:    serverYAML + "camunda:\n  enabled: true\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name:    "code too short",
			body:    serverYAML + "  code_length: 3\n",
			wantErr: "onboarding.code_length must be at least 4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DB_USER", "onboarding")

			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

// ==========================
// Client configuration
// ==========================

func TestLoadClient(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		t.Setenv("ONBOARD_TOKEN", "session-token")
		path := writeConfig(t, "client:\n  base_url: http://localhost:8080\n  role: vendor\n")

		cfg, err := LoadClient(path)
		require.NoError(t, err)
		assert.Equal(t, "session-token", cfg.Client.Token)
		assert.Equal(t, 10000, cfg.Client.Timeout)
		assert.Equal(t, 1, cfg.Client.TickSeconds)
	})

	t.Run("unknown role", func(t *testing.T) {
		path := writeConfig(t, "client:\n  base_url: http://localhost:8080\n  token: abc\n  role: admin\n")

		_, err := LoadClient(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "client.role")
	})
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"welcome-email": {Enabled: false, MaxJobsActive: 2},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "welcome-email"))
	assert.True(t, IsWorkerEnabled(cfg, "unknown"))
	assert.Equal(t, 3, GetWorkerConfig(cfg, "unknown").MaxRetries)
	assert.Equal(t, 2, GetWorkerConfig(cfg, "welcome-email").MaxJobsActive)
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
