package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/churn-dashboard/pkg/config"
)

func validConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:     "churn-dashboard",
			Mode:     "development",
			LogLevel: "info",
		},
		Upstream: config.UpstreamConfig{
			BaseURL:       "http://localhost:8000",
			Timeout:       10 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    time.Second,
			CircuitBreaker: config.CircuitBreakerConfig{
				MaxFailures: 5,
				Timeout:     30 * time.Second,
			},
		},
		Dashboard: config.DashboardConfig{
			RefreshInterval: 30 * time.Second,
			HistorySize:     10,
		},
		API:        config.APIConfig{Port: 8080},
		Prometheus: config.PrometheusConfig{Enabled: true, Port: 9090},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		modifyFunc  func(*config.Config)
		expectErr   bool
		errContains string
	}{
		{
			name:       "valid config",
			modifyFunc: func(c *config.Config) {},
		},
		{
			name:        "missing base url",
			modifyFunc:  func(c *config.Config) { c.Upstream.BaseURL = "" },
			expectErr:   true,
			errContains: "upstream.base_url is required",
		},
		{
			name:        "relative base url",
			modifyFunc:  func(c *config.Config) { c.Upstream.BaseURL = "localhost:8000" },
			expectErr:   true,
			errContains: "absolute http(s) URL",
		},
		{
			name:        "non-http scheme",
			modifyFunc:  func(c *config.Config) { c.Upstream.BaseURL = "ftp://models.internal" },
			expectErr:   true,
			errContains: "absolute http(s) URL",
		},
		{
			name: "upstream timeout not below refresh interval",
			modifyFunc: func(c *config.Config) {
				c.Upstream.Timeout = 30 * time.Second
			},
			expectErr:   true,
			errContains: "timeout must be less than",
		},
		{
			name:        "zero history size",
			modifyFunc:  func(c *config.Config) { c.Dashboard.HistorySize = 0 },
			expectErr:   true,
			errContains: "history_size must be positive",
		},
		{
			name:        "cache enabled without redis url",
			modifyFunc:  func(c *config.Config) { c.Cache = config.CacheConfig{Enabled: true, TTL: time.Hour} },
			expectErr:   true,
			errContains: "cache.redis_url is required",
		},
		{
			name:        "prometheus on api port",
			modifyFunc:  func(c *config.Config) { c.Prometheus.Port = 8080 },
			expectErr:   true,
			errContains: "prometheus.port must differ",
		},
		{
			name: "analysis thresholds inverted",
			modifyFunc: func(c *config.Config) {
				c.Dashboard.Analysis = config.AnalysisConfig{HighThreshold: 0.8, CriticalThreshold: 0.6}
			},
			expectErr:   true,
			errContains: "high_threshold must be below critical_threshold",
		},
		{
			name:        "analysis threshold above one",
			modifyFunc:  func(c *config.Config) { c.Dashboard.Analysis.CriticalThreshold = 1.5 },
			expectErr:   true,
			errContains: "critical_threshold must be between 0 and 1",
		},
		{
			name: "wildcard origin with credentials",
			modifyFunc: func(c *config.Config) {
				c.API.CORS = config.CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true}
			},
			expectErr:   true,
			errContains: "allow_credentials cannot be combined",
		},
		{
			name:        "origin without scheme",
			modifyFunc:  func(c *config.Config) { c.API.CORS.AllowedOrigins = []string{"dashboard.local"} },
			expectErr:   true,
			errContains: "must start with http:// or https://",
		},
		{
			name:        "unknown timezone",
			modifyFunc:  func(c *config.Config) { c.Dashboard.Timezone = "Mars/Olympus_Mons" },
			expectErr:   true,
			errContains: "dashboard.timezone",
		},
		{
			name:        "invalid log level",
			modifyFunc:  func(c *config.Config) { c.App.LogLevel = "verbose" },
			expectErr:   true,
			errContains: "app.log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modifyFunc(cfg)

			err := cfg.Validate()

			if tt.expectErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Upstream.BaseURL = ""
	cfg.Dashboard.HistorySize = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream.base_url is required")
	assert.Contains(t, err.Error(), "history_size must be positive")
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("CHURN_UPSTREAM_BASE_URL", "http://churn-api:8000")
	t.Setenv("CHURN_DASHBOARD_HISTORY_SIZE", "20")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: churn-dashboard\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://churn-api:8000", cfg.Upstream.BaseURL)
	assert.Equal(t, 20, cfg.Dashboard.HistorySize)
	assert.Equal(t, 30*time.Second, cfg.Dashboard.RefreshInterval)
	assert.Equal(t, 0.7, cfg.Dashboard.Analysis.CriticalThreshold)
	assert.Equal(t, 5*time.Minute, cfg.Dashboard.Analysis.SustainedFor)
	loc, err := cfg.Dashboard.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  name: churn-dashboard
  mode: production
  log_level: warn
upstream:
  base_url: https://models.example.com
  timeout: 5s
cache:
  enabled: true
  redis_url: redis://localhost:6379/0
  ttl: 10m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Mode)
	assert.Equal(t, "https://models.example.com", cfg.Upstream.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Upstream.Timeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.NoError(t, cfg.Validate())
}
