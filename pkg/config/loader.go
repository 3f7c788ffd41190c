package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// CHURN_UPSTREAM_BASE_URL for upstream.base_url.
const EnvPrefix = "CHURN"

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/churn-dashboard")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// upstream.base_url has no default, so AutomaticEnv alone would not
	// pick it up during Unmarshal.
	if err := v.BindEnv("upstream.base_url"); err != nil {
		return nil, fmt.Errorf("failed to bind upstream.base_url: %w", err)
	}
	if err := v.BindEnv("cache.redis_url"); err != nil {
		return nil, fmt.Errorf("failed to bind cache.redis_url: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "churn-dashboard")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "30s")

	v.SetDefault("upstream.timeout", "10s")
	v.SetDefault("upstream.retry_attempts", 3)
	v.SetDefault("upstream.retry_delay", "1s")
	v.SetDefault("upstream.circuit_breaker.max_failures", 5)
	v.SetDefault("upstream.circuit_breaker.timeout", "30s")

	v.SetDefault("dashboard.refresh_interval", "30s")
	v.SetDefault("dashboard.history_size", 10)
	v.SetDefault("dashboard.timezone", "UTC")
	v.SetDefault("dashboard.analysis.high_threshold", 0.5)
	v.SetDefault("dashboard.analysis.critical_threshold", 0.7)
	v.SetDefault("dashboard.analysis.sustained_for", "5m")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", "1h")

	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.idle_timeout", "60s")
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.predict_rate_limit", 30)
	v.SetDefault("api.max_body_bytes", 64*1024)
	v.SetDefault("api.cors.allowed_origins", []string{"*"})

	v.SetDefault("websocket.max_connections", 1000)
	v.SetDefault("websocket.ping_interval", "30s")

	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.port", 9090)

	v.SetDefault("events.buffer_size", 100)
}
