package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

func (c *Config) Validate() error {
	var errs []error

	// App validation
	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}

	validModes := map[string]bool{"development": true, "production": true, "test": true}
	if !validModes[c.App.Mode] {
		errs = append(errs, fmt.Errorf("app.mode must be one of: development, production, test"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, fmt.Errorf("app.log_level must be one of: debug, info, warn, error"))
	}

	// Upstream validation
	if c.Upstream.BaseURL == "" {
		errs = append(errs, errors.New("upstream.base_url is required"))
	} else if u, err := url.Parse(c.Upstream.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, errors.New("upstream.base_url must be an absolute http(s) URL"))
	}
	if c.Upstream.Timeout <= 0 {
		errs = append(errs, errors.New("upstream.timeout must be positive"))
	}
	if c.Upstream.RetryAttempts < 1 {
		errs = append(errs, errors.New("upstream.retry_attempts must be at least 1"))
	}
	if c.Upstream.CircuitBreaker.MaxFailures <= 0 {
		errs = append(errs, errors.New("upstream.circuit_breaker.max_failures must be positive"))
	}

	// Dashboard validation
	if c.Dashboard.RefreshInterval <= 0 {
		errs = append(errs, errors.New("dashboard.refresh_interval must be positive"))
	}
	if c.Upstream.Timeout >= c.Dashboard.RefreshInterval {
		errs = append(errs, errors.New("upstream.timeout must be less than dashboard.refresh_interval"))
	}
	if c.Dashboard.HistorySize <= 0 {
		errs = append(errs, errors.New("dashboard.history_size must be positive"))
	}
	if _, err := c.Dashboard.Location(); err != nil {
		errs = append(errs, fmt.Errorf("dashboard.timezone: %w", err))
	}

	analysis := c.Dashboard.Analysis
	if analysis.HighThreshold < 0 || analysis.HighThreshold > 1 {
		errs = append(errs, errors.New("dashboard.analysis.high_threshold must be between 0 and 1"))
	}
	if analysis.CriticalThreshold < 0 || analysis.CriticalThreshold > 1 {
		errs = append(errs, errors.New("dashboard.analysis.critical_threshold must be between 0 and 1"))
	}
	if analysis.HighThreshold > 0 && analysis.CriticalThreshold > 0 && analysis.HighThreshold >= analysis.CriticalThreshold {
		errs = append(errs, errors.New("dashboard.analysis.high_threshold must be below critical_threshold"))
	}
	if analysis.TrendDelta < 0 || analysis.SpikePercent < 0 || analysis.SustainedFor < 0 {
		errs = append(errs, errors.New("dashboard.analysis values must not be negative"))
	}

	// Cache validation
	if c.Cache.Enabled {
		if c.Cache.RedisURL == "" {
			errs = append(errs, errors.New("cache.redis_url is required when cache is enabled"))
		}
		if c.Cache.TTL <= 0 {
			errs = append(errs, errors.New("cache.ttl must be positive"))
		}
	}

	// API validation
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}
	for _, origin := range c.API.CORS.AllowedOrigins {
		if origin == "*" {
			if c.API.CORS.AllowCredentials {
				errs = append(errs, errors.New("api.cors.allow_credentials cannot be combined with origin *"))
			}
			continue
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			errs = append(errs, fmt.Errorf("api.cors.allowed_origins: %q must start with http:// or https://", origin))
		}
	}
	if c.Prometheus.Enabled && c.Prometheus.Port == c.API.Port {
		errs = append(errs, errors.New("prometheus.port must differ from api.port"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
