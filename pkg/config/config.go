package config

import (
	"time"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Upstream   UpstreamConfig   `mapstructure:"upstream"`
	Dashboard  DashboardConfig  `mapstructure:"dashboard"`
	Cache      CacheConfig      `mapstructure:"cache"`
	API        APIConfig        `mapstructure:"api"`
	WebSocket  WebSocketConfig  `mapstructure:"websocket"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Events     EventsConfig     `mapstructure:"events"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Mode            string        `mapstructure:"mode"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// UpstreamConfig describes the churn model service the dashboard calls.
type UpstreamConfig struct {
	BaseURL        string               `mapstructure:"base_url"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	RetryAttempts  int                  `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration        `mapstructure:"retry_delay"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	MaxFailures int           `mapstructure:"max_failures"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type DashboardConfig struct {
	RefreshInterval time.Duration  `mapstructure:"refresh_interval"`
	HistorySize     int            `mapstructure:"history_size"`
	Timezone        string         `mapstructure:"timezone"`
	Analysis        AnalysisConfig `mapstructure:"analysis"`
}

// Location resolves Timezone, used for model timestamps that carry no
// offset. Empty means UTC.
func (d DashboardConfig) Location() (*time.Location, error) {
	if d.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(d.Timezone)
}

// AnalysisConfig tunes trend alerts. Zero values use the analyzer defaults.
type AnalysisConfig struct {
	HighThreshold     float64       `mapstructure:"high_threshold"`
	CriticalThreshold float64       `mapstructure:"critical_threshold"`
	TrendDelta        float64       `mapstructure:"trend_delta"`
	SpikePercent      float64       `mapstructure:"spike_percent"`
	SustainedFor      time.Duration `mapstructure:"sustained_for"`
}

type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type APIConfig struct {
	Port             int           `mapstructure:"port"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	RateLimit        int           `mapstructure:"rate_limit"`
	PredictRateLimit int           `mapstructure:"predict_rate_limit"`
	MaxBodyBytes     int64         `mapstructure:"max_body_bytes"`
	CORS             CORSConfig    `mapstructure:"cors"`
}

type WebSocketConfig struct {
	MaxConnections  int           `mapstructure:"max_connections"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	BroadcastBuffer int           `mapstructure:"broadcast_buffer"`
	ClientBuffer    int           `mapstructure:"client_buffer"`
}

type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}
