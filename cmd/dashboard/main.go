package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OldStager01/churn-dashboard/api"
	"github.com/OldStager01/churn-dashboard/internal/analyzer"
	"github.com/OldStager01/churn-dashboard/internal/cache"
	"github.com/OldStager01/churn-dashboard/internal/churnapi"
	"github.com/OldStager01/churn-dashboard/internal/dashboard"
	"github.com/OldStager01/churn-dashboard/internal/events"
	"github.com/OldStager01/churn-dashboard/internal/logger"
	"github.com/OldStager01/churn-dashboard/internal/metrics"
	"github.com/OldStager01/churn-dashboard/pkg/config"
)

// @title           Churn Dashboard API
// @version         1.0
// @description     Backend for the customer churn dashboard. Proxies and interprets the churn model service.
// @BasePath        /
// @schemes         http https

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	useMock := flag.Bool("mock", false, "use an in-memory model service instead of upstream.base_url")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	predictionCache, err := newCache(cfg.Cache)
	if err != nil {
		return err
	}
	defer predictionCache.Close()

	bus := events.NewEventBus(cfg.Events.BufferSize)
	defer bus.Close()
	publisher := events.NewPublisher(bus)

	eventLogger := events.NewEventLogger(bus.SubscribeAll())
	eventLogger.Start()
	defer eventLogger.Stop()

	m := metrics.New()
	var metricsServer *metrics.Server
	if cfg.Prometheus.Enabled {
		metricsServer = metrics.NewServer(cfg.Prometheus.Port, m)
		metricsServer.Start()
	}

	var upstream churnapi.Client
	if *useMock {
		logger.Warn("Using in-memory mock model service")
		upstream = churnapi.NewMockClient(churnapi.MockClientConfig{Probability: 0.35})
	} else {
		upstream = churnapi.NewHTTPClient(churnapi.HTTPClientConfig{
			BaseURL: cfg.Upstream.BaseURL,
			Timeout: cfg.Upstream.Timeout,
		})
		logger.Infof("Model service at %s", cfg.Upstream.BaseURL)
	}

	client := churnapi.NewResilientClient(churnapi.ResilientClientConfig{
		Client:        upstream,
		MaxFailures:   cfg.Upstream.CircuitBreaker.MaxFailures,
		Timeout:       cfg.Upstream.CircuitBreaker.Timeout,
		RetryAttempts: cfg.Upstream.RetryAttempts,
		RetryDelay:    cfg.Upstream.RetryDelay,
		OnStateChange: dashboard.CircuitObserver(m, publisher),
	})
	defer client.Close()

	location, err := cfg.Dashboard.Location()
	if err != nil {
		return fmt.Errorf("invalid dashboard.timezone: %w", err)
	}

	service := dashboard.New(dashboard.Config{
		Client:    client,
		Cache:     predictionCache,
		Publisher: publisher,
		Metrics:   m,
		Analyzer: analyzer.New(analyzer.Config{
			HighThreshold:     cfg.Dashboard.Analysis.HighThreshold,
			CriticalThreshold: cfg.Dashboard.Analysis.CriticalThreshold,
			TrendDelta:        cfg.Dashboard.Analysis.TrendDelta,
			SpikePercent:      cfg.Dashboard.Analysis.SpikePercent,
			SustainedFor:      cfg.Dashboard.Analysis.SustainedFor,
		}),
		RefreshInterval: cfg.Dashboard.RefreshInterval,
		HistorySize:     cfg.Dashboard.HistorySize,
		Location:        location,
	})
	if err := service.Start(); err != nil {
		return fmt.Errorf("failed to start dashboard: %w", err)
	}

	server := api.NewServer(cfg, service, bus, m)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Infof("API server listening on port %d", cfg.API.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	var serveErr error
	select {
	case err := <-errChan:
		serveErr = fmt.Errorf("server error: %w", err)
	case sig := <-shutdownChan:
		logger.Infof("Received signal %v, shutting down", sig)
	}

	timeout := cfg.App.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	service.Stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("API shutdown error: %v", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Metrics shutdown error: %v", err)
		}
	}

	if serveErr != nil {
		return serveErr
	}
	logger.Info("Server stopped gracefully")
	return nil
}

func newCache(cfg config.CacheConfig) (cache.Cache, error) {
	if !cfg.Enabled {
		return cache.NopCache{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("Prediction cache connected")
	return cache.NewRedisCache(rdb, cfg.TTL), nil
}
