package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"github.com/OldStager01/churn-dashboard/internal/logger"
	"github.com/OldStager01/churn-dashboard/internal/simulator"
)

func main() {
	app := &cli.App{
		Name:    "churnsim",
		Usage:   "Stand-in churn model service for local development",
		Version: simulator.Version,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8000,
				Usage:   "simulator server port",
				EnvVars: []string{"CHURNSIM_PORT"},
			},
			&cli.StringFlag{
				Name:    "drift",
				Value:   "steady",
				Usage:   "score drift (steady, random, gradual_rise, seasonal)",
				EnvVars: []string{"CHURNSIM_DRIFT"},
			},
			&cli.BoolFlag{
				Name:  "unloaded",
				Usage: "start with the model reported as not loaded",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level",
				EnvVars: []string{"CHURNSIM_LOG_LEVEL"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logger.Setup(c.String("log-level"), "development")
	gin.SetMode(gin.ReleaseMode)
	logger.Info("Starting churn model simulator")

	sim := simulator.New(simulator.Config{
		Port:          c.Int("port"),
		Drift:         c.String("drift"),
		StartUnloaded: c.Bool("unloaded"),
	})

	if err := sim.Start(); err != nil {
		return fmt.Errorf("failed to start simulator: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down simulator")
	return sim.Stop()
}
