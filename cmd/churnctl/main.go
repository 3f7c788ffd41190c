package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/OldStager01/churn-dashboard/internal/churnapi"
	"github.com/OldStager01/churn-dashboard/internal/logger"
)

func main() {
	app := &cli.App{
		Name:  "churnctl",
		Usage: "Query the churn model service from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Value:   "http://localhost:8000",
				Usage:   "model service base URL",
				EnvVars: []string{"CHURN_UPSTREAM_BASE_URL"},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Value:   10 * time.Second,
				Usage:   "per-request timeout",
				EnvVars: []string{"CHURN_UPSTREAM_TIMEOUT"},
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print raw JSON instead of text",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "warn",
				Usage: "log level",
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(c.String("log-level"), "development")
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Show the model service status",
				Action: healthCmd,
			},
			{
				Name:   "metrics",
				Usage:  "Show aggregate prediction metrics",
				Action: metricsCmd,
			},
			{
				Name:   "model-info",
				Usage:  "Show the loaded model and its test scores",
				Action: modelInfoCmd,
			},
			{
				Name:  "predict",
				Usage: "Score one customer, or every row of a CSV file",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "field",
						Aliases: []string{"f"},
						Usage:   "customer attribute as key=value (repeatable)",
					},
					&cli.PathFlag{
						Name:  "file",
						Usage: "CSV file with a header row of attribute names",
					},
				},
				Action: predictCmd,
			},
			{
				Name:  "watch",
				Usage: "Poll metrics and print the churn probability trend",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "interval",
						Value: 5 * time.Second,
						Usage: "poll interval",
					},
					&cli.IntFlag{
						Name:  "window",
						Value: 20,
						Usage: "number of samples kept in the trend",
					},
					&cli.IntFlag{
						Name:  "count",
						Usage: "stop after this many polls (0 runs until interrupted)",
					},
				},
				Action: watchCmd,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(c *cli.Context) *churnapi.HTTPClient {
	return churnapi.NewHTTPClient(churnapi.HTTPClientConfig{
		BaseURL: c.String("api-url"),
		Timeout: c.Duration("timeout"),
	})
}
