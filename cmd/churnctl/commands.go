package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/OldStager01/churn-dashboard/internal/dashboard"
	"github.com/OldStager01/churn-dashboard/internal/history"
	"github.com/OldStager01/churn-dashboard/internal/interpreter"
	"github.com/OldStager01/churn-dashboard/internal/request"
	"github.com/OldStager01/churn-dashboard/pkg/models"
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func healthCmd(c *cli.Context) error {
	client := newClient(c)
	defer client.Close()

	status := client.Health(c.Context)
	if c.Bool("json") {
		return printJSON(c.App.Writer, status)
	}

	fmt.Fprintf(c.App.Writer, "%s\n", status.Label())
	if status.Version != "" {
		fmt.Fprintf(c.App.Writer, "version: %s\n", status.Version)
	}
	if status.Detail != "" {
		fmt.Fprintf(c.App.Writer, "detail:  %s\n", status.Detail)
	}
	if !status.IsOnline() {
		return cli.Exit("", 2)
	}
	return nil
}

func metricsCmd(c *cli.Context) error {
	client := newClient(c)
	defer client.Close()

	snapshot, err := client.Metrics(c.Context)
	if err != nil {
		return err
	}
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("invalid metrics: %w", err)
	}
	if c.Bool("json") {
		return printJSON(c.App.Writer, snapshot)
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total predictions\t%d\n", snapshot.TotalPredictions)
	fmt.Fprintf(tw, "Average churn probability\t%.1f%%\n", interpreter.Percent(snapshot.AverageChurnProbability))
	for _, share := range dashboard.Distribution(snapshot.PredictionsByRisk) {
		fmt.Fprintf(tw, "%s risk\t%d (%.1f%%)\n", share.Category, share.Count, share.Percent)
	}
	return tw.Flush()
}

func modelInfoCmd(c *cli.Context) error {
	client := newClient(c)
	defer client.Close()

	info, err := client.ModelInfo(c.Context)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c.App.Writer, info)
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Model\t%s\n", orNA(info.ModelName))
	fmt.Fprintf(tw, "Trained\t%s\n", orNA(info.Timestamp))
	for _, score := range []struct {
		name  string
		value *float64
	}{
		{"F1", info.TestF1Score},
		{"Precision", info.TestPrecision},
		{"Recall", info.TestRecall},
		{"Accuracy", info.TestAccuracy},
		{"ROC AUC", info.TestROCAUC},
	} {
		fmt.Fprintf(tw, "%s\t%s\n", score.name, formatScore(score.value))
	}
	return tw.Flush()
}

func predictCmd(c *cli.Context) error {
	var rows []map[string]string

	switch {
	case c.IsSet("file"):
		f, err := os.Open(c.Path("file"))
		if err != nil {
			return err
		}
		defer f.Close()
		if rows, err = readRows(f); err != nil {
			return fmt.Errorf("read %s: %w", c.Path("file"), err)
		}
	case len(c.StringSlice("field")) > 0:
		raw, err := parseFields(c.StringSlice("field"))
		if err != nil {
			return err
		}
		rows = append(rows, raw)
	default:
		return cli.Exit("either --field or --file is required", 1)
	}

	client := newClient(c)
	defer client.Close()

	builder := request.NewBuilder()
	interp := interpreter.New()

	var failed int
	for i, raw := range rows {
		result, err := predictOne(c.Context, client, builder, interp, raw)
		if err != nil {
			failed++
			fmt.Fprintf(c.App.ErrWriter, "row %d: %v\n", i+1, err)
			continue
		}
		if c.Bool("json") {
			if err := printJSON(c.App.Writer, result); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(c.App.Writer, "%s  %-16s  %5.1f%%  %s\n",
			result.CustomerID, result.Headline, result.ProbabilityPct, result.Recommendation)
	}

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d predictions failed", failed, len(rows)), 1)
	}
	return nil
}

type predictor interface {
	Predict(ctx context.Context, req *models.PredictionRequest) (*models.PredictionResponse, error)
}

func predictOne(ctx context.Context, client predictor, builder *request.Builder, interp *interpreter.Interpreter, raw map[string]string) (*models.DisplayResult, error) {
	req, err := builder.Build(raw)
	if err != nil {
		return nil, err
	}
	resp, err := client.Predict(ctx, req)
	if err != nil {
		return nil, err
	}
	return interp.Interpret(resp)
}

func watchCmd(c *cli.Context) error {
	client := newClient(c)
	defer client.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	trend := history.New(c.Int("window"))
	ticker := time.NewTicker(c.Duration("interval"))
	defer ticker.Stop()

	for polls := 1; ; polls++ {
		snapshot, err := client.Metrics(ctx)
		switch {
		case err != nil:
			fmt.Fprintf(c.App.ErrWriter, "%s  metrics unavailable: %v\n", time.Now().Format(history.LabelLayout), err)
		case snapshot.Validate() != nil:
			fmt.Fprintf(c.App.ErrWriter, "%s  invalid metrics ignored\n", time.Now().Format(history.LabelLayout))
		default:
			window, err := trend.Record(snapshot.AverageChurnProbability, time.Now())
			if err != nil {
				return err
			}
			latest, _ := window.Latest()
			fmt.Fprintf(c.App.Writer, "%s  %5.1f%%  %d predictions  %s\n",
				latest.Label, interpreter.Percent(latest.Value), snapshot.TotalPredictions, sparkline(window.Values()))
		}

		if n := c.Int("count"); n > 0 && polls >= n {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// parseFields turns key=value pairs into a raw form.
func parseFields(pairs []string) (map[string]string, error) {
	raw := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q, expected key=value", pair)
		}
		raw[key] = value
	}
	return raw, nil
}

// readRows reads a CSV with a header row into one raw form per record.
// Empty cells are left out so they surface as missing fields.
func readRows(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file")
		}
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		raw := make(map[string]string, len(header))
		for i, value := range record {
			if value == "" {
				continue
			}
			raw[header[i]] = value
		}
		rows = append(rows, raw)
	}
	return rows, nil
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// sparkline renders probabilities in [0,1] as block characters.
func sparkline(values []float64) string {
	var b strings.Builder
	for _, v := range values {
		idx := int(v * float64(len(sparkBlocks)))
		if idx >= len(sparkBlocks) {
			idx = len(sparkBlocks) - 1
		}
		if idx < 0 {
			idx = 0
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

func formatScore(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.4f", *v)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
