// Command analyze profiles one cleaned measurement file: it prints the
// per-column summary and missing-value report, and renders the chart set
// (time series, histograms, correlation heatmap, scatter, bubble, wind
// rose) into the output directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"solarcli/internal/analytics"
	"solarcli/internal/charts"
	"solarcli/internal/config"
	"solarcli/internal/dataset"
	"solarcli/internal/infrastructure"
)

func main() {
	inFile := flag.String("in", "", "cleaned measurement file (.csv or .xlsx)")
	outDir := flag.String("out", "", "chart output directory (defaults to <output dir>/<name>)")
	daily := flag.Bool("daily", false, "resample time series charts to daily means")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if *inFile == "" {
		flag.Usage()
		os.Exit(2)
	}
	name := strings.TrimSuffix(filepath.Base(*inFile), filepath.Ext(*inFile))
	if *outDir == "" {
		*outDir = filepath.Join(cfg.Paths.OutputDir, name)
	}

	ctx := infrastructure.EnsureTraceID(context.Background())
	if err := run(ctx, logger, *inFile, *outDir, *daily); err != nil {
		logger.ErrorContext(ctx, "analyze failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, inFile, outDir string, daily bool) error {
	ds, err := dataset.Load(inFile)
	if err != nil {
		return fmt.Errorf("load %s: %w", inFile, err)
	}
	logger.InfoContext(ctx, "dataset loaded", "file", inFile, "rows", ds.Len())

	printSummary(ds)
	printMissing(ds)

	opts := charts.DefaultOptions()
	opts.ResampleDaily = daily
	renderer := charts.NewRenderer(logger, opts)
	written, err := renderer.RenderAll(ds, outDir)
	if err != nil {
		return fmt.Errorf("render charts: %w", err)
	}
	for _, path := range written {
		fmt.Println("wrote", path)
	}
	logger.InfoContext(ctx, "charts rendered", "count", len(written), "dir", outDir)
	return nil
}

func printSummary(ds *dataset.Dataset) {
	summaries := analytics.Describe(ds, nil)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "column\tcount\tmissing\tmean\tstd\tmin\tmedian\tmax")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			s.Column, s.Count, s.Missing, s.Mean, s.Std, s.Min, s.Median, s.Max)
	}
	w.Flush()
}

func printMissing(ds *dataset.Dataset) {
	report := analytics.Missing(ds)
	if len(report.HighNull) == 0 {
		fmt.Println("no columns exceed the missing-value threshold")
		return
	}
	fmt.Println("columns with >5% missing values:")
	for _, e := range report.HighNull {
		fmt.Printf("  %s: %d (%.1f%%)\n", e.Column, e.Missing, e.Percent)
	}
}
