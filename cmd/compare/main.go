// Command compare runs the cross-country comparison over cleaned files:
// combined boxplots per metric, a ranked summary table, a mean-GHI bar
// chart, and one-way ANOVA plus Kruskal-Wallis significance tests.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"solarcli/internal/charts"
	"solarcli/internal/compare"
	"solarcli/internal/config"
	"solarcli/internal/dataset"
	"solarcli/internal/infrastructure"
)

func main() {
	inDir := flag.String("in", "", "directory with *_clean files (defaults to configured output dir)")
	outDir := flag.String("out", "", "report output directory (defaults to <output dir>/comparison)")
	metrics := flag.String("metrics", "", "comma-separated metrics to compare (default GHI,DNI,DHI)")
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

	if *inDir == "" {
		*inDir = cfg.Paths.OutputDir
	}
	if *outDir == "" {
		*outDir = filepath.Join(cfg.Paths.OutputDir, "comparison")
	}

	ctx := infrastructure.EnsureTraceID(context.Background())
	if err := run(ctx, logger, *inDir, *outDir, splitMetrics(*metrics)); err != nil {
		logger.ErrorContext(ctx, "compare failed", "error", err)
		os.Exit(1)
	}
}

func splitMetrics(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func run(ctx context.Context, logger *slog.Logger, inDir, outDir string, metrics []string) error {
	discovery := dataset.NewDiscovery(inDir)
	files, err := discovery.FindCleanedFiles(inDir)
	if err != nil {
		return fmt.Errorf("discover cleaned files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no *_clean files found in %s, run prep first", inDir)
	}

	inputs := make([]compare.Input, 0, len(files))
	for _, file := range files {
		name := strings.TrimSuffix(file.Name, filepath.Ext(file.Name))
		name = strings.TrimSuffix(name, "_clean")
		inputs = append(inputs, compare.Input{Name: name, Path: file.Path})
	}

	renderer := charts.NewRenderer(logger, charts.DefaultOptions())
	workflow := compare.New(logger, renderer, metrics)
	result, err := workflow.Run(ctx, inputs, outDir)
	if err != nil {
		return err
	}

	fmt.Printf("%-20s %8s %10s %10s %10s\n", "country", "count", "mean", "median", "std")
	for _, s := range result.Summaries {
		fmt.Printf("%-20s %8d %10.2f %10.2f %10.2f\n", s.Group, s.Count, s.Mean, s.Median, s.Std)
	}
	if result.ANOVA != nil {
		fmt.Printf("one-way ANOVA on %s: F=%.4f p=%.6f\n", result.TestMetric, result.ANOVA.Statistic, result.ANOVA.PValue)
	}
	if result.Kruskal != nil {
		fmt.Printf("Kruskal-Wallis on %s: H=%.4f p=%.6f\n", result.TestMetric, result.Kruskal.Statistic, result.Kruskal.PValue)
	}
	for _, path := range result.ChartPaths {
		fmt.Println("wrote", path)
	}
	return nil
}
