// Command prep cleans raw measurement files: it flags outlier rows by
// z-score, imputes flagged and missing values with column medians, and
// writes <name>_clean.csv files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"solarcli/internal/charts"
	"solarcli/internal/cleaning"
	"solarcli/internal/config"
	"solarcli/internal/dataset"
	"solarcli/internal/infrastructure"
)

func main() {
	inDir := flag.String("in", "", "input directory with raw .csv/.xlsx files (defaults to configured data dir)")
	outDir := flag.String("out", "", "output directory for cleaned files (defaults to configured output dir)")
	threshold := flag.Float64("threshold", 0, "|z| cutoff for outlier flagging (defaults to configured value)")
	columns := flag.String("columns", "", "comma-separated candidate columns for flagging (default GHI,DNI,DHI,ModA,ModB,WS,WSgust)")
	workers := flag.Int("workers", 4, "number of files cleaned concurrently")
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
		*inDir = cfg.Paths.DataDir
	}
	if *outDir == "" {
		*outDir = cfg.Paths.OutputDir
	}
	if *threshold == 0 {
		*threshold = cfg.Cleaning.ZScoreThreshold
	}

	ctx := infrastructure.EnsureTraceID(context.Background())
	if err := run(ctx, logger, *inDir, *outDir, *threshold, splitColumns(*columns), *workers); err != nil {
		logger.ErrorContext(ctx, "prep failed", "error", err)
		os.Exit(1)
	}
}

func splitColumns(raw string) []string {
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

func run(ctx context.Context, logger *slog.Logger, inDir, outDir string, threshold float64, columns []string, workers int) error {
	discovery := dataset.NewDiscovery(inDir)
	files, err := discovery.FindDataFiles(inDir)
	if err != nil {
		return fmt.Errorf("discover input files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no data files found in %s", inDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	pipeline := cleaning.New(logger, cleaning.Config{Threshold: threshold, CandidateColumns: columns})
	renderer := charts.NewRenderer(logger, charts.Options{})

	var succeeded atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, file := range files {
		g.Go(func() error {
			// An unreadable or malformed file must not abort the batch;
			// the remaining stations still get cleaned.
			ds, err := dataset.Load(file.Path)
			if err != nil {
				logger.WarnContext(ctx, "skipping file",
					"input", file.Path,
					"error", err.Error())
				return nil
			}

			name := strings.TrimSuffix(file.Name, filepath.Ext(file.Name))
			ds.Name = name
			outPath := filepath.Join(outDir, name+"_clean.csv")
			cleaned, err := pipeline.Run(ctx, ds, nil, outPath)
			if err != nil {
				return fmt.Errorf("clean %s: %w", file.Name, err)
			}
			succeeded.Add(1)

			if _, err := renderer.CleaningImpact(ds, cleaned, outDir); err != nil {
				logger.WarnContext(ctx, "cleaning impact charts failed",
					"input", file.Path,
					"error", err.Error())
			}

			logger.InfoContext(ctx, "file cleaned",
				"input", file.Path,
				"output", outPath,
				"rows", cleaned.Len())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if succeeded.Load() == 0 {
		return fmt.Errorf("no files could be cleaned in %s", inDir)
	}
	return nil
}
