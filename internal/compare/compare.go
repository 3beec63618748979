// Package compare implements the cross-country comparison workflow over
// cleaned measurement files.
package compare

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"solarcli/internal/analytics"
	"solarcli/internal/charts"
	"solarcli/internal/dataset"
)

// ErrNoDatasets is returned when every input file failed to load.
var ErrNoDatasets = errors.New("no datasets could be loaded")

// DefaultMetrics are the irradiance metrics compared across datasets.
var DefaultMetrics = []string{dataset.ColGHI, dataset.ColDNI, dataset.ColDHI}

// Input names one cleaned dataset file for the comparison. Inputs are
// processed in order so runs are reproducible.
type Input struct {
	Name string
	Path string
}

// Result holds the outputs of a comparison run.
type Result struct {
	Combined   *dataset.Dataset
	Summaries  []analytics.GroupSummary
	ANOVA      *analytics.TestResult
	Kruskal    *analytics.TestResult
	ChartPaths []string
	// TestMetric is the metric the significance tests ran on.
	TestMetric string
}

// Workflow runs the cross-dataset comparison: combine, boxplots, summary
// table, significance tests, ranking bar chart.
type Workflow struct {
	logger   *slog.Logger
	renderer *charts.Renderer
	metrics  []string
	tracer   trace.Tracer
}

// New creates a comparison workflow. Empty metrics select DefaultMetrics.
func New(logger *slog.Logger, renderer *charts.Renderer, metrics []string) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	if renderer == nil {
		renderer = charts.NewRenderer(logger, charts.Options{})
	}
	if len(metrics) == 0 {
		metrics = DefaultMetrics
	}
	return &Workflow{
		logger:   logger.With(slog.String("component", "compare")),
		renderer: renderer,
		metrics:  metrics,
		tracer:   otel.Tracer("solarcli/compare"),
	}
}

// LoadAndCombine loads every input and concatenates them into one dataset
// labelled by a Country column. A file that fails to load is logged and
// skipped so the batch continues; only when nothing loads is an error
// returned. The combination is a pure append.
func (w *Workflow) LoadAndCombine(ctx context.Context, inputs []Input) (*dataset.Dataset, error) {
	ctx, span := w.tracer.Start(ctx, "compare.load_and_combine",
		trace.WithAttributes(attribute.Int("inputs", len(inputs))))
	defer span.End()

	var combined *dataset.Dataset
	loaded := 0
	for _, in := range inputs {
		ds, err := dataset.Load(in.Path)
		if err != nil {
			w.logger.WarnContext(ctx, "skipping dataset",
				slog.String("name", in.Name),
				slog.String("path", in.Path),
				slog.String("error", err.Error()))
			continue
		}

		labels := make([]string, ds.Len())
		for i := range labels {
			labels[i] = in.Name
		}
		ds = ds.Copy()
		ds.Drop(dataset.ColCountry)
		if err := ds.SetText(dataset.ColCountry, labels); err != nil {
			return nil, fmt.Errorf("label %s: %w", in.Name, err)
		}

		if combined == nil {
			combined = ds
		} else {
			combined, err = combined.Append(ds)
			if err != nil {
				return nil, fmt.Errorf("combine %s: %w", in.Name, err)
			}
		}
		loaded++
		w.logger.InfoContext(ctx, "dataset loaded",
			slog.String("name", in.Name),
			slog.Int("rows", ds.Len()))
	}

	if combined == nil {
		return nil, ErrNoDatasets
	}
	span.SetAttributes(attribute.Int("datasets_loaded", loaded), attribute.Int("rows", combined.Len()))
	combined.Name = "combined"
	return combined, nil
}

// Run executes the full comparison over the inputs, writing charts and the
// summary table into outDir.
func (w *Workflow) Run(ctx context.Context, inputs []Input, outDir string) (*Result, error) {
	ctx, span := w.tracer.Start(ctx, "compare.run")
	defer span.End()

	combined, err := w.LoadAndCombine(ctx, inputs)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	result := &Result{Combined: combined, TestMetric: w.metrics[0]}

	for _, metric := range combined.PresentColumns(w.metrics) {
		path, err := w.renderer.Boxplots(combined, dataset.ColCountry, metric,
			filepath.Join(outDir, fmt.Sprintf("boxplot_%s.png", metric)))
		if err != nil {
			return result, err
		}
		if path != "" {
			result.ChartPaths = append(result.ChartPaths, path)
		}
	}

	primary := result.TestMetric
	if combined.Has(primary) {
		summaries, err := analytics.SummarizeGroups(combined, dataset.ColCountry, primary)
		if err != nil {
			w.logger.WarnContext(ctx, "summary table skipped",
				slog.String("metric", primary),
				slog.String("error", err.Error()))
		} else {
			result.Summaries = summaries
			summaryPath := filepath.Join(outDir, "summary_table.csv")
			if err := WriteSummaryCSV(summaries, primary, summaryPath); err != nil {
				return result, err
			}
			barPath, err := w.renderer.BarMeans(summaries, primary,
				filepath.Join(outDir, fmt.Sprintf("avg_%s_by_country.png", primary)))
			if err != nil {
				return result, err
			}
			if barPath != "" {
				result.ChartPaths = append(result.ChartPaths, barPath)
			}
		}

		w.runTests(ctx, combined, primary, result)
	} else {
		w.logger.WarnContext(ctx, "primary metric absent, skipping summary and tests",
			slog.String("metric", primary))
	}

	return result, nil
}

func (w *Workflow) runTests(ctx context.Context, combined *dataset.Dataset, metric string, result *Result) {
	_, groups, err := analytics.GroupValues(combined, dataset.ColCountry, metric)
	if err != nil {
		w.logger.WarnContext(ctx, "significance tests skipped",
			slog.String("metric", metric),
			slog.String("error", err.Error()))
		return
	}

	if anova, err := analytics.OneWayANOVA(groups); err != nil {
		w.logger.WarnContext(ctx, "ANOVA skipped",
			slog.String("metric", metric),
			slog.String("error", err.Error()))
	} else {
		result.ANOVA = &anova
		w.logger.InfoContext(ctx, "one-way ANOVA",
			slog.String("metric", metric),
			slog.Float64("f_statistic", anova.Statistic),
			slog.Float64("p_value", anova.PValue))
	}

	if kruskal, err := analytics.KruskalWallis(groups); err != nil {
		w.logger.WarnContext(ctx, "Kruskal-Wallis skipped",
			slog.String("metric", metric),
			slog.String("error", err.Error()))
	} else {
		result.Kruskal = &kruskal
		w.logger.InfoContext(ctx, "Kruskal-Wallis",
			slog.String("metric", metric),
			slog.Float64("h_statistic", kruskal.Statistic),
			slog.Float64("p_value", kruskal.PValue))
	}
}

// WriteSummaryCSV persists the grouped summary table, creating the
// destination directory when needed.
func WriteSummaryCSV(summaries []analytics.GroupSummary, metric, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Country", "Metric", "Count", "Mean", "Median", "Std"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range summaries {
		record := []string{
			s.Group,
			metric,
			strconv.Itoa(s.Count),
			strconv.FormatFloat(s.Mean, 'f', 2, 64),
			strconv.FormatFloat(s.Median, 'f', 2, 64),
			strconv.FormatFloat(s.Std, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
