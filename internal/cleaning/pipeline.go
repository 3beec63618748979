package cleaning

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/stat"

	"solarcli/internal/dataset"
)

// FlagColumn is the name of the transient boolean outlier column added by
// FlagOutliers and removed again before persistence.
const FlagColumn = "OutlierFlag"

// DefaultThreshold is the |z| cutoff above which a cell marks its row as an
// outlier.
const DefaultThreshold = 3.0

// DefaultCandidateColumns are the measurement columns checked for outliers
// when the caller does not configure its own list.
var DefaultCandidateColumns = []string{
	dataset.ColGHI, dataset.ColDNI, dataset.ColDHI,
	dataset.ColModA, dataset.ColModB,
	dataset.ColWS, dataset.ColWSgust,
}

// Config holds pipeline options.
type Config struct {
	// Threshold is the |z| cutoff; zero selects DefaultThreshold.
	Threshold float64
	// CandidateColumns are the columns checked for outliers; empty selects
	// DefaultCandidateColumns. Only columns present in a dataset are used.
	CandidateColumns []string
}

// Pipeline implements the outlier-flag-and-impute procedure. All methods are
// value-in/value-out: the input dataset is never mutated.
type Pipeline struct {
	logger     *slog.Logger
	threshold  float64
	candidates []string
	tracer     trace.Tracer
}

// New creates a pipeline with the given configuration.
func New(logger *slog.Logger, cfg Config) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	candidates := cfg.CandidateColumns
	if len(candidates) == 0 {
		candidates = DefaultCandidateColumns
	}
	return &Pipeline{
		logger:     logger.With(slog.String("component", "cleaning")),
		threshold:  threshold,
		candidates: candidates,
		tracer:     otel.Tracer("solarcli/cleaning"),
	}
}

// FlagOutliers returns a copy of ds with the FlagColumn boolean column
// appended. A row is flagged when, for at least one present candidate
// column, the magnitude of its z-score exceeds the threshold.
//
// Per column the z-score uses the mean and sample standard deviation over
// all rows of that column (skipping missing values); this deliberately is
// not a robust estimator, so the statistics are themselves influenced by
// the outliers being detected. A column with zero or undefined standard
// deviation (constant or empty column) never contributes a flag. If no
// candidate column is present every row is flagged false.
//
// Flagging is deterministic: identical inputs produce identical flags.
func (p *Pipeline) FlagOutliers(ctx context.Context, ds *dataset.Dataset) *dataset.Dataset {
	ctx, span := p.tracer.Start(ctx, "cleaning.flag_outliers",
		trace.WithAttributes(
			attribute.String("dataset", ds.Name),
			attribute.Int("rows", ds.Len()),
		))
	defer span.End()

	out := ds.Copy()
	out.Drop(FlagColumn)
	flags := make([]bool, out.Len())

	present := out.PresentColumns(p.candidates)
	p.logger.InfoContext(ctx, "flagging outliers",
		slog.String("dataset", ds.Name),
		slog.Any("columns", present),
		slog.Float64("threshold", p.threshold))

	for _, name := range present {
		values, _ := out.Numeric(name)
		mean, std := momentsSkipNaN(values)
		if std == 0 || math.IsNaN(std) {
			p.logger.DebugContext(ctx, "column has undefined z-scores, skipping",
				slog.String("column", name))
			continue
		}
		for i, v := range values {
			if math.IsNaN(v) {
				continue
			}
			if math.Abs((v-mean)/std) > p.threshold {
				flags[i] = true
			}
		}
	}

	flagged := 0
	for _, f := range flags {
		if f {
			flagged++
		}
	}
	span.SetAttributes(attribute.Int("rows_flagged", flagged))
	p.logger.InfoContext(ctx, "outlier flagging complete",
		slog.String("dataset", ds.Name),
		slog.Int("rows_flagged", flagged))

	// Drop above guarantees the column is free.
	_ = out.SetBool(FlagColumn, flags)
	return out
}

// CleanAndImpute returns a copy of ds with outlier cells replaced and
// remaining missing values imputed in the given columns. Columns absent from
// the dataset are skipped.
//
// Step 1 replaces every flagged cell with the column median computed over
// non-flagged rows (skipping missing values). If every row is flagged the
// median is undefined and replacement is skipped for that column rather
// than propagating NaN.
//
// Step 2 recomputes the median over the full post-replacement column and
// fills any remaining missing cells with it. A column with no valid values
// at all is left untouched.
//
// If ds carries no flag column, step 1 is a no-op and only missing values
// are imputed.
func (p *Pipeline) CleanAndImpute(ctx context.Context, ds *dataset.Dataset, imputeColumns []string) *dataset.Dataset {
	ctx, span := p.tracer.Start(ctx, "cleaning.clean_and_impute",
		trace.WithAttributes(
			attribute.String("dataset", ds.Name),
			attribute.Int("rows", ds.Len()),
		))
	defer span.End()

	out := ds.Copy()
	flags, hasFlags := out.Bools(FlagColumn)
	present := out.PresentColumns(imputeColumns)

	p.logger.InfoContext(ctx, "cleaning and imputing",
		slog.String("dataset", ds.Name),
		slog.Any("columns", present),
		slog.Bool("has_flags", hasFlags))

	if hasFlags && anyTrue(flags) {
		for _, name := range present {
			values, _ := out.Numeric(name)
			median, ok := medianSkipNaN(values, func(i int) bool { return !flags[i] })
			if !ok {
				p.logger.WarnContext(ctx, "all rows flagged, skipping outlier replacement",
					slog.String("column", name))
				continue
			}
			for i := range values {
				if flags[i] {
					values[i] = median
				}
			}
		}
	}

	for _, name := range present {
		values, _ := out.Numeric(name)
		median, ok := medianSkipNaN(values, nil)
		if !ok {
			p.logger.WarnContext(ctx, "column has no valid values, skipping imputation",
				slog.String("column", name))
			continue
		}
		for i, v := range values {
			if math.IsNaN(v) {
				values[i] = median
			}
		}
	}

	return out
}

// SaveCleaned drops the transient flag column if present and writes the
// dataset as CSV to path, creating the destination directory when needed.
// Write failures are surfaced to the caller.
func (p *Pipeline) SaveCleaned(ctx context.Context, ds *dataset.Dataset, path string) error {
	ctx, span := p.tracer.Start(ctx, "cleaning.save_cleaned",
		trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	out := ds
	if ds.Has(FlagColumn) {
		out = ds.Copy()
		out.Drop(FlagColumn)
	}
	if err := dataset.WriteCSV(out, path); err != nil {
		return fmt.Errorf("save cleaned dataset %q: %w", ds.Name, err)
	}
	p.logger.InfoContext(ctx, "cleaned dataset saved",
		slog.String("dataset", ds.Name),
		slog.String("path", path),
		slog.Int("rows", out.Len()))
	return nil
}

// Run executes the full pipeline: flag, clean and impute, persist. The
// returned dataset still carries the flag column for inspection; the
// persisted file does not.
func (p *Pipeline) Run(ctx context.Context, ds *dataset.Dataset, imputeColumns []string, outPath string) (*dataset.Dataset, error) {
	flagged := p.FlagOutliers(ctx, ds)
	cleaned := p.CleanAndImpute(ctx, flagged, imputeColumns)
	if outPath != "" {
		if err := p.SaveCleaned(ctx, cleaned, outPath); err != nil {
			return nil, err
		}
	}
	return cleaned, nil
}

// momentsSkipNaN returns the mean and sample standard deviation over the
// non-NaN values. With fewer than two valid values the deviation is NaN.
func momentsSkipNaN(values []float64) (mean, std float64) {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return math.NaN(), math.NaN()
	}
	mean = stat.Mean(valid, nil)
	if len(valid) < 2 {
		return mean, math.NaN()
	}
	return mean, stat.StdDev(valid, nil)
}

// medianSkipNaN computes the median of the values for which keep returns
// true (keep == nil keeps all rows), skipping NaN cells. ok is false when no
// valid value remains.
func medianSkipNaN(values []float64, keep func(i int) bool) (median float64, ok bool) {
	valid := make([]float64, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if keep != nil && !keep(i) {
			continue
		}
		valid = append(valid, v)
	}
	if len(valid) == 0 {
		return 0, false
	}
	sort.Float64s(valid)
	n := len(valid)
	if n%2 == 1 {
		return valid[n/2], true
	}
	return (valid[n/2-1] + valid[n/2]) / 2, true
}

func anyTrue(flags []bool) bool {
	for _, f := range flags {
		if f {
			return true
		}
	}
	return false
}
