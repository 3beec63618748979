package charts

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"

	"solarcli/internal/dataset"
)

// sampleSeed keeps scatter and bubble sampling deterministic across runs.
const sampleSeed = 1

// Renderer renders the EDA chart set to PNG files. Charts whose required
// columns are absent are skipped with a warning, never an error.
type Renderer struct {
	logger *slog.Logger
	opts   Options
}

// NewRenderer creates a renderer with the given options; zero-value option
// fields fall back to defaults.
func NewRenderer(logger *slog.Logger, opts Options) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		logger: logger.With(slog.String("component", "charts")),
		opts:   opts.withDefaults(),
	}
}

// RenderAll renders the full per-dataset chart set into outDir and returns
// the paths of the files written.
func (r *Renderer) RenderAll(ds *dataset.Dataset, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart directory: %w", err)
	}

	var written []string
	add := func(paths []string, err error) error {
		if err != nil {
			return err
		}
		written = append(written, paths...)
		return nil
	}

	if err := add(r.TimeSeries(ds, outDir)); err != nil {
		return written, err
	}
	if err := add(r.Histograms(ds, outDir)); err != nil {
		return written, err
	}
	if err := add(one(r.CorrelationHeatmap(ds, filepath.Join(outDir, "correlation_heatmap.png")))); err != nil {
		return written, err
	}
	if err := add(r.ScatterPairs(ds, outDir)); err != nil {
		return written, err
	}
	if err := add(one(r.Bubble(ds, filepath.Join(outDir, "bubble_ghi_tamb_rh.png")))); err != nil {
		return written, err
	}
	if err := add(one(r.WindRose(ds, filepath.Join(outDir, "wind_rose.png")))); err != nil {
		return written, err
	}
	return written, nil
}

func one(path string, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, nil
	}
	return []string{path}, nil
}

// TimeSeries renders one line chart per configured column against the
// Timestamp column, optionally resampled to daily means. Returns the files
// written; skips silently renderable gaps (missing Timestamp or columns).
func (r *Renderer) TimeSeries(ds *dataset.Dataset, outDir string) ([]string, error) {
	times, ok := ds.Times(dataset.ColTimestamp)
	if !ok {
		r.logger.Warn("timestamp column missing, skipping time series",
			slog.String("dataset", ds.Name))
		return nil, nil
	}

	var written []string
	for _, name := range ds.PresentColumns(r.opts.TimeSeriesColumns) {
		values, _ := ds.Numeric(name)
		pts := timeSeriesPoints(times, values, r.opts.ResampleDaily)
		if len(pts) == 0 {
			r.logger.Warn("no valid points for time series",
				slog.String("column", name))
			continue
		}

		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s Over Time", name)
		p.X.Label.Text = "Date and Time"
		p.Y.Label.Text = name
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
		p.Add(plotter.NewGrid())

		line, err := plotter.NewLine(pts)
		if err != nil {
			return written, fmt.Errorf("time series %s: %w", name, err)
		}
		line.Color = plotutil.Color(0)
		p.Add(line)

		path := filepath.Join(outDir, fmt.Sprintf("timeseries_%s.png", strings.ToLower(name)))
		if err := p.Save(r.opts.Width, r.opts.Height, path); err != nil {
			return written, fmt.Errorf("save %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func timeSeriesPoints(times []time.Time, values []float64, daily bool) plotter.XYs {
	if !daily {
		var pts plotter.XYs
		for i, ts := range times {
			if ts.IsZero() || math.IsNaN(values[i]) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(ts.Unix()), Y: values[i]})
		}
		return pts
	}

	type acc struct {
		sum float64
		n   int
	}
	byDay := make(map[time.Time]*acc)
	for i, ts := range times {
		if ts.IsZero() || math.IsNaN(values[i]) {
			continue
		}
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
		a, ok := byDay[day]
		if !ok {
			a = &acc{}
			byDay[day] = a
		}
		a.sum += values[i]
		a.n++
	}

	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	pts := make(plotter.XYs, 0, len(days))
	for _, day := range days {
		a := byDay[day]
		pts = append(pts, plotter.XY{X: float64(day.Unix()), Y: a.sum / float64(a.n)})
	}
	return pts
}

// Histograms renders distribution histograms for GHI and WS.
func (r *Renderer) Histograms(ds *dataset.Dataset, outDir string) ([]string, error) {
	var written []string
	for _, name := range ds.PresentColumns([]string{dataset.ColGHI, dataset.ColWS}) {
		values, _ := ds.Numeric(name)
		valid := dropNaN(values)
		if len(valid) == 0 {
			r.logger.Warn("no valid values for histogram", slog.String("column", name))
			continue
		}

		p := plot.New()
		p.Title.Text = fmt.Sprintf("Distribution of %s", name)
		p.X.Label.Text = name
		p.Y.Label.Text = "Count"

		hist, err := plotter.NewHist(plotter.Values(valid), r.opts.HistogramBins)
		if err != nil {
			return written, fmt.Errorf("histogram %s: %w", name, err)
		}
		hist.FillColor = plotutil.Color(0)
		p.Add(hist)

		path := filepath.Join(outDir, fmt.Sprintf("hist_%s.png", strings.ToLower(name)))
		if err := p.Save(r.opts.Width, r.opts.Height, path); err != nil {
			return written, fmt.Errorf("save %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// sampleRows returns up to n deterministic row indices with both columns
// valid.
func sampleRows(x, y []float64, n int) []int {
	var valid []int
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		valid = append(valid, i)
	}
	if len(valid) <= n {
		return valid
	}
	rng := rand.New(rand.NewSource(sampleSeed))
	rng.Shuffle(len(valid), func(i, j int) { valid[i], valid[j] = valid[j], valid[i] })
	valid = valid[:n]
	sort.Ints(valid)
	return valid
}

func dropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
