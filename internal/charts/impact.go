package charts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"

	"solarcli/internal/dataset"
)

// impactColumns are the module sensor readings shown before and after
// cleaning.
var impactColumns = []string{dataset.ColModA, dataset.ColModB}

// CleaningImpact renders the daily-average ModA and ModB series of the raw
// and cleaned datasets as overlaid lines, one chart per column, so the
// effect of outlier removal on the sensor readings is visible. File names
// are prefixed with the raw dataset's name when it has one. Missing columns
// are skipped with a warning, never an error.
func (r *Renderer) CleaningImpact(raw, cleaned *dataset.Dataset, outDir string) ([]string, error) {
	rawTimes, ok := raw.Times(dataset.ColTimestamp)
	if !ok {
		r.logger.Warn("timestamp column missing, skipping cleaning impact charts",
			slog.String("dataset", raw.Name))
		return nil, nil
	}
	cleanTimes, ok := cleaned.Times(dataset.ColTimestamp)
	if !ok {
		cleanTimes = rawTimes
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart directory: %w", err)
	}

	var written []string
	for _, name := range raw.PresentColumns(impactColumns) {
		if !cleaned.Has(name) {
			continue
		}
		rawValues, _ := raw.Numeric(name)
		cleanValues, _ := cleaned.Numeric(name)
		rawPts := timeSeriesPoints(rawTimes, rawValues, true)
		cleanPts := timeSeriesPoints(cleanTimes, cleanValues, true)
		if len(rawPts) == 0 || len(cleanPts) == 0 {
			r.logger.Warn("no valid points for cleaning impact chart",
				slog.String("column", name))
			continue
		}

		p := plot.New()
		p.Title.Text = fmt.Sprintf("Daily Average %s Before and After Cleaning", name)
		p.X.Label.Text = "Date"
		p.Y.Label.Text = name
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
		p.Add(plotter.NewGrid())

		if err := plotutil.AddLines(p, "Raw", rawPts, "Cleaned", cleanPts); err != nil {
			return written, fmt.Errorf("cleaning impact %s: %w", name, err)
		}

		file := fmt.Sprintf("cleaning_impact_%s.png", strings.ToLower(name))
		if raw.Name != "" {
			file = raw.Name + "_" + file
		}
		path := filepath.Join(outDir, file)
		if err := p.Save(r.opts.Width, r.opts.Height, path); err != nil {
			return written, fmt.Errorf("save %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
