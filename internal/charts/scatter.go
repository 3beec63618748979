package charts

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"solarcli/internal/dataset"
)

// ScatterPairs renders the configured relationship scatter plots on a
// deterministic sample of rows. Pairs with a missing column are skipped
// with a warning.
func (r *Renderer) ScatterPairs(ds *dataset.Dataset, outDir string) ([]string, error) {
	var written []string
	for _, pair := range r.opts.ScatterPairs {
		xName, yName := pair[0], pair[1]
		x, okX := ds.Numeric(xName)
		y, okY := ds.Numeric(yName)
		if !okX || !okY {
			r.logger.Warn("scatter pair column missing, skipping",
				slog.String("x", xName), slog.String("y", yName))
			continue
		}

		rows := sampleRows(x, y, r.opts.ScatterSampleSize)
		if len(rows) == 0 {
			r.logger.Warn("no complete rows for scatter pair",
				slog.String("x", xName), slog.String("y", yName))
			continue
		}
		pts := make(plotter.XYs, len(rows))
		for i, row := range rows {
			pts[i] = plotter.XY{X: x[row], Y: y[row]}
		}

		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s vs. %s", yName, xName)
		p.X.Label.Text = xName
		p.Y.Label.Text = yName
		p.Add(plotter.NewGrid())

		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return written, fmt.Errorf("scatter %s vs %s: %w", yName, xName, err)
		}
		sc.GlyphStyle.Radius = vg.Points(1.5)
		sc.GlyphStyle.Color = plotutil.Color(0)
		p.Add(sc)

		path := filepath.Join(outDir, fmt.Sprintf("scatter_%s_vs_%s.png",
			strings.ToLower(yName), strings.ToLower(xName)))
		if err := p.Save(r.opts.Width, r.opts.Height, path); err != nil {
			return written, fmt.Errorf("save %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// Bubble renders GHI vs Tamb with bubble radius and colour proportional to
// relative humidity. Returns an empty path when a required column is
// missing.
func (r *Renderer) Bubble(ds *dataset.Dataset, path string) (string, error) {
	tamb, okT := ds.Numeric(dataset.ColTamb)
	ghi, okG := ds.Numeric(dataset.ColGHI)
	rh, okR := ds.Numeric(dataset.ColRH)
	if !okT || !okG || !okR {
		r.logger.Warn("bubble chart columns missing, skipping",
			slog.String("dataset", ds.Name))
		return "", nil
	}

	rows := sampleRows(tamb, ghi, r.opts.ScatterSampleSize)
	if len(rows) == 0 {
		r.logger.Warn("no complete rows for bubble chart")
		return "", nil
	}

	maxRH := 0.0
	for _, row := range rows {
		if v := rh[row]; v == v && v > maxRH { // v == v filters NaN
			maxRH = v
		}
	}

	pts := make(plotter.XYs, len(rows))
	sizes := make([]float64, len(rows))
	for i, row := range rows {
		pts[i] = plotter.XY{X: tamb[row], Y: ghi[row]}
		if maxRH > 0 && rh[row] == rh[row] {
			sizes[i] = rh[row] / maxRH
		} else {
			sizes[i] = 0.1
		}
	}

	p := plot.New()
	p.Title.Text = "GHI vs. Tamb (bubble size = RH)"
	p.X.Label.Text = "Ambient Temperature (Tamb)"
	p.Y.Label.Text = "Global Horizontal Irradiance (GHI)"
	p.Add(plotter.NewGrid())

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return "", fmt.Errorf("bubble chart: %w", err)
	}
	cmap := moreland.ExtendedBlackBody()
	cmap.SetMin(0)
	cmap.SetMax(1)
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		c, cerr := cmap.At(sizes[i])
		if cerr != nil {
			c = plotutil.Color(0)
		}
		return draw.GlyphStyle{
			Color:  c,
			Radius: vg.Points(1 + 4*sizes[i]),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(sc)

	if err := p.Save(r.opts.Width, r.opts.Height, path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}
