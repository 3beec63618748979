package charts

import (
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"

	"solarcli/internal/analytics"
	"solarcli/internal/dataset"
)

// corrGrid adapts a correlation matrix to the plotter heat map interface.
type corrGrid struct {
	cols   []string
	matrix [][]float64
}

func (g corrGrid) Dims() (c, r int)   { return len(g.cols), len(g.cols) }
func (g corrGrid) Z(c, r int) float64 { return g.matrix[r][c] }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

// CorrelationHeatmap renders the Pearson correlation heat map over the
// configured columns. With fewer than two present columns the chart is
// skipped with a notice.
func (r *Renderer) CorrelationHeatmap(ds *dataset.Dataset, path string) (string, error) {
	cols, matrix, err := analytics.CorrelationMatrix(ds, r.opts.CorrelationColumns)
	if err != nil {
		if errors.Is(err, analytics.ErrInsufficientColumns) {
			r.logger.Warn("not enough columns for correlation heatmap, skipping",
				slog.String("dataset", ds.Name))
			return "", nil
		}
		return "", err
	}

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)

	p := plot.New()
	p.Title.Text = "Correlation Heatmap"
	hm := plotter.NewHeatMap(corrGrid{cols: cols, matrix: matrix}, cmap.Palette(255))
	hm.Min = -1
	hm.Max = 1
	p.Add(hm)

	ticks := make([]plot.Tick, len(cols))
	for i, name := range cols {
		ticks[i] = plot.Tick{Value: float64(i), Label: name}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)

	if err := p.Save(r.opts.Width, r.opts.Height, path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}
