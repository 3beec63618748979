package charts

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"solarcli/internal/dataset"
)

// compassSectors are the 16 wind rose direction sectors, 22.5° each.
var compassSectors = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// speedBin is one wind speed class of the rose.
type speedBin struct {
	label string
	min   float64
	max   float64
}

var speedBins = []speedBin{
	{"0-2 m/s", 0, 2},
	{"2-4 m/s", 2, 4},
	{"4-6 m/s", 4, 6},
	{">6 m/s", 6, math.Inf(1)},
}

// WindRose renders wind direction/speed frequencies as stacked bars over
// the 16 compass sectors, one stack layer per speed class, normalised to
// percent of observations. Skips with a warning when WS or WD is absent.
func (r *Renderer) WindRose(ds *dataset.Dataset, path string) (string, error) {
	ws, okS := ds.Numeric(dataset.ColWS)
	wd, okD := ds.Numeric(dataset.ColWD)
	if !okS || !okD {
		r.logger.Warn("WS or WD column missing, skipping wind rose",
			slog.String("dataset", ds.Name))
		return "", nil
	}

	// counts[bin][sector]
	counts := make([][]float64, len(speedBins))
	for i := range counts {
		counts[i] = make([]float64, len(compassSectors))
	}
	total := 0
	for i := range ws {
		if math.IsNaN(ws[i]) || math.IsNaN(wd[i]) {
			continue
		}
		sector := directionSector(wd[i])
		bin := speedClass(ws[i])
		if bin < 0 {
			continue
		}
		counts[bin][sector]++
		total++
	}
	if total == 0 {
		r.logger.Warn("no valid wind observations, skipping wind rose")
		return "", nil
	}

	p := plot.New()
	p.Title.Text = "Wind Rose (direction and speed)"
	p.Y.Label.Text = "Frequency (%)"

	var prev *plotter.BarChart
	for bi, bin := range speedBins {
		values := make(plotter.Values, len(compassSectors))
		for si := range compassSectors {
			values[si] = counts[bi][si] / float64(total) * 100
		}
		bars, err := plotter.NewBarChart(values, vg.Points(12))
		if err != nil {
			return "", fmt.Errorf("wind rose bin %s: %w", bin.label, err)
		}
		bars.Color = plotutil.Color(bi)
		bars.LineStyle.Width = 0
		if prev != nil {
			bars.StackOn(prev)
		}
		p.Add(bars)
		p.Legend.Add(bin.label, bars)
		prev = bars
	}
	p.NominalX(compassSectors...)
	p.Legend.Top = true

	if err := p.Save(r.opts.Width, r.opts.Height, path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}

// directionSector maps a wind direction in degrees to its compass sector.
func directionSector(deg float64) int {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	sector := int(math.Floor((deg+11.25)/22.5)) % len(compassSectors)
	return sector
}

func speedClass(v float64) int {
	if v < 0 {
		return -1
	}
	for i, bin := range speedBins {
		if v >= bin.min && v < bin.max {
			return i
		}
	}
	return len(speedBins) - 1
}
