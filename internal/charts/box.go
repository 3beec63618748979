package charts

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"solarcli/internal/analytics"
	"solarcli/internal/dataset"
)

// Boxplots renders one box per group for the metric over a combined
// dataset (rows labelled by groupColumn). Skips with a warning when the
// metric or label column is absent or empty.
func (r *Renderer) Boxplots(ds *dataset.Dataset, groupColumn, metric, path string) (string, error) {
	labels, groups, err := analytics.GroupValues(ds, groupColumn, metric)
	if err != nil || len(labels) == 0 {
		r.logger.Warn("no data for boxplot, skipping",
			slog.String("metric", metric),
			slog.String("group_column", groupColumn))
		return "", nil
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Distribution of %s", metric)
	p.Y.Label.Text = fmt.Sprintf("%s (W/m²)", metric)

	for i, g := range groups {
		if len(g) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(40), float64(i), plotter.Values(g))
		if err != nil {
			return "", fmt.Errorf("boxplot %s/%s: %w", metric, labels[i], err)
		}
		box.FillColor = plotutil.Color(i)
		p.Add(box)
	}
	p.NominalX(labels...)

	if err := p.Save(r.opts.Width, r.opts.Height, path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}

// BarMeans renders a bar chart of group means ranked descending, the
// "average GHI by country" view.
func (r *Renderer) BarMeans(summaries []analytics.GroupSummary, metric, path string) (string, error) {
	if len(summaries) == 0 {
		r.logger.Warn("no summaries for bar chart, skipping",
			slog.String("metric", metric))
		return "", nil
	}

	means := make(plotter.Values, len(summaries))
	labels := make([]string, len(summaries))
	for i, s := range summaries {
		means[i] = s.Mean
		labels[i] = s.Group
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Average %s by %s", metric, dataset.ColCountry)
	p.Y.Label.Text = fmt.Sprintf("Average %s (W/m²)", metric)

	bars, err := plotter.NewBarChart(means, vg.Points(30))
	if err != nil {
		return "", fmt.Errorf("bar chart %s: %w", metric, err)
	}
	bars.Color = plotutil.Color(2)
	p.Add(bars)
	p.NominalX(labels...)

	if err := p.Save(r.opts.Width, r.opts.Height, path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}
