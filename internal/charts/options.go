package charts

import (
	"gonum.org/v1/plot/vg"

	"solarcli/internal/dataset"
)

// Options configures the rendering surface. Styling is passed here
// rather than held in process-global state.
type Options struct {
	// Width and Height of rendered charts.
	Width  vg.Length
	Height vg.Length

	// TimeSeriesColumns are rendered against the Timestamp column.
	TimeSeriesColumns []string
	// ResampleDaily averages time series to daily granularity before
	// rendering.
	ResampleDaily bool

	// ScatterPairs are the (x, y) relationship plots to render.
	ScatterPairs [][2]string
	// ScatterSampleSize caps the number of points in scatter and bubble
	// charts. Sampling is deterministic.
	ScatterSampleSize int

	// HistogramBins controls distribution histograms.
	HistogramBins int

	// CorrelationColumns feed the correlation heatmap.
	CorrelationColumns []string
}

// DefaultOptions returns the standard EDA chart configuration.
func DefaultOptions() Options {
	return Options{
		Width:             8 * vg.Inch,
		Height:            5 * vg.Inch,
		TimeSeriesColumns: []string{dataset.ColGHI, dataset.ColDNI, dataset.ColDHI, dataset.ColTamb},
		ScatterPairs: [][2]string{
			{dataset.ColWS, dataset.ColGHI},
			{dataset.ColWSgust, dataset.ColGHI},
			{dataset.ColWD, dataset.ColGHI},
			{dataset.ColRH, dataset.ColTamb},
			{dataset.ColRH, dataset.ColGHI},
		},
		ScatterSampleSize:  5000,
		HistogramBins:      50,
		CorrelationColumns: []string{dataset.ColGHI, dataset.ColDNI, dataset.ColDHI, dataset.ColTModA, dataset.ColTModB},
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if len(o.TimeSeriesColumns) == 0 {
		o.TimeSeriesColumns = d.TimeSeriesColumns
	}
	if len(o.ScatterPairs) == 0 {
		o.ScatterPairs = d.ScatterPairs
	}
	if o.ScatterSampleSize <= 0 {
		o.ScatterSampleSize = d.ScatterSampleSize
	}
	if o.HistogramBins <= 0 {
		o.HistogramBins = d.HistogramBins
	}
	if len(o.CorrelationColumns) == 0 {
		o.CorrelationColumns = d.CorrelationColumns
	}
	return o
}
