// Package charts renders the EDA chart set to PNG files using gonum/plot:
// time series, distribution histograms, correlation heat maps, relationship
// scatter plots, bubble charts, wind roses, comparison boxplots and ranked
// bar charts.
//
// Every renderer checks column presence first and skips with a warning when
// a required column is absent; a missing column is never an error. Styling
// and chart parameters travel in an explicit Options value rather than
// process-global state, and point sampling for dense scatter charts is
// deterministic.
package charts
