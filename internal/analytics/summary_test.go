package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarcli/internal/dataset"
)

func TestDescribe(t *testing.T) {
	nan := math.NaN()
	ds := dataset.New("describe")
	require.NoError(t, ds.SetNumeric(dataset.ColGHI, []float64{10, 20, 30, 40, nan}))

	summaries := Describe(ds, []string{dataset.ColGHI, dataset.ColDHI})
	require.Len(t, summaries, 1, "absent DHI skipped")

	s := summaries[0]
	assert.Equal(t, dataset.ColGHI, s.Column)
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 1, s.Missing)
	assert.InDelta(t, 25, s.Mean, 1e-9)
	assert.Equal(t, 10.0, s.Min)
	assert.Equal(t, 40.0, s.Max)
	assert.InDelta(t, 25, s.Median, 1e-9)
}

func TestDescribeAllMissing(t *testing.T) {
	nan := math.NaN()
	ds := dataset.New("describe")
	require.NoError(t, ds.SetNumeric(dataset.ColModB, []float64{nan, nan}))

	summaries := Describe(ds, nil)
	require.Len(t, summaries, 1)
	assert.Equal(t, 0, summaries[0].Count)
	assert.True(t, math.IsNaN(summaries[0].Mean))
}

func TestMissingReport(t *testing.T) {
	nan := math.NaN()
	ds := dataset.New("missing")
	require.NoError(t, ds.SetNumeric(dataset.ColGHI, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}))
	require.NoError(t, ds.SetNumeric(dataset.ColModA, []float64{1, nan, 3, nan, 5, 6, 7, 8, 9, 10}))

	report := Missing(ds)
	assert.Equal(t, 10, report.Rows)
	require.Len(t, report.Entries, 2)
	assert.Equal(t, 0, report.Entries[0].Missing)
	assert.Equal(t, 2, report.Entries[1].Missing)
	assert.InDelta(t, 20, report.Entries[1].Percent, 1e-9)

	// Only ModA crosses the 5% highlight threshold.
	require.Len(t, report.HighNull, 1)
	assert.Equal(t, dataset.ColModA, report.HighNull[0].Column)
}

func TestSummarizeGroups(t *testing.T) {
	ds := dataset.New("combined")
	require.NoError(t, ds.SetNumeric(dataset.ColGHI, []float64{100, 200, 300, 500, 600, 700}))
	require.NoError(t, ds.SetText(dataset.ColCountry, []string{
		"Benin", "Benin", "Benin", "Togo", "Togo", "Togo",
	}))

	summaries, err := SummarizeGroups(ds, dataset.ColCountry, dataset.ColGHI)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Sorted by mean descending.
	assert.Equal(t, "Togo", summaries[0].Group)
	assert.InDelta(t, 600, summaries[0].Mean, 1e-9)
	assert.InDelta(t, 600, summaries[0].Median, 1e-9)
	assert.Equal(t, "Benin", summaries[1].Group)
	assert.InDelta(t, 200, summaries[1].Mean, 1e-9)
}

func TestSummarizeGroupsMissingColumn(t *testing.T) {
	ds := dataset.New("combined")
	require.NoError(t, ds.SetNumeric(dataset.ColGHI, []float64{1, 2}))

	_, err := SummarizeGroups(ds, dataset.ColCountry, dataset.ColGHI)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestGroupValues(t *testing.T) {
	nan := math.NaN()
	ds := dataset.New("combined")
	require.NoError(t, ds.SetNumeric(dataset.ColGHI, []float64{1, nan, 3, 4}))
	require.NoError(t, ds.SetText(dataset.ColCountry, []string{"A", "A", "B", "B"}))

	labels, groups, err := GroupValues(ds, dataset.ColCountry, dataset.ColGHI)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, labels)
	assert.Equal(t, [][]float64{{1}, {3, 4}}, groups)
}
