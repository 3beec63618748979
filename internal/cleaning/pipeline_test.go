package cleaning

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarcli/internal/dataset"
)

func newTestDataset(t *testing.T, cols map[string][]float64) *dataset.Dataset {
	t.Helper()
	ds := dataset.New("test")
	// Insert in sorted order for reproducible column layout.
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		require.NoError(t, ds.SetNumeric(name, cols[name]))
	}
	return ds
}

func spikedGHI() []float64 {
	// 100 values in range 100-1000 with a single extreme spike.
	values := make([]float64, 100)
	for i := range values {
		values[i] = 100 + float64(i*9)
	}
	values[42] = 100000
	return values
}

func TestFlagOutliersDeterministic(t *testing.T) {
	ds := newTestDataset(t, map[string][]float64{
		dataset.ColGHI: spikedGHI(),
	})
	p := New(slog.Default(), Config{})

	first := p.FlagOutliers(context.Background(), ds)
	second := p.FlagOutliers(context.Background(), ds)

	f1, ok := first.Bools(FlagColumn)
	require.True(t, ok)
	f2, ok := second.Bools(FlagColumn)
	require.True(t, ok)
	assert.Equal(t, f1, f2)
}

func TestFlagOutliersDoesNotMutateInput(t *testing.T) {
	ds := newTestDataset(t, map[string][]float64{
		dataset.ColGHI: spikedGHI(),
	})
	p := New(slog.Default(), Config{})

	out := p.FlagOutliers(context.Background(), ds)

	assert.False(t, ds.Has(FlagColumn))
	assert.True(t, out.Has(FlagColumn))
}

func TestFlagOutliersSpikeFlagged(t *testing.T) {
	ds := newTestDataset(t, map[string][]float64{
		dataset.ColGHI: spikedGHI(),
	})
	p := New(slog.Default(), Config{})

	out := p.FlagOutliers(context.Background(), ds)
	flags, ok := out.Bools(FlagColumn)
	require.True(t, ok)

	assert.True(t, flags[42], "spiked row must be flagged")
	for i, f := range flags {
		if i != 42 {
			assert.False(t, f, "row %d must not be flagged", i)
		}
	}
}

func TestFlagOutliersConstantColumn(t *testing.T) {
	constant := make([]float64, 50)
	for i := range constant {
		constant[i] = 42.5
	}
	ds := newTestDataset(t, map[string][]float64{
		dataset.ColGHI: constant,
	})
	p := New(slog.Default(), Config{})

	out := p.FlagOutliers(context.Background(), ds)
	flags, _ := out.Bools(FlagColumn)
	for i, f := range flags {
		assert.False(t, f, "constant column flagged row %d", i)
	}
}

func TestFlagOutliersAbsentCandidate(t *testing.T) {
	// Candidate list includes DHI which the dataset does not carry.
	ds := newTestDataset(t, map[string][]float64{
		dataset.ColGHI: spikedGHI(),
	})
	p := New(slog.Default(), Config{
		CandidateColumns: []string{dataset.ColGHI, dataset.ColDHI},
	})

	out := p.FlagOutliers(context.Background(), ds)
	flags, ok := out.Bools(FlagColumn)
	require.True(t, ok)
	assert.True(t, flags[42])
}

func TestFlagOutliersNoCandidatesPresent(t *testing.T) {
	ds := newTestDataset(t, map[string][]float64{
		"Pressure": {1010, 1011, 1009, 1012},
	})
	p := New(slog.Default(), Config{})

	out := p.FlagOutliers(context.Background(), ds)
	flags, ok := out.Bools(FlagColumn)
	require.True(t, ok)
	for _, f := range flags {
		assert.False(t, f)
	}
}

func TestCleanAndImputeReplacesSpikeWithMedian(t *testing.T) {
	values := spikedGHI()
	ds := newTestDataset(t, map[string][]float64{
		dataset.ColGHI: values,
	})
	p := New(slog.Default(), Config{})
	ctx := context.Background()

	cleaned := p.CleanAndImpute(ctx, p.FlagOutliers(ctx, ds), []string{dataset.ColGHI})

	// Median of the 99 non-flagged values.
	rest := make([]float64, 0, 99)
	for i, v := range values {
		if i != 42 {
			rest = append(rest, v)
		}
	}
	sort.Float64s(rest)
	wantMedian := rest[len(rest)/2]

	got, _ := cleaned.Numeric(dataset.ColGHI)
	assert.InDelta(t, wantMedian, got[42], 1e-9)
}

func TestCleanAndImputeFillsMissing(t *testing.T) {
	nan := math.NaN()
	values := []float64{10, 20, nan, 30, nan, 40, 50, nan}
	ds := newTestDataset(t, map[string][]float64{
		dataset.ColModA: values,
	})
	p := New(slog.Default(), Config{})
	ctx := context.Background()

	cleaned := p.CleanAndImpute(ctx, p.FlagOutliers(ctx, ds), []string{dataset.ColModA})

	got, _ := cleaned.Numeric(dataset.ColModA)
	for i, v := range got {
		assert.False(t, math.IsNaN(v), "row %d still missing", i)
	}
	// Median of {10,20,30,40,50} = 30 fills the three gaps.
	assert.Equal(t, 30.0, got[2])
	assert.Equal(t, 30.0, got[4])
	assert.Equal(t, 30.0, got[7])
}

func TestCleanAndImputeAllRowsFlagged(t *testing.T) {
	ds := newTestDataset(t, map[string][]float64{
		dataset.ColGHI: {100, 200, 300},
	})
	require.NoError(t, ds.SetBool(FlagColumn, []bool{true, true, true}))
	p := New(slog.Default(), Config{})

	cleaned := p.CleanAndImpute(context.Background(), ds, []string{dataset.ColGHI})

	// Undefined replacement median: values stay untouched.
	got, _ := cleaned.Numeric(dataset.ColGHI)
	assert.Equal(t, []float64{100, 200, 300}, got)
}

func TestCleanAndImputeWithoutFlagColumn(t *testing.T) {
	nan := math.NaN()
	ds := newTestDataset(t, map[string][]float64{
		dataset.ColGHI: {1, 2, nan, 4},
	})
	p := New(slog.Default(), Config{})

	cleaned := p.CleanAndImpute(context.Background(), ds, []string{dataset.ColGHI})

	got, _ := cleaned.Numeric(dataset.ColGHI)
	assert.Equal(t, 2.0, got[2], "median of {1,2,4}")
}

func TestCleanAndImputeAllNaNColumn(t *testing.T) {
	nan := math.NaN()
	ds := newTestDataset(t, map[string][]float64{
		dataset.ColGHI: {nan, nan, nan},
	})
	p := New(slog.Default(), Config{})
	ctx := context.Background()

	cleaned := p.CleanAndImpute(ctx, p.FlagOutliers(ctx, ds), []string{dataset.ColGHI})

	got, _ := cleaned.Numeric(dataset.ColGHI)
	for _, v := range got {
		assert.True(t, math.IsNaN(v), "nothing to impute from")
	}
}

func TestCleaningReducesExtremeRows(t *testing.T) {
	ds := newTestDataset(t, map[string][]float64{
		dataset.ColGHI: spikedGHI(),
	})
	p := New(slog.Default(), Config{})
	ctx := context.Background()

	before := countFlagged(p.FlagOutliers(ctx, ds))
	cleaned := p.CleanAndImpute(ctx, p.FlagOutliers(ctx, ds), []string{dataset.ColGHI})
	after := countFlagged(p.FlagOutliers(ctx, cleaned))

	assert.LessOrEqual(t, after, before)
	assert.Equal(t, 1, before)
}

func TestPipelineIdempotentOnCleanData(t *testing.T) {
	ds := newTestDataset(t, map[string][]float64{
		dataset.ColGHI: spikedGHI(),
	})
	p := New(slog.Default(), Config{})
	ctx := context.Background()

	first := p.CleanAndImpute(ctx, p.FlagOutliers(ctx, ds), []string{dataset.ColGHI})
	second := p.CleanAndImpute(ctx, p.FlagOutliers(ctx, first), []string{dataset.ColGHI})

	v1, _ := first.Numeric(dataset.ColGHI)
	v2, _ := second.Numeric(dataset.ColGHI)
	assert.Equal(t, v1, v2, "second pass must change no values")
}

func TestSaveCleanedRoundTrip(t *testing.T) {
	ds := newTestDataset(t, map[string][]float64{
		dataset.ColGHI:  spikedGHI(),
		dataset.ColTamb: constantSlice(100, 25.5),
	})
	p := New(slog.Default(), Config{})
	ctx := context.Background()

	cleaned := p.CleanAndImpute(ctx, p.FlagOutliers(ctx, ds), []string{dataset.ColGHI})
	require.True(t, cleaned.Has(FlagColumn))

	path := filepath.Join(t.TempDir(), "out", "test_clean.csv")
	require.NoError(t, p.SaveCleaned(ctx, cleaned, path))

	reloaded, err := dataset.LoadCSV(path)
	require.NoError(t, err)

	assert.False(t, reloaded.Has(FlagColumn), "flag column must not be persisted")
	want, _ := cleaned.Numeric(dataset.ColGHI)
	got, ok := reloaded.Numeric(dataset.ColGHI)
	require.True(t, ok)
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9)
	}
}

func TestSaveCleanedBadDestination(t *testing.T) {
	ds := newTestDataset(t, map[string][]float64{
		dataset.ColGHI: {1, 2, 3},
	})
	p := New(slog.Default(), Config{})

	err := p.SaveCleaned(context.Background(), ds, string([]byte{0}))
	assert.Error(t, err)
}

func countFlagged(ds *dataset.Dataset) int {
	flags, ok := ds.Bools(FlagColumn)
	if !ok {
		return 0
	}
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

func constantSlice(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
