package charts

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarcli/internal/dataset"
)

func moduleStation(t *testing.T, rows int, spikeEvery int) *dataset.Dataset {
	t.Helper()
	ds := dataset.New("station")

	times := make([]time.Time, rows)
	modA := make([]float64, rows)
	modB := make([]float64, rows)
	base := time.Date(2021, 8, 9, 0, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		times[i] = base.Add(time.Duration(i) * time.Hour)
		modA[i] = 400 + float64(i%7)
		modB[i] = 390 + float64(i%5)
		if spikeEvery > 0 && i%spikeEvery == 0 {
			modA[i] = 5000
		}
	}
	require.NoError(t, ds.SetTime(dataset.ColTimestamp, times))
	require.NoError(t, ds.SetNumeric(dataset.ColModA, modA))
	require.NoError(t, ds.SetNumeric(dataset.ColModB, modB))
	return ds
}

func TestCleaningImpact(t *testing.T) {
	raw := moduleStation(t, 96, 24)
	cleaned := moduleStation(t, 96, 0)
	r := NewRenderer(slog.Default(), Options{})
	outDir := t.TempDir()

	written, err := r.CleaningImpact(raw, cleaned, outDir)
	require.NoError(t, err)
	require.Len(t, written, 2)
	assert.Equal(t, filepath.Join(outDir, "station_cleaning_impact_moda.png"), written[0])
	assert.Equal(t, filepath.Join(outDir, "station_cleaning_impact_modb.png"), written[1])
	for _, path := range written {
		assertPNG(t, path)
	}
}

func TestCleaningImpactSkipsWithoutModuleColumns(t *testing.T) {
	raw := sampleStation(t, 48)
	cleaned := sampleStation(t, 48)
	r := NewRenderer(slog.Default(), Options{})

	written, err := r.CleaningImpact(raw, cleaned, t.TempDir())
	require.NoError(t, err, "missing module columns are a skip, not an error")
	assert.Empty(t, written)
}

func TestCleaningImpactSkipsWithoutTimestamp(t *testing.T) {
	raw := dataset.New("no-time")
	require.NoError(t, raw.SetNumeric(dataset.ColModA, []float64{1, 2, 3}))
	r := NewRenderer(slog.Default(), Options{})

	written, err := r.CleaningImpact(raw, raw, t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, written)
}
