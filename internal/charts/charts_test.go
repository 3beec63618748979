package charts

import (
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarcli/internal/analytics"
	"solarcli/internal/dataset"
)

func sampleStation(t *testing.T, rows int) *dataset.Dataset {
	t.Helper()
	ds := dataset.New("station")

	times := make([]time.Time, rows)
	ghi := make([]float64, rows)
	dni := make([]float64, rows)
	tamb := make([]float64, rows)
	rh := make([]float64, rows)
	ws := make([]float64, rows)
	wd := make([]float64, rows)
	base := time.Date(2021, 8, 9, 0, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		times[i] = base.Add(time.Duration(i) * time.Hour)
		ghi[i] = 500 + 200*math.Sin(float64(i)/10)
		dni[i] = 300 + 100*math.Cos(float64(i)/10)
		tamb[i] = 25 + 5*math.Sin(float64(i)/24)
		rh[i] = 40 + float64(i%50)
		ws[i] = float64(i % 9)
		wd[i] = float64((i * 37) % 360)
	}
	require.NoError(t, ds.SetTime(dataset.ColTimestamp, times))
	require.NoError(t, ds.SetNumeric(dataset.ColGHI, ghi))
	require.NoError(t, ds.SetNumeric(dataset.ColDNI, dni))
	require.NoError(t, ds.SetNumeric(dataset.ColTamb, tamb))
	require.NoError(t, ds.SetNumeric(dataset.ColRH, rh))
	require.NoError(t, ds.SetNumeric(dataset.ColWS, ws))
	require.NoError(t, ds.SetNumeric(dataset.ColWD, wd))
	return ds
}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err, "expected chart file %s", path)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRenderAll(t *testing.T) {
	ds := sampleStation(t, 200)
	r := NewRenderer(slog.Default(), Options{})
	outDir := t.TempDir()

	written, err := r.RenderAll(ds, outDir)
	require.NoError(t, err)
	require.NotEmpty(t, written)
	for _, path := range written {
		assertPNG(t, path)
	}
}

func TestTimeSeriesDailyResample(t *testing.T) {
	ds := sampleStation(t, 96)
	r := NewRenderer(slog.Default(), Options{ResampleDaily: true})

	written, err := r.TimeSeries(ds, t.TempDir())
	require.NoError(t, err)
	// GHI, DNI and Tamb present; DHI absent and skipped.
	assert.Len(t, written, 3)
}

func TestTimeSeriesWithoutTimestamp(t *testing.T) {
	ds := dataset.New("no-time")
	require.NoError(t, ds.SetNumeric(dataset.ColGHI, []float64{1, 2, 3}))
	r := NewRenderer(slog.Default(), Options{})

	written, err := r.TimeSeries(ds, t.TempDir())
	require.NoError(t, err, "missing timestamp is a skip, not an error")
	assert.Empty(t, written)
}

func TestWindRoseSkipsWithoutWindColumns(t *testing.T) {
	ds := dataset.New("no-wind")
	require.NoError(t, ds.SetNumeric(dataset.ColGHI, []float64{1, 2, 3}))
	r := NewRenderer(slog.Default(), Options{})

	path, err := r.WindRose(ds, filepath.Join(t.TempDir(), "rose.png"))
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestBoxplotsAndBarMeans(t *testing.T) {
	combined := dataset.New("combined")
	require.NoError(t, combined.SetNumeric(dataset.ColGHI, []float64{
		100, 150, 200, 400, 450, 500,
	}))
	require.NoError(t, combined.SetText(dataset.ColCountry, []string{
		"Benin", "Benin", "Benin", "Togo", "Togo", "Togo",
	}))
	r := NewRenderer(slog.Default(), Options{})
	dir := t.TempDir()

	boxPath, err := r.Boxplots(combined, dataset.ColCountry, dataset.ColGHI,
		filepath.Join(dir, "box.png"))
	require.NoError(t, err)
	assertPNG(t, boxPath)

	summaries, err := analytics.SummarizeGroups(combined, dataset.ColCountry, dataset.ColGHI)
	require.NoError(t, err)
	barPath, err := r.BarMeans(summaries, dataset.ColGHI, filepath.Join(dir, "bar.png"))
	require.NoError(t, err)
	assertPNG(t, barPath)
}

func TestDirectionSector(t *testing.T) {
	tests := []struct {
		deg  float64
		want string
	}{
		{0, "N"},
		{11, "N"},
		{12, "NNE"},
		{90, "E"},
		{180, "S"},
		{270, "W"},
		{359, "N"},
		{-90, "W"},
		{450, "E"},
	}
	for _, tt := range tests {
		got := compassSectors[directionSector(tt.deg)]
		assert.Equal(t, tt.want, got, "deg=%v", tt.deg)
	}
}

func TestSampleRowsDeterministic(t *testing.T) {
	x := make([]float64, 1000)
	y := make([]float64, 1000)
	for i := range x {
		x[i] = float64(i)
		y[i] = float64(i * 2)
	}
	a := sampleRows(x, y, 100)
	b := sampleRows(x, y, 100)
	assert.Equal(t, a, b)
	assert.Len(t, a, 100)
}

func TestSampleRowsSkipsNaN(t *testing.T) {
	nan := math.NaN()
	x := []float64{1, nan, 3}
	y := []float64{1, 2, nan}
	rows := sampleRows(x, y, 10)
	assert.Equal(t, []int{0}, rows)
}
