package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRawCSV(t *testing.T, path string, rows int) {
	t.Helper()
	out := "Timestamp,GHI,ModA,ModB\n"
	for i := 0; i < rows; i++ {
		out += fmt.Sprintf("2021-08-%02d %02d:00:00,%d,%d,%d\n",
			9+i/24, i%24, 400+i%10, 390+i%7, 380+i%5)
	}
	require.NoError(t, os.WriteFile(path, []byte(out), 0o644))
}

func TestRunContinuesPastMalformedFile(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writeRawCSV(t, filepath.Join(inDir, "benin.csv"), 48)
	// Empty file: the loader rejects it with ErrEmptyFile.
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "broken.csv"), nil, 0o644))

	err := run(context.Background(), slog.Default(), inDir, outDir, 3.0, nil, 2)
	require.NoError(t, err, "one bad file must not abort the batch")

	_, err = os.Stat(filepath.Join(outDir, "benin_clean.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "broken_clean.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunFailsWhenNothingCleans(t *testing.T) {
	inDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "broken.csv"), nil, 0o644))

	err := run(context.Background(), slog.Default(), inDir, t.TempDir(), 3.0, nil, 1)
	assert.Error(t, err)
}

func TestRunWritesCleaningImpactCharts(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writeRawCSV(t, filepath.Join(inDir, "togo.csv"), 72)

	require.NoError(t, run(context.Background(), slog.Default(), inDir, outDir, 3.0, nil, 1))

	for _, name := range []string{"togo_cleaning_impact_moda.png", "togo_cleaning_impact_modb.png"} {
		info, err := os.Stat(filepath.Join(outDir, name))
		require.NoError(t, err, "expected chart %s", name)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestSplitColumns(t *testing.T) {
	assert.Nil(t, splitColumns(""))
	assert.Equal(t, []string{"GHI", "DNI"}, splitColumns("GHI, DNI"))
	assert.Equal(t, []string{"ModA"}, splitColumns("ModA,,"))
}
