package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Loader errors. ErrNotFound lets batch callers skip a missing country file
// and continue with the rest.
var (
	ErrNotFound    = errors.New("dataset file not found")
	ErrEmptyFile   = errors.New("dataset file has no data rows")
	ErrUnsupported = errors.New("unsupported dataset file format")
)

// timestampLayouts are tried in order when parsing the Timestamp column.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02",
	"01/02/2006 15:04",
}

// Load reads a dataset from path, dispatching on the file extension.
// CSV and XLSX station exports are supported.
func Load(path string) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".xlsx", ".xls":
		return LoadXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
}

// LoadCSV reads a CSV file with a header row. The Timestamp column is parsed
// into time values when present; other columns are inferred as numeric when
// every non-empty cell parses as a float, and kept as text otherwise. Empty
// numeric cells become NaN.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return fromRecords(datasetName(path), records, path)
}

// LoadXLSX reads the first sheet of an Excel workbook with the same column
// semantics as LoadCSV.
func LoadXLSX(path string) (*Dataset, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %s: %w", sheets[0], path, err)
	}
	return fromRecords(datasetName(path), rows, path)
}

// datasetName derives a dataset name from the file name, e.g.
// "benin_clean.csv" -> "benin_clean".
func datasetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func fromRecords(name string, records [][]string, path string) (*Dataset, error) {
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	header := records[0]
	body := records[1:]
	n := len(body)

	ds := New(name)
	for col, colName := range header {
		colName = strings.TrimSpace(colName)
		if colName == "" {
			colName = fmt.Sprintf("column_%d", col)
		}

		cells := make([]string, n)
		for i, row := range body {
			if col < len(row) {
				cells[i] = strings.TrimSpace(row[col])
			}
		}

		var err error
		switch {
		case colName == ColTimestamp:
			err = addTimeColumn(ds, colName, cells)
		case isNumericColumn(cells):
			err = ds.SetNumeric(colName, toFloats(cells))
		default:
			err = ds.SetText(colName, cells)
		}
		if err != nil {
			return nil, fmt.Errorf("column %q of %s: %w", colName, path, err)
		}
	}
	return ds, nil
}

// addTimeColumn parses the Timestamp column. If any non-empty cell fails all
// known layouts the column is kept as text so loading never fails on odd
// timestamp formats.
func addTimeColumn(ds *Dataset, name string, cells []string) error {
	parsed := make([]time.Time, len(cells))
	for i, c := range cells {
		if c == "" {
			continue
		}
		t, ok := parseTimestamp(c)
		if !ok {
			slog.Warn("timestamp column not parseable, keeping as text",
				slog.String("dataset", ds.Name),
				slog.String("value", c))
			return ds.SetText(name, cells)
		}
		parsed[i] = t
	}
	return ds.SetTime(name, parsed)
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isNumericColumn reports whether every non-empty cell parses as a float.
// A column of only empty cells counts as numeric (all missing).
func isNumericColumn(cells []string) bool {
	for _, c := range cells {
		if c == "" {
			continue
		}
		if _, err := strconv.ParseFloat(c, 64); err != nil {
			return false
		}
	}
	return true
}

func toFloats(cells []string) []float64 {
	out := make([]float64, len(cells))
	for i, c := range cells {
		if c == "" {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}
