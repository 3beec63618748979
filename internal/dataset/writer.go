package dataset

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

const timeFormat = "2006-01-02 15:04:05"

// WriteCSV persists the dataset to path, creating the destination directory
// if absent. NaN numeric cells and zero time cells are written as empty
// strings so a reload round-trips missing values. Write errors are surfaced
// to the caller.
func WriteCSV(ds *Dataset, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	cols := ds.Columns()
	if err := w.Write(cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(cols))
	for i := 0; i < ds.Len(); i++ {
		for j, name := range cols {
			row[j] = formatCell(ds, name, i)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

func formatCell(ds *Dataset, name string, row int) string {
	k, _ := ds.Kind(name)
	switch k {
	case KindNumeric:
		v, _ := ds.Numeric(name)
		if math.IsNaN(v[row]) {
			return ""
		}
		return strconv.FormatFloat(v[row], 'g', -1, 64)
	case KindText:
		v, _ := ds.Text(name)
		return v[row]
	case KindTime:
		v, _ := ds.Times(name)
		if v[row].IsZero() {
			return ""
		}
		return v[row].Format(timeFormat)
	case KindBool:
		v, _ := ds.Bools(name)
		return strconv.FormatBool(v[row])
	}
	return ""
}
