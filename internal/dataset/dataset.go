package dataset

import (
	"fmt"
	"math"
	"time"
)

// Well-known measurement column names shared by all station exports.
const (
	ColTimestamp = "Timestamp"
	ColGHI       = "GHI"
	ColDNI       = "DNI"
	ColDHI       = "DHI"
	ColModA      = "ModA"
	ColModB      = "ModB"
	ColWS        = "WS"
	ColWSgust    = "WSgust"
	ColWD        = "WD"
	ColTamb      = "Tamb"
	ColTModA     = "TModA"
	ColTModB     = "TModB"
	ColRH        = "RH"

	// ColCountry labels rows when several datasets are combined for comparison.
	ColCountry = "Country"
)

// MeasurementColumns lists the numeric columns a station export may carry.
// Not every dataset has all of them; consumers operate on the intersection
// with the columns actually present.
var MeasurementColumns = []string{
	ColGHI, ColDNI, ColDHI, ColModA, ColModB,
	ColWS, ColWSgust, ColWD, ColTamb, ColTModA, ColTModB, ColRH,
}

// Kind identifies the storage type of a column.
type Kind int

const (
	KindNumeric Kind = iota
	KindText
	KindTime
	KindBool
)

// String returns a human readable column kind.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	case KindTime:
		return "time"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Dataset is a column-ordered in-memory table. Numeric cells use NaN for
// missing values. All mutating operations preserve column order; consumers
// that need isolation take a Copy first.
type Dataset struct {
	Name string

	order   []string
	kinds   map[string]Kind
	numeric map[string][]float64
	text    map[string][]string
	times   map[string][]time.Time
	bools   map[string][]bool
	rows    int
}

// New creates an empty dataset with the given name.
func New(name string) *Dataset {
	return &Dataset{
		Name:    name,
		kinds:   make(map[string]Kind),
		numeric: make(map[string][]float64),
		text:    make(map[string][]string),
		times:   make(map[string][]time.Time),
		bools:   make(map[string][]bool),
	}
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return d.rows }

// Columns returns the column names in order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Has reports whether the named column exists.
func (d *Dataset) Has(name string) bool {
	_, ok := d.kinds[name]
	return ok
}

// Kind returns the kind of the named column.
func (d *Dataset) Kind(name string) (Kind, bool) {
	k, ok := d.kinds[name]
	return k, ok
}

// NumericColumns returns, in order, the names of all numeric columns.
func (d *Dataset) NumericColumns() []string {
	var out []string
	for _, name := range d.order {
		if d.kinds[name] == KindNumeric {
			out = append(out, name)
		}
	}
	return out
}

// PresentColumns returns the ordered subset of candidates present in the
// dataset as numeric columns.
func (d *Dataset) PresentColumns(candidates []string) []string {
	var out []string
	for _, name := range candidates {
		if k, ok := d.kinds[name]; ok && k == KindNumeric {
			out = append(out, name)
		}
	}
	return out
}

func (d *Dataset) checkLen(name string, n int) error {
	if d.Has(name) {
		return fmt.Errorf("column %q already exists", name)
	}
	if len(d.order) > 0 && n != d.rows {
		return fmt.Errorf("column %q has %d rows, dataset has %d", name, n, d.rows)
	}
	return nil
}

// SetNumeric adds a numeric column. The slice is stored as-is; callers that
// need to keep ownership must pass a copy.
func (d *Dataset) SetNumeric(name string, values []float64) error {
	if err := d.checkLen(name, len(values)); err != nil {
		return err
	}
	d.order = append(d.order, name)
	d.kinds[name] = KindNumeric
	d.numeric[name] = values
	d.rows = len(values)
	return nil
}

// SetText adds a text column.
func (d *Dataset) SetText(name string, values []string) error {
	if err := d.checkLen(name, len(values)); err != nil {
		return err
	}
	d.order = append(d.order, name)
	d.kinds[name] = KindText
	d.text[name] = values
	d.rows = len(values)
	return nil
}

// SetTime adds a time column.
func (d *Dataset) SetTime(name string, values []time.Time) error {
	if err := d.checkLen(name, len(values)); err != nil {
		return err
	}
	d.order = append(d.order, name)
	d.kinds[name] = KindTime
	d.times[name] = values
	d.rows = len(values)
	return nil
}

// SetBool adds a boolean column.
func (d *Dataset) SetBool(name string, values []bool) error {
	if err := d.checkLen(name, len(values)); err != nil {
		return err
	}
	d.order = append(d.order, name)
	d.kinds[name] = KindBool
	d.bools[name] = values
	d.rows = len(values)
	return nil
}

// Numeric returns the backing slice of a numeric column. Callers must not
// modify it unless they own the dataset (see Copy).
func (d *Dataset) Numeric(name string) ([]float64, bool) {
	v, ok := d.numeric[name]
	return v, ok
}

// Text returns the backing slice of a text column.
func (d *Dataset) Text(name string) ([]string, bool) {
	v, ok := d.text[name]
	return v, ok
}

// Times returns the backing slice of a time column.
func (d *Dataset) Times(name string) ([]time.Time, bool) {
	v, ok := d.times[name]
	return v, ok
}

// Bools returns the backing slice of a boolean column.
func (d *Dataset) Bools(name string) ([]bool, bool) {
	v, ok := d.bools[name]
	return v, ok
}

// Drop removes a column if present. Dropping an absent column is a no-op.
func (d *Dataset) Drop(name string) {
	if !d.Has(name) {
		return
	}
	for i, n := range d.order {
		if n == name {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	delete(d.kinds, name)
	delete(d.numeric, name)
	delete(d.text, name)
	delete(d.times, name)
	delete(d.bools, name)
	if len(d.order) == 0 {
		d.rows = 0
	}
}

// Copy returns a deep copy of the dataset.
func (d *Dataset) Copy() *Dataset {
	out := New(d.Name)
	out.rows = d.rows
	out.order = make([]string, len(d.order))
	copy(out.order, d.order)
	for name, k := range d.kinds {
		out.kinds[name] = k
		switch k {
		case KindNumeric:
			v := make([]float64, len(d.numeric[name]))
			copy(v, d.numeric[name])
			out.numeric[name] = v
		case KindText:
			v := make([]string, len(d.text[name]))
			copy(v, d.text[name])
			out.text[name] = v
		case KindTime:
			v := make([]time.Time, len(d.times[name]))
			copy(v, d.times[name])
			out.times[name] = v
		case KindBool:
			v := make([]bool, len(d.bools[name]))
			copy(v, d.bools[name])
			out.bools[name] = v
		}
	}
	return out
}

// Append concatenates other below d and returns a new dataset. Columns are
// matched by name; a column absent on one side is padded with missing values
// (NaN, empty string, zero time, false). Column kinds must agree where both
// sides carry the column.
func (d *Dataset) Append(other *Dataset) (*Dataset, error) {
	out := New(d.Name)
	total := d.rows + other.rows

	names := make([]string, 0, len(d.order)+len(other.order))
	names = append(names, d.order...)
	for _, n := range other.order {
		if !d.Has(n) {
			names = append(names, n)
		}
	}

	for _, name := range names {
		ka, aok := d.kinds[name]
		kb, bok := other.kinds[name]
		if aok && bok && ka != kb {
			return nil, fmt.Errorf("column %q kind mismatch: %s vs %s", name, ka, kb)
		}
		k := ka
		if !aok {
			k = kb
		}

		switch k {
		case KindNumeric:
			v := make([]float64, 0, total)
			v = appendNumeric(v, d, name)
			v = appendNumeric(v, other, name)
			out.order = append(out.order, name)
			out.kinds[name] = k
			out.numeric[name] = v
		case KindText:
			v := make([]string, 0, total)
			v = appendText(v, d, name)
			v = appendText(v, other, name)
			out.order = append(out.order, name)
			out.kinds[name] = k
			out.text[name] = v
		case KindTime:
			v := make([]time.Time, 0, total)
			v = appendTimes(v, d, name)
			v = appendTimes(v, other, name)
			out.order = append(out.order, name)
			out.kinds[name] = k
			out.times[name] = v
		case KindBool:
			v := make([]bool, 0, total)
			v = appendBools(v, d, name)
			v = appendBools(v, other, name)
			out.order = append(out.order, name)
			out.kinds[name] = k
			out.bools[name] = v
		}
	}
	out.rows = total
	return out, nil
}

func appendNumeric(dst []float64, d *Dataset, name string) []float64 {
	if v, ok := d.numeric[name]; ok {
		return append(dst, v...)
	}
	for i := 0; i < d.rows; i++ {
		dst = append(dst, math.NaN())
	}
	return dst
}

func appendText(dst []string, d *Dataset, name string) []string {
	if v, ok := d.text[name]; ok {
		return append(dst, v...)
	}
	for i := 0; i < d.rows; i++ {
		dst = append(dst, "")
	}
	return dst
}

func appendTimes(dst []time.Time, d *Dataset, name string) []time.Time {
	if v, ok := d.times[name]; ok {
		return append(dst, v...)
	}
	for i := 0; i < d.rows; i++ {
		dst = append(dst, time.Time{})
	}
	return dst
}

func appendBools(dst []bool, d *Dataset, name string) []bool {
	if v, ok := d.bools[name]; ok {
		return append(dst, v...)
	}
	for i := 0; i < d.rows; i++ {
		dst = append(dst, false)
	}
	return dst
}
