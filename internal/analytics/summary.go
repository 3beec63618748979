package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"solarcli/internal/dataset"
)

// highNullThreshold is the missing-value percentage above which a column is
// highlighted in the missing-value report.
const highNullThreshold = 5.0

// ColumnSummary holds descriptive statistics for one numeric column.
type ColumnSummary struct {
	Column  string  `json:"column"`
	Count   int     `json:"count"`
	Missing int     `json:"missing"`
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
	Min     float64 `json:"min"`
	Q1      float64 `json:"q1"`
	Median  float64 `json:"median"`
	Q3      float64 `json:"q3"`
	Max     float64 `json:"max"`
}

// Describe computes descriptive statistics for the present numeric columns,
// skipping missing cells. Columns with no valid values report NaN moments.
func Describe(ds *dataset.Dataset, columns []string) []ColumnSummary {
	if len(columns) == 0 {
		columns = ds.NumericColumns()
	}
	present := ds.PresentColumns(columns)

	out := make([]ColumnSummary, 0, len(present))
	for _, name := range present {
		values, _ := ds.Numeric(name)
		valid := DropNaN(values)
		s := ColumnSummary{
			Column:  name,
			Count:   len(valid),
			Missing: len(values) - len(valid),
		}
		if len(valid) == 0 {
			s.Mean, s.Std = math.NaN(), math.NaN()
			s.Min, s.Q1, s.Median, s.Q3, s.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
			out = append(out, s)
			continue
		}
		sort.Float64s(valid)
		s.Mean = stat.Mean(valid, nil)
		if len(valid) > 1 {
			s.Std = stat.StdDev(valid, nil)
		} else {
			s.Std = math.NaN()
		}
		s.Min = valid[0]
		s.Max = valid[len(valid)-1]
		s.Q1 = stat.Quantile(0.25, stat.Empirical, valid, nil)
		s.Median = Median(valid)
		s.Q3 = stat.Quantile(0.75, stat.Empirical, valid, nil)
		out = append(out, s)
	}
	return out
}

// MissingEntry reports missing-value counts for one column.
type MissingEntry struct {
	Column  string  `json:"column"`
	Missing int     `json:"missing"`
	Percent float64 `json:"percent"`
}

// MissingReport summarises missing values across all numeric columns.
type MissingReport struct {
	Rows    int            `json:"rows"`
	Entries []MissingEntry `json:"entries"`
	// HighNull lists columns whose missing percentage exceeds 5%.
	HighNull []MissingEntry `json:"high_null"`
}

// Missing builds the missing-value report for the dataset.
func Missing(ds *dataset.Dataset) MissingReport {
	report := MissingReport{Rows: ds.Len()}
	for _, name := range ds.NumericColumns() {
		values, _ := ds.Numeric(name)
		missing := 0
		for _, v := range values {
			if math.IsNaN(v) {
				missing++
			}
		}
		entry := MissingEntry{Column: name, Missing: missing}
		if ds.Len() > 0 {
			entry.Percent = float64(missing) / float64(ds.Len()) * 100
		}
		report.Entries = append(report.Entries, entry)
		if entry.Percent > highNullThreshold {
			report.HighNull = append(report.HighNull, entry)
		}
	}
	return report
}

// GroupSummary holds mean/median/std for one group of a metric.
type GroupSummary struct {
	Group  string  `json:"group"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
}

// SummarizeGroups computes per-group mean, median and sample standard
// deviation of metric, grouping rows by the groupColumn text column.
// Results are sorted by mean descending, matching the "top regions" table.
// Rows with a missing metric value are skipped.
func SummarizeGroups(ds *dataset.Dataset, groupColumn, metric string) ([]GroupSummary, error) {
	labels, ok := ds.Text(groupColumn)
	if !ok {
		return nil, ErrNoData
	}
	values, ok := ds.Numeric(metric)
	if !ok {
		return nil, ErrNoData
	}

	byGroup := make(map[string][]float64)
	var order []string
	for i, label := range labels {
		if math.IsNaN(values[i]) {
			continue
		}
		if _, seen := byGroup[label]; !seen {
			order = append(order, label)
		}
		byGroup[label] = append(byGroup[label], values[i])
	}
	if len(order) == 0 {
		return nil, ErrNoData
	}

	out := make([]GroupSummary, 0, len(order))
	for _, label := range order {
		g := byGroup[label]
		s := GroupSummary{
			Group:  label,
			Count:  len(g),
			Mean:   stat.Mean(g, nil),
			Median: Median(g),
		}
		if len(g) > 1 {
			s.Std = stat.StdDev(g, nil)
		} else {
			s.Std = math.NaN()
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Mean > out[j].Mean })
	return out, nil
}

// GroupValues extracts the metric values per group label, skipping NaN,
// in first-seen label order. It feeds the significance tests.
func GroupValues(ds *dataset.Dataset, groupColumn, metric string) ([]string, [][]float64, error) {
	labels, ok := ds.Text(groupColumn)
	if !ok {
		return nil, nil, ErrNoData
	}
	values, ok := ds.Numeric(metric)
	if !ok {
		return nil, nil, ErrNoData
	}

	byGroup := make(map[string][]float64)
	var order []string
	for i, label := range labels {
		if math.IsNaN(values[i]) {
			continue
		}
		if _, seen := byGroup[label]; !seen {
			order = append(order, label)
		}
		byGroup[label] = append(byGroup[label], values[i])
	}

	groups := make([][]float64, 0, len(order))
	for _, label := range order {
		groups = append(groups, byGroup[label])
	}
	return order, groups, nil
}
