package analytics

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"solarcli/internal/dataset"
)

// Degenerate-case errors. These are detected explicitly so callers can skip
// a test or chart with a notice instead of hitting a numeric panic.
var (
	ErrInsufficientGroups  = errors.New("need at least two non-empty groups")
	ErrInsufficientColumns = errors.New("need at least two present columns")
	ErrZeroVariance        = errors.New("zero within-group variance")
	ErrNoData              = errors.New("no numeric data")
)

// TestResult holds a significance test statistic and its p-value.
type TestResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
}

// Significant reports whether the result is significant at the given alpha.
func (r TestResult) Significant(alpha float64) bool {
	return r.PValue < alpha
}

// DropNaN returns the values with NaN cells removed.
func DropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Median returns the median of the values, skipping NaN cells. NaN is
// returned when no valid value exists.
func Median(values []float64) float64 {
	valid := DropNaN(values)
	if len(valid) == 0 {
		return math.NaN()
	}
	sort.Float64s(valid)
	n := len(valid)
	if n%2 == 1 {
		return valid[n/2]
	}
	return (valid[n/2-1] + valid[n/2]) / 2
}

// OneWayANOVA runs a one-way analysis of variance across the groups and
// returns the F statistic with its p-value. NaN cells are dropped per group;
// empty groups are discarded. Fewer than two surviving groups is a
// degenerate case.
func OneWayANOVA(groups [][]float64) (TestResult, error) {
	clean := cleanGroups(groups)
	k := len(clean)
	if k < 2 {
		return TestResult{}, ErrInsufficientGroups
	}

	var total int
	var grandSum float64
	for _, g := range clean {
		total += len(g)
		for _, v := range g {
			grandSum += v
		}
	}
	grandMean := grandSum / float64(total)

	var ssBetween, ssWithin float64
	for _, g := range clean {
		mean := stat.Mean(g, nil)
		ssBetween += float64(len(g)) * (mean - grandMean) * (mean - grandMean)
		for _, v := range g {
			ssWithin += (v - mean) * (v - mean)
		}
	}

	dfBetween := float64(k - 1)
	dfWithin := float64(total - k)
	if dfWithin <= 0 || ssWithin == 0 {
		return TestResult{}, fmt.Errorf("%w across %d groups", ErrZeroVariance, k)
	}

	f := (ssBetween / dfBetween) / (ssWithin / dfWithin)
	dist := distuv.F{D1: dfBetween, D2: dfWithin}
	return TestResult{Statistic: f, PValue: dist.Survival(f)}, nil
}

// KruskalWallis runs the rank-based Kruskal-Wallis H test across the groups,
// applying the standard tie correction, and returns the H statistic with a
// chi-squared p-value. It is the non-parametric companion to OneWayANOVA.
func KruskalWallis(groups [][]float64) (TestResult, error) {
	clean := cleanGroups(groups)
	k := len(clean)
	if k < 2 {
		return TestResult{}, ErrInsufficientGroups
	}

	type obs struct {
		value float64
		group int
	}
	var pooled []obs
	for gi, g := range clean {
		for _, v := range g {
			pooled = append(pooled, obs{value: v, group: gi})
		}
	}
	n := len(pooled)
	sort.Slice(pooled, func(i, j int) bool { return pooled[i].value < pooled[j].value })

	// Average ranks across ties, accumulating the tie correction term.
	ranks := make([]float64, n)
	var tieTerm float64
	for i := 0; i < n; {
		j := i
		for j < n && pooled[j].value == pooled[i].value {
			j++
		}
		avg := float64(i+j+1) / 2 // ranks are 1-based
		for t := i; t < j; t++ {
			ranks[t] = avg
		}
		ties := float64(j - i)
		tieTerm += ties*ties*ties - ties
		i = j
	}

	rankSums := make([]float64, k)
	for i, o := range pooled {
		rankSums[o.group] += ranks[i]
	}

	nf := float64(n)
	h := 0.0
	for gi, g := range clean {
		h += rankSums[gi] * rankSums[gi] / float64(len(g))
	}
	h = 12/(nf*(nf+1))*h - 3*(nf+1)

	correction := 1 - tieTerm/(nf*nf*nf-nf)
	if correction == 0 {
		return TestResult{}, fmt.Errorf("%w: all observations tied", ErrZeroVariance)
	}
	h /= correction

	dist := distuv.ChiSquared{K: float64(k - 1)}
	return TestResult{Statistic: h, PValue: dist.Survival(h)}, nil
}

// CorrelationMatrix computes Pearson correlations between the present
// numeric columns, over rows complete in each pair. The returned matrix is
// indexed by the returned column order.
func CorrelationMatrix(ds *dataset.Dataset, columns []string) ([]string, [][]float64, error) {
	present := ds.PresentColumns(columns)
	if len(present) < 2 {
		return nil, nil, ErrInsufficientColumns
	}

	matrix := make([][]float64, len(present))
	for i := range matrix {
		matrix[i] = make([]float64, len(present))
		matrix[i][i] = 1
	}
	for i := 0; i < len(present); i++ {
		xi, _ := ds.Numeric(present[i])
		for j := i + 1; j < len(present); j++ {
			xj, _ := ds.Numeric(present[j])
			r := pairwiseCorrelation(xi, xj)
			matrix[i][j] = r
			matrix[j][i] = r
		}
	}
	return present, matrix, nil
}

func pairwiseCorrelation(x, y []float64) float64 {
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

func cleanGroups(groups [][]float64) [][]float64 {
	var out [][]float64
	for _, g := range groups {
		valid := DropNaN(g)
		if len(valid) > 0 {
			out = append(out, valid)
		}
	}
	return out
}
