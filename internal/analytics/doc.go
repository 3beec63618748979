// Package analytics provides summary statistics and significance tests over
// datasets: descriptive statistics, missing-value reports, pairwise Pearson
// correlation matrices, per-group summary tables, and one-way ANOVA with its
// rank-based Kruskal-Wallis companion.
//
// Degenerate numeric cases (fewer than two groups, zero variance, all-NaN
// columns) are detected explicitly and reported as typed errors so callers
// can skip with a notice instead of crashing on undefined arithmetic.
package analytics
