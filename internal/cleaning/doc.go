// Package cleaning implements the outlier-flag-and-impute pipeline applied
// to raw station exports before analysis.
//
// The pipeline has three stages:
//
//  1. FlagOutliers computes per-column z-scores over the configured
//     candidate columns and marks every row where any |z| exceeds the
//     threshold, storing the result in a transient boolean column.
//  2. CleanAndImpute replaces flagged cells with the column median over
//     non-flagged rows, then fills remaining missing cells with the
//     recomputed column median.
//  3. SaveCleaned drops the transient flag column and persists the cleaned
//     table as CSV.
//
// All stages are pure value-in/value-out transformations over Dataset
// copies; no state persists between invocations and re-running on an
// already-cleaned table changes no values.
package cleaning
