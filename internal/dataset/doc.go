// Package dataset provides the in-memory tabular data model for solar
// measurement files and its file I/O.
//
// A Dataset is a column-ordered table with typed columns: numeric columns
// use NaN for missing cells, the Timestamp column is parsed into time
// values, and unrecognised columns (Comments, Country labels) pass through
// as text.
//
// The package contains three components:
//
// Loader: reads CSV and XLSX station exports with a header row, inferring
// column types, and returns typed errors (ErrNotFound, ErrEmptyFile) so
// batch loops over several countries can skip a bad file and continue.
//
// Writer: persists a dataset back to CSV, creating the destination
// directory when absent and surfacing write errors to the caller.
//
// Discovery: locates input files under a base directory for batch runs.
//
// Example:
//
//	ds, err := dataset.Load("data/benin/benin.csv")
//	if err != nil {
//	    return err
//	}
//	if err := dataset.WriteCSV(ds, "out/benin_clean.csv"); err != nil {
//	    return err
//	}
package dataset
