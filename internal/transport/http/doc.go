// Package http provides the dashboard HTTP API.
//
// Uploaded measurement files are cleaned immediately and registered in an
// in-memory DatasetService; analysis endpoints operate on the cleaned
// data. Endpoints:
//
//	POST   /api/datasets               upload a CSV or Excel file
//	GET    /api/datasets               list uploaded datasets
//	GET    /api/datasets/{id}          dataset info
//	DELETE /api/datasets/{id}          remove a dataset
//	GET    /api/datasets/{id}/summary  per-column statistics
//	GET    /api/datasets/{id}/missing  missing-value report
//	GET    /api/summary?metric=GHI     per-dataset ranking of a metric
//	GET    /api/tests?metric=GHI       ANOVA and Kruskal-Wallis results
//	GET    /api/charts/boxplot?metric= PNG boxplot grouped by dataset
//	GET    /ws                         live progress events
//
// Errors are returned as a JSON envelope produced by the errors package.
package http
