package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"solarcli/internal/analytics"
	"solarcli/internal/charts"
	"solarcli/internal/cleaning"
	"solarcli/internal/dataset"
	apierrors "solarcli/internal/errors"
	"solarcli/internal/infrastructure"
	"solarcli/internal/websocket"
)

// DatasetInfo describes one uploaded dataset for API responses.
type DatasetInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Filename    string    `json:"filename"`
	Rows        int       `json:"rows"`
	Columns     []string  `json:"columns"`
	FlaggedRows int       `json:"flagged_rows"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type entry struct {
	info    DatasetInfo
	cleaned *dataset.Dataset
}

// DatasetService owns the uploaded datasets. Uploads are persisted under
// uploadDir, cleaned immediately, and kept in memory for analysis calls.
// Progress is published to the websocket hub as cleaning proceeds.
type DatasetService struct {
	logger    *slog.Logger
	pipeline  *cleaning.Pipeline
	renderer  *charts.Renderer
	hub       *websocket.Hub
	uploadDir string

	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
}

// NewDatasetService creates the service. hub may be nil when no live
// updates are wanted (tests, CLI embedding).
func NewDatasetService(logger *slog.Logger, pipeline *cleaning.Pipeline, renderer *charts.Renderer, hub *websocket.Hub, uploadDir string) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetService{
		logger:    infrastructure.WithComponent(logger, "dataset_service"),
		pipeline:  pipeline,
		renderer:  renderer,
		hub:       hub,
		uploadDir: uploadDir,
		entries:   make(map[string]*entry),
	}
}

// datasetName derives the display name from an uploaded filename:
// "benin-malanville.csv" becomes "benin-malanville".
func datasetName(filename string) string {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return strings.TrimSuffix(name, "_clean")
}

// Upload stores the uploaded file, runs the cleaning pipeline on it and
// registers the result.
func (s *DatasetService) Upload(ctx context.Context, filename string, src io.Reader) (DatasetInfo, error) {
	id := uuid.New().String()
	name := datasetName(filename)

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return DatasetInfo{}, apierrors.FileSystemError("upload", err)
	}
	path := filepath.Join(s.uploadDir, id+filepath.Ext(filename))
	dst, err := os.Create(path)
	if err != nil {
		return DatasetInfo{}, apierrors.FileSystemError("upload", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return DatasetInfo{}, apierrors.FileSystemError("upload", err)
	}
	dst.Close()

	s.broadcast(ctx, websocket.TypeUploadReceived, map[string]string{"dataset_id": id, "name": name})

	ds, err := dataset.Load(path)
	if err != nil {
		os.Remove(path)
		s.broadcastError(ctx, id, err.Error())
		return DatasetInfo{}, err
	}
	ds.Name = name

	s.progress(ctx, id, "flagging", 30)
	flagged := s.pipeline.FlagOutliers(ctx, ds)
	flaggedRows := countFlags(flagged)

	s.progress(ctx, id, "imputing", 60)
	cleaned := s.pipeline.CleanAndImpute(ctx, flagged, nil)
	cleaned.Drop(cleaning.FlagColumn)
	cleaned.Name = name

	info := DatasetInfo{
		ID:          id,
		Name:        name,
		Filename:    filepath.Base(filename),
		Rows:        cleaned.Len(),
		Columns:     cleaned.Columns(),
		FlaggedRows: flaggedRows,
		UploadedAt:  time.Now().UTC(),
	}

	s.mu.Lock()
	s.entries[id] = &entry{info: info, cleaned: cleaned}
	s.order = append(s.order, id)
	s.mu.Unlock()

	s.progress(ctx, id, "done", 100)
	s.broadcast(ctx, websocket.TypeCleaningComplete, info)
	s.logger.InfoContext(ctx, "dataset uploaded",
		slog.String("dataset_id", id),
		slog.String("name", name),
		slog.Int("rows", info.Rows),
		slog.Int("flagged_rows", flaggedRows))
	return info, nil
}

// List returns the uploaded datasets in upload order.
func (s *DatasetService) List() []DatasetInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]DatasetInfo, 0, len(s.order))
	for _, id := range s.order {
		infos = append(infos, s.entries[id].info)
	}
	return infos
}

// Get returns one dataset's info.
func (s *DatasetService) Get(id string) (DatasetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return DatasetInfo{}, dataset.ErrNotFound
	}
	return e.info, nil
}

// Delete removes a dataset from the registry and the upload directory.
func (s *DatasetService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return dataset.ErrNotFound
	}
	delete(s.entries, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	matches, _ := filepath.Glob(filepath.Join(s.uploadDir, id+".*"))
	for _, m := range matches {
		os.Remove(m)
	}
	s.logger.Info("dataset deleted", slog.String("dataset_id", id), slog.String("name", e.info.Name))
	return nil
}

// Describe returns per-column summary statistics for one dataset.
func (s *DatasetService) Describe(id string) ([]analytics.ColumnSummary, error) {
	ds, err := s.cleanedByID(id)
	if err != nil {
		return nil, err
	}
	return analytics.Describe(ds, nil), nil
}

// Missing returns the missing-value report for one dataset.
func (s *DatasetService) Missing(id string) (analytics.MissingReport, error) {
	ds, err := s.cleanedByID(id)
	if err != nil {
		return analytics.MissingReport{}, err
	}
	return analytics.Missing(ds), nil
}

// combined concatenates all cleaned datasets labelled by name.
func (s *DatasetService) combined() (*dataset.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return nil, dataset.ErrNotFound
	}

	var combined *dataset.Dataset
	for _, id := range s.order {
		e := s.entries[id]
		ds := e.cleaned.Copy()
		labels := make([]string, ds.Len())
		for i := range labels {
			labels[i] = e.info.Name
		}
		ds.Drop(dataset.ColCountry)
		if err := ds.SetText(dataset.ColCountry, labels); err != nil {
			return nil, err
		}
		if combined == nil {
			combined = ds
			continue
		}
		var err error
		combined, err = combined.Append(ds)
		if err != nil {
			return nil, err
		}
	}
	return combined, nil
}

// Summary computes per-dataset summaries of a metric, ranked by mean.
func (s *DatasetService) Summary(metric string) ([]analytics.GroupSummary, error) {
	combined, err := s.combined()
	if err != nil {
		return nil, err
	}
	if !combined.Has(metric) {
		return nil, apierrors.ErrValidation("metric", fmt.Sprintf("column %s not present in any dataset", metric))
	}
	return analytics.SummarizeGroups(combined, dataset.ColCountry, metric)
}

// TestResults holds the significance tests over one metric.
type TestResults struct {
	Metric  string                `json:"metric"`
	ANOVA   *analytics.TestResult `json:"anova,omitempty"`
	Kruskal *analytics.TestResult `json:"kruskal_wallis,omitempty"`
}

// Tests runs one-way ANOVA and Kruskal-Wallis across datasets on metric.
// The results are broadcast to dashboard clients as an analysis event.
func (s *DatasetService) Tests(ctx context.Context, metric string) (*TestResults, error) {
	combined, err := s.combined()
	if err != nil {
		return nil, err
	}
	if !combined.Has(metric) {
		return nil, apierrors.ErrValidation("metric", fmt.Sprintf("column %s not present in any dataset", metric))
	}
	_, groups, err := analytics.GroupValues(combined, dataset.ColCountry, metric)
	if err != nil {
		return nil, err
	}

	results := &TestResults{Metric: metric}
	if anova, err := analytics.OneWayANOVA(groups); err == nil {
		results.ANOVA = &anova
	} else if fatalTestError(err) {
		return nil, err
	}
	if kruskal, err := analytics.KruskalWallis(groups); err == nil {
		results.Kruskal = &kruskal
	}
	if results.ANOVA == nil && results.Kruskal == nil {
		return nil, analytics.ErrInsufficientGroups
	}
	s.broadcast(ctx, websocket.TypeAnalysisComplete, results)
	return results, nil
}

// fatalTestError reports errors that doom both tests, so there is no
// point attempting the rank-based one.
func fatalTestError(err error) bool {
	return errors.Is(err, analytics.ErrInsufficientGroups) || errors.Is(err, analytics.ErrNoData)
}

// BoxplotPNG renders a boxplot of metric grouped by dataset and returns
// the PNG path.
func (s *DatasetService) BoxplotPNG(metric string) (string, error) {
	combined, err := s.combined()
	if err != nil {
		return "", err
	}
	if !combined.Has(metric) {
		return "", apierrors.ErrValidation("metric", fmt.Sprintf("column %s not present in any dataset", metric))
	}
	path := filepath.Join(s.uploadDir, "charts", fmt.Sprintf("boxplot_%s.png", metric))
	return s.renderer.Boxplots(combined, dataset.ColCountry, metric, path)
}

func (s *DatasetService) cleanedByID(id string) (*dataset.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, dataset.ErrNotFound
	}
	return e.cleaned, nil
}

func (s *DatasetService) broadcast(ctx context.Context, eventType string, data interface{}) {
	if s.hub != nil {
		s.hub.Broadcast(ctx, eventType, data)
	}
}

func (s *DatasetService) progress(ctx context.Context, id, step string, pct int) {
	if s.hub != nil {
		s.hub.BroadcastProgress(ctx, id, step, pct, "")
	}
}

func (s *DatasetService) broadcastError(ctx context.Context, id, message string) {
	if s.hub != nil {
		s.hub.BroadcastError(ctx, id, message)
	}
}

func countFlags(ds *dataset.Dataset) int {
	flags, ok := ds.Bools(cleaning.FlagColumn)
	if !ok {
		return 0
	}
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

// AvailableMetrics lists the numeric measurement columns available
// across all datasets, for the dashboard metric picker.
func (s *DatasetService) AvailableMetrics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	for _, e := range s.entries {
		for _, col := range e.cleaned.PresentColumns(dataset.MeasurementColumns) {
			seen[col] = true
		}
	}
	metrics := make([]string, 0, len(seen))
	for col := range seen {
		metrics = append(metrics, col)
	}
	sort.Strings(metrics)
	return metrics
}
