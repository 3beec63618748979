package http

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	gorillaws "github.com/gorilla/websocket"

	"solarcli/internal/config"
	apierrors "solarcli/internal/errors"
	"solarcli/internal/infrastructure"
	"solarcli/internal/websocket"
)

// DashboardHandler exposes the dataset upload and analysis API.
type DashboardHandler struct {
	service  *DatasetService
	hub      *websocket.Hub
	cfg      *config.Config
	logger   *slog.Logger
	validate *validator.Validate
	upgrader gorillaws.Upgrader
}

// NewDashboardHandler creates the handler.
func NewDashboardHandler(service *DatasetService, hub *websocket.Hub, cfg *config.Config, logger *slog.Logger) *DashboardHandler {
	h := &DashboardHandler{
		service:  service,
		hub:      hub,
		cfg:      cfg,
		logger:   infrastructure.WithComponent(logger, "dashboard_handler"),
		validate: validator.New(),
	}
	h.upgrader = gorillaws.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Routes returns the API routes.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/datasets", func(r chi.Router) {
		r.Post("/", h.UploadDataset)
		r.Get("/", h.ListDatasets)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetDataset)
			r.Delete("/", h.DeleteDataset)
			r.Get("/summary", h.DatasetSummary)
			r.Get("/missing", h.DatasetMissing)
		})
	})

	r.Get("/metrics-list", h.AvailableMetrics)
	r.Get("/summary", h.GroupSummary)
	r.Get("/tests", h.SignificanceTests)
	r.Get("/charts/boxplot", h.BoxplotChart)

	return r
}

func (h *DashboardHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.Security.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// ServeWS upgrades the connection and attaches it to the hub.
func (h *DashboardHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()))
		return
	}
	websocket.ServeWS(h.hub, conn, h.cfg.WebSocket, infrastructure.GetTraceID(r.Context()))
}

// UploadDataset accepts a multipart form with a "file" field, cleans it
// and registers the result.
func (h *DashboardHandler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Server.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.Server.MaxUploadBytes); err != nil {
		apierrors.RenderError(w, r, apierrors.ErrUploadTooLarge)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.RenderError(w, r, apierrors.ErrValidation("file", "multipart file field is required"))
		return
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".csv", ".xlsx", ".xls":
	default:
		apierrors.RenderError(w, r, apierrors.ErrUnsupportedFormat)
		return
	}

	info, err := h.service.Upload(r.Context(), header.Filename, file)
	if err != nil {
		apierrors.RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, info)
}

// ListDatasets returns all uploaded datasets.
func (h *DashboardHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{"datasets": h.service.List()})
}

// GetDataset returns one dataset's info.
func (h *DashboardHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, info)
}

// DeleteDataset removes a dataset.
func (h *DashboardHandler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(chi.URLParam(r, "id")); err != nil {
		apierrors.RenderError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

// DatasetSummary returns per-column summary statistics.
func (h *DashboardHandler) DatasetSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.Describe(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"columns": summaries})
}

// DatasetMissing returns the missing-value report.
func (h *DashboardHandler) DatasetMissing(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Missing(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"missing": report})
}

// AvailableMetrics lists measurement columns usable as ?metric= values.
func (h *DashboardHandler) AvailableMetrics(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{"metrics": h.service.AvailableMetrics()})
}

// metricParam validates and returns the metric query parameter.
func (h *DashboardHandler) metricParam(r *http.Request) (string, error) {
	metric := r.URL.Query().Get("metric")
	if err := h.validate.Var(metric, "required,alphanum,max=20"); err != nil {
		return "", apierrors.ErrValidation("metric", "metric must be a column name such as GHI")
	}
	return metric, nil
}

// GroupSummary returns the metric summary per dataset, ranked by mean.
func (h *DashboardHandler) GroupSummary(w http.ResponseWriter, r *http.Request) {
	metric, err := h.metricParam(r)
	if err != nil {
		apierrors.RenderError(w, r, err)
		return
	}
	summaries, err := h.service.Summary(metric)
	if err != nil {
		apierrors.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"metric": metric, "summaries": summaries})
}

// SignificanceTests runs ANOVA and Kruskal-Wallis across datasets.
func (h *DashboardHandler) SignificanceTests(w http.ResponseWriter, r *http.Request) {
	metric, err := h.metricParam(r)
	if err != nil {
		apierrors.RenderError(w, r, err)
		return
	}
	results, err := h.service.Tests(r.Context(), metric)
	if err != nil {
		apierrors.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, results)
}

// BoxplotChart serves a PNG boxplot of the metric grouped by dataset.
func (h *DashboardHandler) BoxplotChart(w http.ResponseWriter, r *http.Request) {
	metric, err := h.metricParam(r)
	if err != nil {
		apierrors.RenderError(w, r, err)
		return
	}
	path, err := h.service.BoxplotPNG(metric)
	if err != nil {
		apierrors.RenderError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}
