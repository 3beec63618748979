package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/go-chi/render"

	"solarcli/internal/analytics"
	"solarcli/internal/dataset"
	"solarcli/internal/infrastructure"
)

// FromError maps a domain error to an APIError. Unknown errors become an
// internal server error with the cause in the details field, so handler
// code can return any error and get a consistent response body.
func FromError(err error) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case stderrors.Is(err, dataset.ErrNotFound):
		return NewWithDetails(http.StatusNotFound, "DATASET_NOT_FOUND", "Dataset not found", err.Error())
	case stderrors.Is(err, dataset.ErrEmptyFile):
		return NewWithDetails(http.StatusUnprocessableEntity, "EMPTY_DATASET", "Dataset file has no data rows", err.Error())
	case stderrors.Is(err, dataset.ErrUnsupported):
		return NewWithDetails(http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT", "File format is not supported", err.Error())
	case stderrors.Is(err, analytics.ErrNoData),
		stderrors.Is(err, analytics.ErrInsufficientGroups),
		stderrors.Is(err, analytics.ErrInsufficientColumns),
		stderrors.Is(err, analytics.ErrZeroVariance):
		return DatasetError(err)
	default:
		return NewWithDetails(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error", err.Error())
	}
}

// RenderError writes err as a JSON error response. Server-side failures
// are logged with the request trace ID before the response goes out.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := FromError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		infrastructure.LoggerWithContext(r.Context()).Error("request failed",
			"status", apiErr.StatusCode,
			"error_code", apiErr.ErrorCode,
			"error", err.Error())
	}
	render.Render(w, r, NewErrorResponse(apiErr))
}
