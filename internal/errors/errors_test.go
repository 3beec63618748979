package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarcli/internal/analytics"
	"solarcli/internal/dataset"
)

func TestAPIErrorImplementsError(t *testing.T) {
	err := New(http.StatusNotFound, "NOT_FOUND", "thing not found")
	assert.Equal(t, "thing not found", err.Error())
}

func TestErrValidationDetails(t *testing.T) {
	err := ErrValidation("metric", "unknown column")
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)

	detail, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "metric", detail.Field)
}

func TestFromErrorDomainMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"dataset not found", fmt.Errorf("load: %w", dataset.ErrNotFound), http.StatusNotFound, "DATASET_NOT_FOUND"},
		{"empty file", dataset.ErrEmptyFile, http.StatusUnprocessableEntity, "EMPTY_DATASET"},
		{"unsupported format", dataset.ErrUnsupported, http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT"},
		{"insufficient groups", analytics.ErrInsufficientGroups, http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY"},
		{"zero variance", analytics.ErrZeroVariance, http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY"},
		{"unknown", fmt.Errorf("disk on fire"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := FromError(tt.err)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
		})
	}
}

func TestFromErrorPassthrough(t *testing.T) {
	original := ErrValidation("country", "required")
	apiErr := FromError(fmt.Errorf("wrap: %w", original))
	assert.Equal(t, original, apiErr)
}

func TestRenderError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/summary", nil)

	RenderError(w, r, dataset.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "DATASET_NOT_FOUND", resp.Error.ErrorCode)
}
