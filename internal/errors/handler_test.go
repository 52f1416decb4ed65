package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energyforecast/internal/config"
	"energyforecast/internal/dataprocessing"
	"energyforecast/internal/shared/testutil"
	"energyforecast/internal/split"
)

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorToProblem(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/prepare", nil)

	type payload struct {
		Dataset string `validate:"required"`
	}
	validationErr := validator.New().Struct(payload{})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantExt    map[string]any
	}{
		{
			name:       "deadline",
			err:        fmt.Errorf("load: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "api error",
			err:        NotFoundError("dataset"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
			wantExt:    map[string]any{"error_code": CodeNotFound},
		},
		{
			name:       "field not found",
			err:        fmt.Errorf("split: %w", &split.FieldNotFoundError{Field: "Date", Available: []string{"ts", "y"}}),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeFieldNotFound,
			wantExt:    map[string]any{"field": "Date", "available_fields": []string{"ts", "y"}},
		},
		{
			name:       "invalid parameter",
			err:        &split.InvalidParameterError{Param: "n_folds", Value: 0, Reason: "must be at least 1"},
			wantStatus: http.StatusBadRequest,
			wantType:   TypeInvalidParameter,
			wantExt:    map[string]any{"parameter": "n_folds"},
		},
		{
			name:       "empty window",
			err:        &split.EmptyWindowError{Window: split.WindowValidation, Rows: 5, Fraction: 0.1},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeEmptyWindow,
			wantExt:    map[string]any{"window": split.WindowValidation},
		},
		{
			name:       "no folds",
			err:        &split.NoFoldsProducedError{Rows: 10, TrainSize: 9, ValSize: 2, NFolds: 1},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeNoFolds,
		},
		{
			name:       "validator",
			err:        validationErr,
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "dataset not found",
			err:        fmt.Errorf("%w: solar", config.ErrDatasetNotFound),
			wantStatus: http.StatusNotFound,
			wantType:   TypeDatasetNotFound,
		},
		{
			name:       "invalid dataset name",
			err:        fmt.Errorf("%w: %q", config.ErrInvalidDatasetName, "../etc"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeDatasetInvalid,
		},
		{
			name:       "unsupported format",
			err:        fmt.Errorf("load x.json: %w", dataprocessing.ErrUnsupportedFormat),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDatasetInvalid,
		},
		{
			name:       "unknown",
			err:        fmt.Errorf("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := h.ErrorToProblem(tt.err, req)

			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, "/api/v1/prepare", problem.Instance)
			for k, v := range tt.wantExt {
				assert.Equal(t, v, problem.Extensions[k], "extension %s", k)
			}
		})
	}
}

func TestUnknownErrorsDoNotLeakDetail(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	problem := h.ErrorToProblem(fmt.Errorf("open /secret/path: permission denied"), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotContains(t, problem.Detail, "/secret/path")
}

func TestHandleErrorWritesProblem(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/prepare", nil)
	h.HandleError(w, r, &split.InvalidParameterError{Param: "val_frac", Value: 1.5, Reason: "must be strictly between 0 and 1"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeProblem(t, w)
	assert.Equal(t, TypeInvalidParameter, body["type"])
	assert.Equal(t, "val_frac", body["parameter"])
	assert.Contains(t, body, "trace_id")

	testutil.AssertLogContains(t, logs, slog.LevelWarn, "request failed")
}

func TestHandleErrorNil(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	h.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, w.Body.Len())
	assert.Equal(t, 0, logs.Count())
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	h.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "/nope", decodeProblem(t, w)["instance"])

	w = httptest.NewRecorder()
	h.MethodNotAllowed(w, httptest.NewRequest(http.MethodDelete, "/api/v1/prepare", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, decodeProblem(t, w)["detail"], "DELETE")
}

func TestRecoveryMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		includeStack bool
	}{
		{"production", false},
		{"development", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, tt.includeStack)

			panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
			w := httptest.NewRecorder()
			RecoveryMiddleware(h)(panicky).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			body := decodeProblem(t, w)
			_, hasStack := body["stack"]
			assert.Equal(t, tt.includeStack, hasStack)
			testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")
		})
	}
}
