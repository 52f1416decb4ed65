package errors

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemDetailsMarshalFlattensExtensions(t *testing.T) {
	pd := NewProblemDetails(http.StatusUnprocessableEntity, TypeNoFolds, "No Folds Produced", "", "/api/v1/prepare").
		WithExtension("rows", 10).
		WithExtension("status", 999)

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))

	assert.Equal(t, TypeNoFolds, body["type"])
	assert.Equal(t, float64(10), body["rows"])
	// standard members win over extensions with the same name
	assert.Equal(t, float64(http.StatusUnprocessableEntity), body["status"])
	assert.NotContains(t, body, "detail")
}

func TestWithExtensionOnZeroValue(t *testing.T) {
	pd := &ProblemDetails{Status: http.StatusTeapot}
	pd.WithExtension("k", "v")
	assert.Equal(t, "v", pd.Extensions["k"])
}

func TestAPIError(t *testing.T) {
	err := InvalidRequestWithError(assert.AnError)
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, CodeInvalidRequest, err.ErrorCode)
	assert.Equal(t, assert.AnError.Error(), err.Details)

	v := NewValidationErrors([]ValidationError{{Field: "dataset", Message: "required"}})
	assert.Equal(t, CodeValidationFailed, v.ErrorCode)
	assert.Equal(t, "Request validation failed", v.Error())
}
