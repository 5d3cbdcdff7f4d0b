package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShagReza/DataCuration-EASMS/internal/shared/testutil"
)

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "schema error",
			err:        fmt.Errorf("score: %w", NewSchemaError("BRD4", "POS_INT_REP1")),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeSchema,
		},
		{
			name:       "api not found",
			err:        NotFoundError("run 42"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "app validation",
			err:        NewAppValidationError("mode must be one of full score label"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "invalid input",
			err:        ErrInvalidInput(fmt.Errorf("no .csv or .xlsx datasets found in /tmp/in")),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeValidation,
		},
		{
			name:       "parsing",
			err:        NewParsingError("read dataset", fmt.Errorf("bad cell")),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDataParsing,
		},
		{
			name:       "context cancelled",
			err:        context.Canceled,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "unknown",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
			rec := httptest.NewRecorder()
			rec.Header().Set("X-Request-ID", "req-1")

			handler.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/runs", body["instance"])
			assert.Equal(t, "req-1", body["trace_id"])
		})
	}
}

func TestErrorHandler_LogLevels(t *testing.T) {
	logger, buf := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	req := httptest.NewRequest(http.MethodGet, "/api/runs/nope", nil)

	handler.HandleError(httptest.NewRecorder(), req, NotFoundError("run nope"))
	testutil.AssertLogContains(t, buf, slog.LevelWarn, "request failed")
	testutil.AssertNoErrors(t, buf)

	handler.HandleError(httptest.NewRecorder(), req, fmt.Errorf("disk full"))
	testutil.AssertLogContains(t, buf, slog.LevelError, "request failed")
	assert.True(t, buf.ContainsAttr("status", int64(http.StatusInternalServerError)))
}

func TestErrorHandler_NilError(t *testing.T) {
	handler := NewErrorHandler(nil, false)
	rec := httptest.NewRecorder()
	handler.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, 0, rec.Body.Len())
}

func TestErrorHandler_SchemaExtensions(t *testing.T) {
	handler := NewErrorHandler(nil, false)
	req := httptest.NewRequest(http.MethodPost, "/api/runs", nil)

	problem := handler.ErrorToProblem(NewSchemaError("HDAC1", "SMILES", "ENRICHMENT"), req)

	assert.Equal(t, "HDAC1", problem.Extensions["dataset"])
	assert.Equal(t, []string{"SMILES", "ENRICHMENT"}, problem.Extensions["missing"])
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	logger, buf := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, true)

	rec := httptest.NewRecorder()
	handler.HandlePanic(rec, httptest.NewRequest(http.MethodGet, "/boom", nil), "kaboom")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "kaboom")
	assert.True(t, buf.ContainsMessage("panic recovered"))
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "", "/x").
		WithExtension("errors", []string{"input_dir"})

	data, err := json.Marshal(pd)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"/errors/validation","title":"Bad Request","status":400,"instance":"/x","errors":["input_dir"]}`, string(data))
}
