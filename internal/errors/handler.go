package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/go-chi/render"
)

// Problem types following RFC 7807
const (
	TypeValidation  = "/errors/validation"
	TypeNotFound    = "/errors/not-found"
	TypeRateLimit   = "/errors/rate-limit"
	TypeInternal    = "/errors/internal"
	TypeTimeout     = "/errors/timeout"
	TypeSchema      = "/errors/dataset/schema"
	TypeDataParsing = "/errors/dataset/parsing"
	TypeRunFailed   = "/errors/run/failed"
)

// ProblemDetails is an RFC 7807 error body
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Extensions map[string]interface{} `json:"-"`
}

// NewProblemDetails creates a new RFC 7807 compliant error
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension field to the problem details
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// Render implements the render.Renderer interface
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	w.Header().Set("Content-Type", "application/problem+json")
	return nil
}

// MarshalJSON flattens extensions into the top-level object
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{}, len(pd.Extensions)+5)
	for k, v := range pd.Extensions {
		data[k] = v
	}
	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status
	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}
	return json.Marshal(data)
}

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// codeTypes maps APIError codes onto problem types.
var codeTypes = map[string]string{
	"VALIDATION_FAILED":   TypeValidation,
	"INVALID_REQUEST":     TypeValidation,
	"INVALID_INPUT":       TypeValidation,
	"PAYLOAD_TOO_LARGE":   TypeValidation,
	"NOT_FOUND":           TypeNotFound,
	"RATE_LIMIT_EXCEEDED": TypeRateLimit,
	"SCHEMA_ERROR":        TypeSchema,
	"RUN_FAILED":          TypeRunFailed,
}

// HandleError writes err as a problem document. Client errors are logged at
// warn level, server errors at error level.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := w.Header().Get("X-Request-ID")
	problem := h.ErrorToProblem(err, r)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
		if h.includeStack {
			problem.WithExtension("stack", getStackTrace())
		}
	}
	h.logger.LogAttrs(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	h.respond(w, r, problem, reqID)
}

// ErrorToProblem maps err onto a problem document. Timeouts and schema
// errors are recognised anywhere in the chain; otherwise the outermost
// APIError or AppError decides.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout, "Run Timeout",
			"the run did not finish before its deadline", r.URL.Path)
	}

	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		return NewProblemDetails(http.StatusUnprocessableEntity, TypeSchema, "Dataset Schema Error",
			schemaErr.Error(), r.URL.Path).
			WithExtension("dataset", schemaErr.Dataset).
			WithExtension("missing", schemaErr.Missing)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		problemType, ok := codeTypes[apiErr.ErrorCode]
		if !ok {
			problemType = TypeInternal
		}
		problem := NewProblemDetails(apiErr.StatusCode, problemType, http.StatusText(apiErr.StatusCode),
			apiErr.Message, r.URL.Path).
			WithExtension("error_code", apiErr.ErrorCode)
		if apiErr.Details != nil {
			problem.WithExtension("details", apiErr.Details)
		}
		return problem
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return h.appErrorToProblem(appErr, r)
	}

	return NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error",
		"an unexpected error occurred", r.URL.Path)
}

func (h *ErrorHandler) appErrorToProblem(appErr *AppError, r *http.Request) *ProblemDetails {
	status, problemType := http.StatusInternalServerError, TypeInternal
	switch appErr.Type {
	case ErrTypeValidation:
		status, problemType = http.StatusBadRequest, TypeValidation
	case ErrTypeNotFound:
		status, problemType = http.StatusNotFound, TypeNotFound
	case ErrTypeParsing:
		status, problemType = http.StatusUnprocessableEntity, TypeDataParsing
	case ErrTypeSchema:
		status, problemType = http.StatusUnprocessableEntity, TypeSchema
	}

	problem := NewProblemDetails(status, problemType, http.StatusText(status), appErr.Error(), r.URL.Path).
		WithExtension("error_type", string(appErr.Type))
	if len(appErr.Context) > 0 {
		problem.WithExtension("context", appErr.Context)
	}
	return problem
}

// HandlePanic answers a recovered panic with a 500 problem document.
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := w.Header().Get("X-Request-ID")

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error",
		"an unexpected error occurred", r.URL.Path)
	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", getStackTrace())
	}
	h.respond(w, r, problem, reqID)
}

// NotFound answers unknown routes.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found",
		"no route matches "+r.URL.Path, r.URL.Path), w.Header().Get("X-Request-ID"))
}

// MethodNotAllowed answers known routes called with the wrong method.
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, NewProblemDetails(http.StatusMethodNotAllowed, TypeInternal, "Method Not Allowed",
		fmt.Sprintf("method %s is not allowed on %s", r.Method, r.URL.Path), r.URL.Path),
		w.Header().Get("X-Request-ID"))
}

func (h *ErrorHandler) respond(w http.ResponseWriter, r *http.Request, problem *ProblemDetails, reqID string) {
	if reqID != "" {
		problem.WithExtension("trace_id", reqID)
	}
	if err := render.Render(w, r, problem); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render problem", slog.String("error", err.Error()))
	}
}

func getStackTrace() string {
	buf := make([]byte, 1024*8)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
