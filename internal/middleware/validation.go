package middleware

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/ShagReza/DataCuration-EASMS/internal/errors"
)

// DefaultMaxBodySize bounds request bodies read by the validator.
const DefaultMaxBodySize = 1 << 20

// Validator decodes and validates request bodies using struct tags
type Validator struct {
	validate    *validator.Validate
	logger      *slog.Logger
	maxBodySize int64
}

// NewValidator creates a request validator
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	v := validator.New()
	v.RegisterValidation("rundir", isRunDir)

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{
		validate:    v,
		logger:      logger.With(slog.String("component", "validation")),
		maxBodySize: DefaultMaxBodySize,
	}
}

// Decode reads the JSON body of r into dst and validates it. The returned
// error is an *apperrors.APIError ready for the error handler.
func (m *Validator) Decode(r *http.Request, dst interface{}) error {
	if r.ContentLength > m.maxBodySize {
		return apperrors.NewWithDetails(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
			"Request body exceeds maximum allowed size",
			map[string]interface{}{"max_size": m.maxBodySize, "size": r.ContentLength})
	}
	r.Body = http.MaxBytesReader(nil, r.Body, m.maxBodySize)

	// An empty body decodes to the zero value of dst
	if err := render.DecodeJSON(r.Body, dst); err != nil && !errors.Is(err, io.EOF) {
		m.logger.DebugContext(r.Context(), "invalid request body",
			slog.String("error", err.Error()),
			slog.String("request_id", GetRequestID(r.Context())))
		return apperrors.InvalidRequestWithError(err)
	}
	return m.Struct(dst)
}

// Struct validates v and converts failures into a VALIDATION_FAILED error
func (m *Validator) Struct(v interface{}) error {
	err := m.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.InvalidRequestWithError(err)
	}
	fields := make([]apperrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apperrors.NewValidationErrors(fields)
}

func formatValidationError(err validator.FieldError) string {
	field, param := err.Field(), err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "rundir":
		return fmt.Sprintf("%s must be a directory path", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isRunDir rejects empty values and NUL bytes; existence is checked by the run.
func isRunDir(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	return p != "" && !strings.ContainsRune(p, 0)
}

// QueryInt parses an integer query parameter. A missing parameter yields
// def; values outside [min, max] are validation errors.
func QueryInt(r *http.Request, param string, min, max, def int) (int, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationErrors([]apperrors.ValidationError{
			{Field: param, Message: fmt.Sprintf("%s must be a valid integer", param)},
		})
	}
	if v < min || v > max {
		return 0, apperrors.NewValidationErrors([]apperrors.ValidationError{
			{Field: param, Message: fmt.Sprintf("%s must be between %d and %d", param, min, max)},
		})
	}
	return v, nil
}
