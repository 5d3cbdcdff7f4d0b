package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "github.com/ShagReza/DataCuration-EASMS/internal/errors"
	"github.com/ShagReza/DataCuration-EASMS/internal/middleware"
	"github.com/ShagReza/DataCuration-EASMS/internal/operations"
	"github.com/ShagReza/DataCuration-EASMS/internal/store"
)

// RunIDHeader names the run a POST /api/runs response belongs to, also on
// failure.
const RunIDHeader = "X-Run-ID"

// MaxListLimit caps GET /api/runs?limit.
const MaxListLimit = 500

// RunsHandler handles curation run requests
type RunsHandler struct {
	service      RunServiceInterface
	validator    *middleware.Validator
	errorHandler *apperrors.ErrorHandler
	logger       *slog.Logger
}

// RunRequest is the body of POST /api/runs
type RunRequest struct {
	InputDir string `json:"input_dir" validate:"omitempty,rundir"`
	Mode     string `json:"mode" validate:"omitempty,oneof=full score label"`
}

// RunList is the body of GET /api/runs
type RunList struct {
	Runs  []*store.Run `json:"runs"`
	Count int          `json:"count"`
}

// ActiveRunList is the body of GET /api/runs/active
type ActiveRunList struct {
	Runs []string `json:"runs"`
}

// NewRunsHandler creates a runs handler
func NewRunsHandler(service RunServiceInterface, validator *middleware.Validator, errorHandler *apperrors.ErrorHandler, logger *slog.Logger) *RunsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = middleware.NewValidator(logger)
	}
	if errorHandler == nil {
		errorHandler = apperrors.NewErrorHandler(logger, false)
	}
	return &RunsHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "runs")),
	}
}

// Routes returns the run routes
func (h *RunsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.ListRuns)
	r.Post("/", h.StartRun)
	r.Get("/active", h.ActiveRuns)
	r.Get("/{id}", h.GetRun)
	return r
}

// StartRun handles POST /api/runs. The run executes within the request.
func (h *RunsHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := h.validator.Decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp, err := h.service.StartRun(r.Context(), operations.Request{
		InputDir: req.InputDir,
		Mode:     req.Mode,
	})
	if resp != nil {
		w.Header().Set(RunIDHeader, resp.ID)
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "run served",
		slog.String("run_id", resp.ID),
		slog.String("status", string(resp.Status)))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

// ListRuns handles GET /api/runs
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := middleware.QueryInt(r, "limit", 1, MaxListLimit, store.DefaultListLimit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	runs, err := h.service.ListRuns(r.Context(), limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, RunList{Runs: runs, Count: len(runs)})
}

// GetRun handles GET /api/runs/{id}
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, run)
}

// ActiveRuns handles GET /api/runs/active
func (h *RunsHandler) ActiveRuns(w http.ResponseWriter, r *http.Request) {
	active := h.service.ActiveRuns()
	if active == nil {
		active = []string{}
	}
	render.JSON(w, r, ActiveRunList{Runs: active})
}
