package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/ShagReza/DataCuration-EASMS/internal/errors"
	"github.com/ShagReza/DataCuration-EASMS/internal/operations"
	"github.com/ShagReza/DataCuration-EASMS/internal/store"
)

// RunManager executes curation runs
type RunManager interface {
	Run(ctx context.Context, req operations.Request) (*operations.Response, error)
	ActiveRuns() []string
}

// RunLedger reads recorded runs
type RunLedger interface {
	GetRun(ctx context.Context, id string) (*store.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*store.Run, error)
}

// RunService starts curation runs and queries their history
type RunService struct {
	manager    RunManager
	ledger     RunLedger
	runTimeout time.Duration
	dataDir    string
	logger     *slog.Logger
}

// NewRunService creates a run service. A zero runTimeout leaves runs bounded
// only by the caller's context. A non-empty dataDir confines requested input
// directories to that tree; relative ones are taken relative to it.
func NewRunService(manager RunManager, ledger RunLedger, runTimeout time.Duration, dataDir string, logger *slog.Logger) *RunService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunService{
		manager:    manager,
		ledger:     ledger,
		runTimeout: runTimeout,
		dataDir:    dataDir,
		logger:     logger.With(slog.String("service", "runs")),
	}
}

// StartRun executes req synchronously. When the run started but failed, the
// response is returned together with an API error describing the failure.
func (s *RunService) StartRun(ctx context.Context, req operations.Request) (*operations.Response, error) {
	dir, err := s.resolveInputDir(req.InputDir)
	if err != nil {
		s.logger.WarnContext(ctx, "input directory rejected",
			slog.String("input_dir", req.InputDir),
			slog.String("error", err.Error()))
		return nil, apperrors.ErrInvalidInput(err)
	}
	req.InputDir = dir

	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	resp, err := s.manager.Run(ctx, req)
	if err != nil {
		s.logger.WarnContext(ctx, "run did not complete",
			slog.String("mode", req.Mode),
			slog.String("error", err.Error()))
		return resp, runError(err)
	}
	return resp, nil
}

// resolveInputDir places dir under the data directory and rejects any path
// that leaves it, following symlinks that already exist.
func (s *RunService) resolveInputDir(dir string) (string, error) {
	if s.dataDir == "" || dir == "" {
		return dir, nil
	}

	path := dir
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dataDir, path)
	}
	path = filepath.Clean(path)

	rel, err := filepath.Rel(realPath(s.dataDir), realPath(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("input_dir %q is outside the data directory", dir)
	}
	return path, nil
}

func realPath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return filepath.Clean(path)
}

// runError maps a run failure onto the API error the client should see
func runError(err error) error {
	var schemaErr *apperrors.SchemaError
	if errors.As(err, &schemaErr) {
		return apperrors.ErrSchema(schemaErr)
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ErrTypeValidation:
			return err
		case apperrors.ErrTypeParsing:
			return apperrors.ErrInvalidInput(err)
		}
	}

	switch operations.GetErrorType(err) {
	case operations.ErrorTypeValidation:
		return apperrors.ErrInvalidInput(err)
	case operations.ErrorTypeTimeout, operations.ErrorTypeCancellation:
		return err
	}
	return apperrors.ErrRunExecution(err)
}

// GetRun returns a recorded run
func (s *RunService) GetRun(ctx context.Context, id string) (*store.Run, error) {
	run, err := s.ledger.GetRun(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFoundError("run " + id)
		}
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first
func (s *RunService) ListRuns(ctx context.Context, limit int) ([]*store.Run, error) {
	return s.ledger.ListRuns(ctx, limit)
}

// ActiveRuns returns the IDs of runs in progress
func (s *RunService) ActiveRuns() []string {
	return s.manager.ActiveRuns()
}
