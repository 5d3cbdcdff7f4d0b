package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ShagReza/DataCuration-EASMS/internal/config"
	"github.com/ShagReza/DataCuration-EASMS/internal/conflict"
	apperrors "github.com/ShagReza/DataCuration-EASMS/internal/errors"
	"github.com/ShagReza/DataCuration-EASMS/internal/exporter"
	"github.com/ShagReza/DataCuration-EASMS/internal/infrastructure"
	"github.com/ShagReza/DataCuration-EASMS/internal/labeling"
	"github.com/ShagReza/DataCuration-EASMS/internal/scoring"
	"github.com/ShagReza/DataCuration-EASMS/internal/store"
)

// RunRecorder persists finished runs
type RunRecorder interface {
	SaveRun(ctx context.Context, run *store.Run) error
}

// ManagerOptions configures a Manager. Only Registry is required to run
// anything; the rest fall back to defaults or are skipped.
type ManagerOptions struct {
	Registry        *Registry
	Config          *Config
	DefaultInputDir string
	Tracer          *OperationTracer
	Recorder        RunRecorder
	Logger          *slog.Logger
}

// Manager orchestrates curation runs
type Manager struct {
	registry        *Registry
	config          *Config
	defaultInputDir string
	tracer          *OperationTracer
	recorder        RunRecorder
	logger          *slog.Logger

	// Active runs
	mu         sync.RWMutex
	operations map[string]*OperationState
}

// NewManager creates a new run manager
func NewManager(opts ManagerOptions) *Manager {
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if opts.Config == nil {
		opts.Config = NewConfig()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		registry:        opts.Registry,
		config:          opts.Config,
		defaultInputDir: opts.DefaultInputDir,
		tracer:          opts.Tracer,
		recorder:        opts.Recorder,
		logger:          infrastructure.WithComponent(opts.Logger, "operations"),
		operations:      make(map[string]*OperationState),
	}
}

// NewCurationManager wires the full curation pipeline from the application
// configuration. providers and recorder may be nil.
func NewCurationManager(cfg *config.Config, paths *config.Paths, providers *infrastructure.OTelProviders, recorder RunRecorder, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tracer, err := NewOperationTracer(providers)
	if err != nil {
		return nil, err
	}

	csvWriter := exporter.NewCSVWriter(logger)
	deps := StepDeps{
		Paths:   paths,
		Input:   cfg.Input,
		Output:  cfg.Output,
		Workers: cfg.Scoring.Workers,
		Engine: scoring.NewEngine(scoring.Options{
			MinPooledValues: cfg.Scoring.MinPooledValues,
			VarianceEpsilon: cfg.Scoring.VarianceEpsilon,
			Workers:         cfg.Scoring.Workers,
			NonTargetHeader: cfg.Output.NonTargetColumn,
		}, logger),
		Resolver: conflict.NewResolver(logger),
		Assigner: labeling.NewAssigner(cfg.Output.LabelColumn, logger),
		CSV:      csvWriter,
		Workbook: exporter.NewWorkbookWriter(logger),
		Tracer:   tracer,
		Logger:   infrastructure.WithComponent(logger, "steps"),
	}

	registry := NewRegistry()
	for _, step := range NewSteps(deps) {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
	}

	opCfg := NewConfig()
	opCfg.Workers = cfg.Scoring.Workers
	return NewManager(ManagerOptions{
		Registry:        registry,
		Config:          opCfg,
		DefaultInputDir: paths.InputDir,
		Tracer:          tracer,
		Recorder:        recorder,
		Logger:          logger,
	}), nil
}

// Metrics returns the curation instruments, nil when metrics are disabled
func (m *Manager) Metrics() *infrastructure.CurationMetrics {
	return m.tracer.Metrics()
}

// Run executes the steps of req.Mode in order and stops at the first failure.
// A response is returned whenever the run started, together with the error
// that ended it.
func (m *Manager) Run(ctx context.Context, req Request) (*Response, error) {
	mode := req.Mode
	if mode == "" {
		mode = config.ModeFull
	}
	ids, ok := StepsForMode(mode)
	if !ok {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("unknown run mode %q", mode))
	}
	inputDir := req.InputDir
	if inputDir == "" {
		inputDir = m.defaultInputDir
	}
	steps, err := m.registry.Resolve(ids)
	if err != nil {
		return nil, NewFatalError("run steps not registered", err)
	}

	id := req.ID
	if id == "" {
		id = infrastructure.NewRunID()
	}
	ctx = infrastructure.EnsureTraceID(infrastructure.WithRunID(ctx, id))

	state := NewOperationState(id, mode, inputDir)
	for _, step := range steps {
		state.AddStep(NewStepState(step.ID(), step.Name()))
	}

	m.storeOperation(state)
	defer m.removeOperation(id)

	ctx, span := m.tracer.TraceRun(ctx, state)
	defer span.End()

	state.Start()
	m.logger.InfoContext(ctx, "run started",
		slog.String("mode", mode),
		slog.String("input_dir", inputDir),
		slog.Int("steps", len(steps)))

	err = m.executeSequential(ctx, state, steps)
	switch {
	case err == nil:
		state.Complete()
	case ctx.Err() != nil:
		state.Cancel(err)
	default:
		state.Fail(err)
	}

	m.tracer.RecordRunCompletion(ctx, span, state)
	m.record(ctx, state)

	level := slog.LevelInfo
	attrs := []slog.Attr{
		slog.String("status", string(state.GetStatus())),
		slog.Int("datasets", len(state.Datasets())),
		slog.Duration("duration", state.Duration()),
	}
	if err != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	m.logger.LogAttrs(ctx, level, "run finished", attrs...)

	return m.createResponse(state), err
}

// executeSequential executes steps one by one, skipping the rest after a failure
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	for i, step := range steps {
		var err error
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = NewCancellationError(step.ID(), ctxErr)
			state.GetStep(step.ID()).Fail(err)
		} else {
			err = m.executeStep(ctx, state, step)
		}
		if err != nil {
			for _, rest := range steps[i+1:] {
				state.GetStep(rest.ID()).Skip(fmt.Sprintf("previous step %s failed", step.ID()))
			}
			return err
		}
	}
	return nil
}

// executeStep validates and runs a single Step within its timeout
func (m *Manager) executeStep(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStep(step.ID())

	if err := step.Validate(state); err != nil {
		m.logger.WarnContext(ctx, "step validation failed",
			slog.String("step", step.ID()),
			slog.String("error", err.Error()))
		stepState.Fail(err)
		return err
	}

	timeout := m.config.GetStepTimeout(step.ID())
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	stepCtx, span := m.tracer.TraceStep(stepCtx, state.ID, step.ID())
	defer span.End()

	stepState.Start()
	m.logger.DebugContext(ctx, "executing step", slog.String("step", step.ID()))
	start := time.Now()
	err := step.Execute(stepCtx, state)
	duration := time.Since(start)
	m.tracer.RecordStepCompletion(stepCtx, span, step.ID(), duration, err)

	if err != nil {
		err = m.classify(ctx, step.ID(), timeout, err)
		stepState.Fail(err)
		m.logger.ErrorContext(ctx, "step failed",
			slog.String("step", step.ID()),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return err
	}

	stepState.Complete()
	m.logger.InfoContext(ctx, "step completed",
		slog.String("step", step.ID()),
		slog.Duration("duration", duration))
	return nil
}

func (m *Manager) classify(ctx context.Context, stepID string, timeout time.Duration, err error) error {
	var opErr *OperationError
	switch {
	case errors.As(err, &opErr):
		if opErr.Step == "" {
			opErr.Step = stepID
		}
		return opErr
	case ctx.Err() != nil:
		return NewCancellationError(stepID, err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError(stepID, timeout.String(), err)
	default:
		return NewExecutionError(stepID, err)
	}
}

func (m *Manager) record(ctx context.Context, state *OperationState) {
	if m.recorder == nil {
		return
	}

	run := &store.Run{
		ID:        state.ID,
		Mode:      state.Mode,
		InputDir:  state.InputDir,
		Status:    string(state.GetStatus()),
		StartedAt: state.StartTime,
	}
	if state.EndTime != nil {
		run.FinishedAt = *state.EndTime
	}
	if state.Error != nil {
		run.Error = state.Error.Error()
	}
	for _, r := range state.Results() {
		run.Datasets = append(run.Datasets, r.Record())
	}

	// a run that cannot be recorded still completed
	if err := m.recorder.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		m.logger.WarnContext(ctx, "failed to record run", slog.String("error", err.Error()))
	}
}

// createResponse creates a run response from state
func (m *Manager) createResponse(state *OperationState) *Response {
	resp := &Response{
		ID:              state.ID,
		Mode:            state.Mode,
		InputDir:        state.InputDir,
		Status:          state.GetStatus(),
		StartedAt:       state.StartTime,
		Duration:        state.Duration(),
		Steps:           state.Steps(),
		Datasets:        state.Results(),
		SummaryWorkbook: state.SummaryWorkbook(),
	}
	if state.EndTime != nil {
		resp.FinishedAt = *state.EndTime
	}
	if state.Error != nil {
		resp.Error = state.Error.Error()
	}
	return resp
}

// ActiveRuns returns the ids of runs currently executing
func (m *Manager) ActiveRuns() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.operations))
	for id := range m.operations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// storeOperation stores a run state
func (m *Manager) storeOperation(state *OperationState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[state.ID] = state
}

// removeOperation removes a run state
func (m *Manager) removeOperation(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.operations, id)
}
