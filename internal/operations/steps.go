package operations

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ShagReza/DataCuration-EASMS/internal/config"
	"github.com/ShagReza/DataCuration-EASMS/internal/conflict"
	"github.com/ShagReza/DataCuration-EASMS/internal/dataset"
	"github.com/ShagReza/DataCuration-EASMS/internal/exporter"
	"github.com/ShagReza/DataCuration-EASMS/internal/files"
	"github.com/ShagReza/DataCuration-EASMS/internal/labeling"
	"github.com/ShagReza/DataCuration-EASMS/internal/scoring"
)

// StepDeps carries the collaborators shared by the curation steps
type StepDeps struct {
	Paths    *config.Paths
	Input    config.InputConfig
	Output   config.OutputConfig
	Workers  int
	Engine   *scoring.Engine
	Resolver *conflict.Resolver
	Assigner *labeling.Assigner
	CSV      *exporter.CSVWriter
	Workbook *exporter.WorkbookWriter
	Tracer   *OperationTracer
	Logger   *slog.Logger
}

// NewSteps builds every curation step from deps
func NewSteps(deps StepDeps) []Step {
	return []Step{
		&LoadStep{BaseStage: NewBaseStage(StepIDLoad, StepNameLoad), deps: deps},
		&ScoreStep{BaseStage: NewBaseStage(StepIDScore, StepNameScore), deps: deps},
		&ResolveStep{BaseStage: NewBaseStage(StepIDResolve, StepNameResolve), deps: deps},
		&LabelStep{BaseStage: NewBaseStage(StepIDLabel, StepNameLabel), deps: deps},
		&ExportStep{BaseStage: NewBaseStage(StepIDExport, StepNameExport), deps: deps},
		&RewriteStep{BaseStage: NewBaseStage(StepIDRewrite, StepNameRewrite), deps: deps},
	}
}

func setStepMetadata(state *OperationState, stepID, key string, value interface{}) {
	if s := state.GetStep(stepID); s != nil {
		s.SetMetadata(key, value)
	}
}

// LoadStep discovers and reads the dataset tables of the input directory
type LoadStep struct {
	BaseStage
	deps StepDeps
}

// Validate requires an input directory
func (s *LoadStep) Validate(state *OperationState) error {
	if state.InputDir == "" {
		return NewValidationError(s.ID(), "input directory is required")
	}
	return nil
}

// Execute reads every discovered table, bounded by the worker count
func (s *LoadStep) Execute(ctx context.Context, state *OperationState) error {
	found, err := files.Discover(state.InputDir)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return NewValidationError(s.ID(), fmt.Sprintf("no .csv or .xlsx datasets found in %s", state.InputDir))
	}

	workers := s.deps.Workers
	if workers <= 0 {
		workers = 1
	}
	loaded := make([]*dataset.Dataset, len(found))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range found {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ds, err := dataset.ReadFile(f.Path, dataset.ReadOptions{Sheet: s.deps.Input.Sheet})
			if err != nil {
				return fmt.Errorf("load %s: %w", f.Name, err)
			}
			s.warnCoerced(gctx, ds)
			loaded[i] = ds
			s.deps.Tracer.Metrics().RecordLoaded(gctx, strings.TrimPrefix(f.Ext, "."))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	state.SetDatasets(loaded)
	setStepMetadata(state, s.ID(), "datasets", len(loaded))

	rows := 0
	for _, ds := range loaded {
		rows += ds.Len()
	}
	s.deps.Logger.InfoContext(ctx, "datasets loaded",
		slog.String("input_dir", state.InputDir),
		slog.Int("datasets", len(loaded)),
		slog.Int("rows", rows))
	return nil
}

func (s *LoadStep) warnCoerced(ctx context.Context, ds *dataset.Dataset) {
	for _, column := range slices.Sorted(maps.Keys(ds.Coerced)) {
		s.deps.Logger.WarnContext(ctx, "non-numeric cells read as missing",
			slog.String("dataset", ds.Name),
			slog.String("column", column),
			slog.Int("cells", ds.Coerced[column]))
	}
}

// ScoreStep derives the enrichment and significance columns for the batch
type ScoreStep struct {
	BaseStage
	deps StepDeps
}

// Execute scores all loaded datasets as one batch
func (s *ScoreStep) Execute(ctx context.Context, state *OperationState) error {
	stats, err := s.deps.Engine.ScoreBatch(ctx, state.Datasets())
	if err != nil {
		return err
	}

	pvalueMissing := 0
	for _, st := range stats.Datasets {
		st := st
		if r := state.Result(st.Dataset); r != nil {
			r.Scoring = &st
		}
		pvalueMissing += st.PValueMissing
		s.deps.Tracer.Metrics().RecordScored(ctx, st.Dataset, st.Rows, st.PValueMissing)
	}
	setStepMetadata(state, s.ID(), "pvalue_missing", pvalueMissing)
	return nil
}

// ResolveStep removes duplicate rows and settles SMILES conflicts
type ResolveStep struct {
	BaseStage
	deps StepDeps
}

// Execute resolves each dataset and writes its conflict log when enabled
func (s *ResolveStep) Execute(ctx context.Context, state *OperationState) error {
	dropped := 0
	for _, ds := range state.Datasets() {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := s.deps.Resolver.Resolve(ctx, ds)
		if err != nil {
			return err
		}
		r := state.Result(ds.Name)
		r.Resolution = res
		r.RowsOut = res.RowsOut

		if s.deps.Output.ConflictLog {
			path := s.deps.Paths.ConflictLogPath(ds.Name)
			written, err := s.deps.CSV.WriteConflictLog(path, ds, res.Groups)
			if err != nil {
				return err
			}
			if written {
				r.ConflictLog = path
			}
		}

		conflictRows := res.RowsIn - res.DuplicatesDropped - res.RowsOut
		dropped += res.DuplicatesDropped + conflictRows
		s.deps.Tracer.Metrics().RecordResolved(ctx, ds.Name, res.DuplicatesDropped, conflictRows)
	}
	setStepMetadata(state, s.ID(), "rows_dropped", dropped)
	return nil
}

// LabelStep assigns the activity label to every record
type LabelStep struct {
	BaseStage
	deps StepDeps
}

// Execute labels each dataset in turn
func (s *LabelStep) Execute(ctx context.Context, state *OperationState) error {
	total := make(labeling.Distribution)
	for _, ds := range state.Datasets() {
		if err := ctx.Err(); err != nil {
			return err
		}

		dist, err := s.deps.Assigner.LabelDataset(ctx, ds)
		if err != nil {
			return err
		}
		state.Result(ds.Name).Labels = dist
		for _, l := range labeling.Labels {
			if n := dist[l]; n > 0 {
				total[l] += n
				s.deps.Tracer.Metrics().RecordLabels(ctx, ds.Name, int(l), n)
			}
		}
	}
	setStepMetadata(state, s.ID(), "labelled", total.Total())
	return nil
}

// ExportStep writes the ML-ready tables and the run summary workbook
type ExportStep struct {
	BaseStage
	deps StepDeps
}

// Execute writes MLReady_<name>.csv for every dataset
func (s *ExportStep) Execute(ctx context.Context, state *OperationState) error {
	for _, ds := range state.Datasets() {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := s.deps.Paths.MLReadyPath(ds.Name)
		if err := s.deps.CSV.WriteDataset(path, ds); err != nil {
			return err
		}
		r := state.Result(ds.Name)
		r.Output = path
		r.RowsOut = ds.Len()
	}

	if !s.deps.Output.SummaryWorkbook {
		return nil
	}

	results := state.Results()
	summaries := make([]exporter.DatasetSummary, 0, len(results))
	for _, r := range results {
		summaries = append(summaries, r.Summary())
	}
	path := s.deps.Paths.SummaryWorkbookPath()
	if err := s.deps.Workbook.WriteSummary(path, exporter.RunSummary{
		RunID:      state.ID,
		Mode:       state.Mode,
		InputDir:   state.InputDir,
		StartedAt:  state.StartTime,
		FinishedAt: time.Now(),
		Datasets:   summaries,
	}); err != nil {
		return err
	}
	state.SetSummaryWorkbook(path)
	return nil
}

// RewriteStep writes scored datasets back over their inputs
type RewriteStep struct {
	BaseStage
	deps StepDeps
}

// Execute rewrites each source file in place. Workbook sources are written
// as a CSV sibling with the same stem.
func (s *RewriteStep) Execute(ctx context.Context, state *OperationState) error {
	for _, ds := range state.Datasets() {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := RewriteTarget(ds.Source)
		if err := s.deps.CSV.WriteDataset(target, ds); err != nil {
			return err
		}
		state.Result(ds.Name).Output = target
	}
	return nil
}

// RewriteTarget returns the CSV path a scored input is rewritten to
func RewriteTarget(source string) string {
	ext := filepath.Ext(source)
	if strings.EqualFold(ext, config.DefaultOutputExt) {
		return source
	}
	return strings.TrimSuffix(source, ext) + config.DefaultOutputExt
}
