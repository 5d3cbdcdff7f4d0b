package operations

import (
	"time"

	"github.com/ShagReza/DataCuration-EASMS/internal/config"
	"github.com/ShagReza/DataCuration-EASMS/internal/conflict"
	"github.com/ShagReza/DataCuration-EASMS/internal/exporter"
	"github.com/ShagReza/DataCuration-EASMS/internal/labeling"
	"github.com/ShagReza/DataCuration-EASMS/internal/scoring"
	"github.com/ShagReza/DataCuration-EASMS/internal/store"
)

// Step identifiers
const (
	StepIDLoad    = "load"
	StepIDScore   = "score"
	StepIDResolve = "resolve"
	StepIDLabel   = "label"
	StepIDExport  = "export"
	StepIDRewrite = "rewrite"
)

// Step names
const (
	StepNameLoad    = "Dataset Loading"
	StepNameScore   = "Enrichment Scoring"
	StepNameResolve = "Conflict Resolution"
	StepNameLabel   = "Label Assignment"
	StepNameExport  = "ML-Ready Export"
	StepNameRewrite = "Scored Input Rewrite"
)

// Default timeouts
const (
	DefaultStepTimeout = 30 * time.Minute
	DefaultLoadTimeout = 10 * time.Minute
)

// modeSteps lists the steps each run mode executes, in order.
var modeSteps = map[string][]string{
	config.ModeFull:  {StepIDLoad, StepIDScore, StepIDResolve, StepIDLabel, StepIDExport},
	config.ModeScore: {StepIDLoad, StepIDScore, StepIDRewrite},
	config.ModeLabel: {StepIDLoad, StepIDLabel, StepIDExport},
}

// StepsForMode returns the step ids of a run mode.
func StepsForMode(mode string) ([]string, bool) {
	ids, ok := modeSteps[mode]
	if !ok {
		return nil, false
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out, true
}

// Request describes a curation run.
type Request struct {
	// ID is generated when empty.
	ID string `json:"id,omitempty"`
	// InputDir defaults to the configured input directory.
	InputDir string `json:"input_dir,omitempty"`
	// Mode defaults to full.
	Mode string `json:"mode,omitempty"`
}

// DatasetResult collects everything the run learned about one dataset.
type DatasetResult struct {
	Dataset     string                `json:"dataset"`
	Source      string                `json:"source"`
	Output      string                `json:"output,omitempty"`
	ConflictLog string                `json:"conflict_log,omitempty"`
	RowsIn      int                   `json:"rows_in"`
	RowsOut     int                   `json:"rows_out"`
	Scoring     *scoring.DatasetStats `json:"scoring,omitempty"`
	Resolution  *conflict.Result      `json:"resolution,omitempty"`
	Labels      labeling.Distribution `json:"labels,omitempty"`
}

// Summary converts the result to a summary workbook row.
func (r *DatasetResult) Summary() exporter.DatasetSummary {
	s := exporter.DatasetSummary{
		Dataset: r.Dataset,
		Source:  r.Source,
		Output:  r.Output,
		RowsIn:  r.RowsIn,
		RowsOut: r.RowsOut,
		Labels:  r.Labels,
	}
	if r.Scoring != nil {
		s.NoComplement = r.Scoring.NoComplement
		s.PValueMissing = r.Scoring.PValueMissing
	}
	if r.Resolution != nil {
		s.DuplicatesDropped = r.Resolution.DuplicatesDropped
		s.ConflictGroups = r.Resolution.ConflictGroups
		s.GroupsDropped = r.Resolution.GroupsDropped
	}
	return s
}

// Record converts the result to a run ledger row.
func (r *DatasetResult) Record() store.DatasetRun {
	s := r.Summary()
	return store.DatasetRun{
		Dataset:           s.Dataset,
		Source:            s.Source,
		Output:            s.Output,
		RowsIn:            s.RowsIn,
		RowsOut:           s.RowsOut,
		PValueMissing:     s.PValueMissing,
		DuplicatesDropped: s.DuplicatesDropped,
		ConflictGroups:    s.ConflictGroups,
		GroupsDropped:     s.GroupsDropped,
		Labels:            s.Labels,
	}
}

// Response represents the outcome of a run
type Response struct {
	ID              string               `json:"id"`
	Mode            string               `json:"mode"`
	InputDir        string               `json:"input_dir"`
	Status          OperationStatusValue `json:"status"`
	StartedAt       time.Time            `json:"started_at"`
	FinishedAt      time.Time            `json:"finished_at"`
	Duration        time.Duration        `json:"duration"`
	Steps           []*StepState         `json:"steps"`
	Datasets        []*DatasetResult     `json:"datasets"`
	SummaryWorkbook string               `json:"summary_workbook,omitempty"`
	Error           string               `json:"error,omitempty"`
}
