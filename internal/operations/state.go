package operations

import (
	"sync"
	"time"

	"github.com/ShagReza/DataCuration-EASMS/internal/dataset"
)

// OperationStatusValue represents the overall run status
type OperationStatusValue string

const (
	OperationStatusPending   OperationStatusValue = "pending"
	OperationStatusRunning   OperationStatusValue = "running"
	OperationStatusCompleted OperationStatusValue = "completed"
	OperationStatusFailed    OperationStatusValue = "failed"
	OperationStatusCancelled OperationStatusValue = "cancelled"
)

// OperationState is the state of one curation run, shared by its steps.
type OperationState struct {
	mu sync.RWMutex

	ID        string
	Mode      string
	InputDir  string
	Status    OperationStatusValue
	StartTime time.Time
	EndTime   *time.Time
	Error     error

	steps     map[string]*StepState
	stepOrder []string

	datasets        []*dataset.Dataset
	results         map[string]*DatasetResult
	summaryWorkbook string
}

// NewOperationState creates a new run state
func NewOperationState(id, mode, inputDir string) *OperationState {
	return &OperationState{
		ID:        id,
		Mode:      mode,
		InputDir:  inputDir,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		steps:     make(map[string]*StepState),
		results:   make(map[string]*DatasetResult),
	}
}

// Start marks the run as running
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the run as completed
func (p *OperationState) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCompleted
}

// Fail marks the run as failed
func (p *OperationState) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusFailed
	p.Error = err
}

// Cancel marks the run as cancelled
func (p *OperationState) Cancel(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCancelled
	p.Error = err
}

// GetStatus returns the run status
func (p *OperationState) GetStatus() OperationStatusValue {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Status
}

// AddStep registers the state of a step in execution order
func (p *OperationState) AddStep(state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.steps[state.ID]; !ok {
		p.stepOrder = append(p.stepOrder, state.ID)
	}
	p.steps[state.ID] = state
}

// GetStep returns the state of a specific Step
func (p *OperationState) GetStep(id string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.steps[id]
}

// Steps returns the step states in execution order
func (p *OperationState) Steps() []*StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*StepState, 0, len(p.stepOrder))
	for _, id := range p.stepOrder {
		out = append(out, p.steps[id])
	}
	return out
}

// SetDatasets replaces the loaded datasets and starts a result for each.
func (p *OperationState) SetDatasets(datasets []*dataset.Dataset) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.datasets = datasets
	p.results = make(map[string]*DatasetResult, len(datasets))
	for _, ds := range datasets {
		p.results[ds.Name] = &DatasetResult{
			Dataset: ds.Name,
			Source:  ds.Source,
			RowsIn:  ds.Len(),
			RowsOut: ds.Len(),
		}
	}
}

// Datasets returns the loaded datasets in load order
func (p *OperationState) Datasets() []*dataset.Dataset {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.datasets
}

// Result returns the result entry of the named dataset
func (p *OperationState) Result(name string) *DatasetResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.results[name]
}

// Results returns the dataset results in load order
func (p *OperationState) Results() []*DatasetResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*DatasetResult, 0, len(p.datasets))
	for _, ds := range p.datasets {
		if r, ok := p.results[ds.Name]; ok {
			out = append(out, r)
		}
	}
	return out
}

// SetSummaryWorkbook records the path of the written summary workbook
func (p *OperationState) SetSummaryWorkbook(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summaryWorkbook = path
}

// SummaryWorkbook returns the summary workbook path, if one was written
func (p *OperationState) SummaryWorkbook() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.summaryWorkbook
}

// Duration returns the duration of the run
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}
