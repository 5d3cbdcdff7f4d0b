package infrastructure

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CurationMetrics holds the curation pipeline instruments. A nil
// *CurationMetrics is valid and records nothing.
type CurationMetrics struct {
	// Pipeline metrics
	RunsTotal      metric.Int64Counter
	StepDuration   metric.Float64Histogram
	DatasetsLoaded metric.Int64Counter

	// Domain metrics
	RecordsScored       metric.Int64Counter
	PValuesMissing      metric.Int64Counter
	DuplicatesDropped   metric.Int64Counter
	ConflictRowsDropped metric.Int64Counter
	LabelsAssigned      metric.Int64Counter

	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
}

// NewCurationMetrics creates the curation instruments on meter
func NewCurationMetrics(meter metric.Meter) (*CurationMetrics, error) {
	m := &CurationMetrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.RunsTotal, "easms_runs_total", "Curation runs by mode and status"},
		{&m.DatasetsLoaded, "easms_datasets_loaded_total", "Datasets read from input files"},
		{&m.RecordsScored, "easms_records_scored_total", "Records given derived score columns"},
		{&m.PValuesMissing, "easms_pvalues_missing_total", "Scored records left without a p-value"},
		{&m.DuplicatesDropped, "easms_duplicate_rows_dropped_total", "Exact duplicate rows removed"},
		{&m.ConflictRowsDropped, "easms_conflict_rows_dropped_total", "Rows removed while resolving SMILES conflicts"},
		{&m.LabelsAssigned, "easms_labels_assigned_total", "Labels assigned by value"},
		{&m.HTTPRequestsTotal, "easms_http_requests_total", "HTTP requests by route and status"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
	}

	m.StepDuration, err = meter.Float64Histogram(
		"easms_step_duration",
		metric.WithDescription("Pipeline step duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"easms_http_request_duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func statusAttr(success bool) attribute.KeyValue {
	if success {
		return attribute.String("status", "success")
	}
	return attribute.String("status", "failure")
}

// RecordRun counts a finished run
func (m *CurationMetrics) RecordRun(ctx context.Context, mode string, success bool) {
	if m == nil {
		return
	}
	m.RunsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode), statusAttr(success)))
}

// RecordStep records the duration of a pipeline step
func (m *CurationMetrics) RecordStep(ctx context.Context, step string, d time.Duration, success bool) {
	if m == nil {
		return
	}
	m.StepDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("step", step), statusAttr(success)))
}

// RecordLoaded counts a dataset read from disk
func (m *CurationMetrics) RecordLoaded(ctx context.Context, format string) {
	if m == nil {
		return
	}
	m.DatasetsLoaded.Add(ctx, 1, metric.WithAttributes(attribute.String("format", format)))
}

// RecordScored records the scoring outcome of one dataset
func (m *CurationMetrics) RecordScored(ctx context.Context, dataset string, rows, pvalueMissing int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("dataset", dataset))
	m.RecordsScored.Add(ctx, int64(rows), attrs)
	m.PValuesMissing.Add(ctx, int64(pvalueMissing), attrs)
}

// RecordResolved records the conflict resolution outcome of one dataset
func (m *CurationMetrics) RecordResolved(ctx context.Context, dataset string, duplicates, conflictRows int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("dataset", dataset))
	m.DuplicatesDropped.Add(ctx, int64(duplicates), attrs)
	m.ConflictRowsDropped.Add(ctx, int64(conflictRows), attrs)
}

// RecordLabels records how many records of a dataset received label
func (m *CurationMetrics) RecordLabels(ctx context.Context, dataset string, label, count int) {
	if m == nil {
		return
	}
	m.LabelsAssigned.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("dataset", dataset),
		attribute.String("label", strconv.Itoa(label)),
	))
}

// RecordHTTPRequest records a served HTTP request
func (m *CurationMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("code", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, d.Seconds(), attrs)
}
