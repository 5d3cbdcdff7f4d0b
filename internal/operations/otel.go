package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ShagReza/DataCuration-EASMS/internal/infrastructure"
)

const (
	TracerName = "easms.curation"
)

var noopSpan = trace.SpanFromContext(context.Background())

// OperationTracer provides OpenTelemetry instrumentation for curation runs.
// A nil tracer is valid and records nothing.
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.CurationMetrics
}

// NewOperationTracer creates a run tracer. Without providers spans go to the
// global tracer provider and no metrics are recorded.
func NewOperationTracer(providers *infrastructure.OTelProviders) (*OperationTracer, error) {
	if providers == nil {
		return &OperationTracer{tracer: otel.Tracer(TracerName)}, nil
	}

	metrics, err := infrastructure.NewCurationMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create curation metrics: %w", err)
	}
	return &OperationTracer{
		tracer:  providers.Tracer,
		metrics: metrics,
	}, nil
}

// Metrics returns the curation instruments, nil when metrics are disabled
func (pt *OperationTracer) Metrics() *infrastructure.CurationMetrics {
	if pt == nil {
		return nil
	}
	return pt.metrics
}

// TraceRun creates a span for an entire run
func (pt *OperationTracer) TraceRun(ctx context.Context, state *OperationState) (context.Context, trace.Span) {
	if pt == nil {
		return ctx, noopSpan
	}
	return pt.tracer.Start(ctx, fmt.Sprintf("curation.run.%s", state.Mode),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", state.ID),
			attribute.String("run.mode", state.Mode),
			attribute.String("run.input_dir", state.InputDir),
		),
	)
}

// TraceStep creates a span for an individual step
func (pt *OperationTracer) TraceStep(ctx context.Context, runID, stepID string) (context.Context, trace.Span) {
	if pt == nil {
		return ctx, noopSpan
	}
	return pt.tracer.Start(ctx, fmt.Sprintf("curation.step.%s", stepID),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("step.id", stepID),
		),
	)
}

// RecordStepCompletion records step duration and outcome on span and metrics
func (pt *OperationTracer) RecordStepCompletion(ctx context.Context, span trace.Span, stepID string, duration time.Duration, err error) {
	span.SetAttributes(attribute.Float64("step.duration_seconds", duration.Seconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "step completed")
	}
	pt.Metrics().RecordStep(ctx, stepID, duration, err == nil)
}

// RecordRunCompletion records the run outcome on span and metrics
func (pt *OperationTracer) RecordRunCompletion(ctx context.Context, span trace.Span, state *OperationState) {
	status := state.GetStatus()
	span.SetAttributes(
		attribute.String("run.status", string(status)),
		attribute.Int("run.datasets", len(state.Datasets())),
		attribute.Float64("run.duration_seconds", state.Duration().Seconds()),
	)
	if status == OperationStatusCompleted {
		span.SetStatus(codes.Ok, "run completed")
	} else {
		span.SetStatus(codes.Error, fmt.Sprintf("run finished with status %s", status))
	}
	pt.Metrics().RecordRun(ctx, state.Mode, status == OperationStatusCompleted)
}
