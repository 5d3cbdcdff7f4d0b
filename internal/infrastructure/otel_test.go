package infrastructure

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShagReza/DataCuration-EASMS/internal/shared/testutil"
)

func newTestProviders(t *testing.T, cfg *OTelConfig) *OTelProviders {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	providers, err := InitializeOTel(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(ctx)
	})
	return providers
}

func TestInitializeOTelDefaults(t *testing.T) {
	providers := newTestProviders(t, nil)

	assert.Nil(t, providers.TracerProvider, "default trace exporter is none")
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Registry)
	assert.NotNil(t, providers.PrometheusHTTP)
}

func TestInitializeOTelStdoutTracing(t *testing.T) {
	var spans bytes.Buffer
	cfg := DefaultOTelConfig()
	cfg.TraceExporter = "stdout"
	cfg.TraceWriter = &spans
	providers := newTestProviders(t, cfg)
	require.NotNil(t, providers.TracerProvider)

	ctx, span := providers.Tracer.Start(context.Background(), "curation.score")
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	RecordError(ctx, assert.AnError)
	span.End()

	require.NoError(t, providers.TracerProvider.ForceFlush(context.Background()))
	assert.Contains(t, spans.String(), "curation.score")
}

func TestInitializeOTelMetricsDisabled(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.EnableMetrics = false
	providers := newTestProviders(t, cfg)

	assert.Nil(t, providers.Registry)
	assert.NotNil(t, providers.Meter)

	m, err := NewCurationMetrics(providers.Meter)
	require.NoError(t, err)
	m.RecordRun(context.Background(), "full", true)

	assert.Error(t, providers.WriteMetricsTextfile(filepath.Join(t.TempDir(), "m.prom")))
}

func TestInitializeOTelUnknownExporter(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.TraceExporter = "zipkin"
	_, err := InitializeOTel(cfg, nil)
	assert.Error(t, err)
}

func TestCurationMetricsExport(t *testing.T) {
	providers := newTestProviders(t, DefaultOTelConfig())
	m, err := NewCurationMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordRun(ctx, "full", true)
	m.RecordStep(ctx, "score", 120*time.Millisecond, true)
	m.RecordScored(ctx, "BRD4", 10, 2)
	m.RecordResolved(ctx, "BRD4", 1, 3)
	m.RecordLabels(ctx, "BRD4", -2, 4)

	server := httptest.NewServer(providers.PrometheusHTTP)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	for _, name := range []string{
		"easms_runs_total",
		"easms_records_scored_total",
		"easms_pvalues_missing_total",
		"easms_conflict_rows_dropped_total",
		"easms_labels_assigned_total",
		"easms_step_duration",
	} {
		assert.Contains(t, string(body), name)
	}
	assert.Contains(t, string(body), `label="-2"`)
}

func TestWriteMetricsTextfile(t *testing.T) {
	providers := newTestProviders(t, DefaultOTelConfig())
	m, err := NewCurationMetrics(providers.Meter)
	require.NoError(t, err)
	m.RecordScored(context.Background(), "HDAC1", 5, 0)

	path := filepath.Join(t.TempDir(), "easms.prom")
	require.NoError(t, providers.WriteMetricsTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "easms_records_scored_total")
	assert.Contains(t, string(content), `dataset="HDAC1"`)
}

func TestNilCurationMetrics(t *testing.T) {
	var m *CurationMetrics
	assert.NotPanics(t, func() {
		ctx := context.Background()
		m.RecordRun(ctx, "full", false)
		m.RecordStep(ctx, "load", time.Second, false)
		m.RecordScored(ctx, "x", 1, 1)
		m.RecordHTTPRequest(ctx, http.MethodGet, "/api/runs", 200, time.Millisecond)
	})
}
