package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShagReza/DataCuration-EASMS/internal/config"
	"github.com/ShagReza/DataCuration-EASMS/internal/operations"
	"github.com/ShagReza/DataCuration-EASMS/internal/shared/testutil"
	"github.com/ShagReza/DataCuration-EASMS/internal/store"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	if mutate != nil {
		mutate(cfg)
	}

	a, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	require.NoError(t, os.MkdirAll(a.Paths.InputDir, 0o755))
	return a
}

func writeBRD4(t *testing.T, a *Application) {
	testutil.WriteScreen(t, a.Paths.InputDir, "BRD4.csv",
		"c1,CCO,100,100,100,",
		"c2,CCN,1,1,1,",
		"c3,CCO,50,50,50,A",
	)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew_ResolvesPaths(t *testing.T) {
	a := newTestApp(t, nil)

	assert.DirExists(t, a.Paths.MLReadyDir)
	assert.DirExists(t, a.Paths.ReportsDir)
	assert.FileExists(t, a.Paths.DatabaseFile)
	assert.Equal(t, ":8080", a.Server.Addr)
	assert.GreaterOrEqual(t, a.Server.WriteTimeout, a.Config.Server.RunTimeout)
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
}

func TestRouter_RunLifecycle(t *testing.T) {
	a := newTestApp(t, nil)
	writeBRD4(t, a)
	h := a.Router

	rec := do(t, h, http.MethodPost, "/api/runs", `{"mode":"full"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Datasets []struct {
			RowsOut int `json:"rows_out"`
		} `json:"datasets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status)
	require.Len(t, resp.Datasets, 1)
	assert.Equal(t, 2, resp.Datasets[0].RowsOut)
	assert.FileExists(t, a.Paths.MLReadyPath("BRD4"))

	rec = do(t, h, http.MethodGet, "/api/runs/"+resp.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var run struct {
		Status   string `json:"status"`
		Datasets []struct {
			ConflictGroups int `json:"conflict_groups"`
		} `json:"datasets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, store.StatusCompleted, run.Status)
	require.Len(t, run.Datasets, 1)
	assert.Equal(t, 1, run.Datasets[0].ConflictGroups)

	rec = do(t, h, http.MethodGet, "/api/runs?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), resp.ID)

	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "easms_runs_total")
	assert.Contains(t, rec.Body.String(), "easms_http_requests_total")
}

func TestRouter_SchemaFailure(t *testing.T) {
	a := newTestApp(t, nil)
	testutil.WriteFile(t, a.Paths.InputDir, "ABL1.csv",
		"COMPOUND_ID,SMILES,POS_INT_REP1,POS_INT_REP2\nc1,CCO,1,2\n")

	rec := do(t, a.Router, http.MethodPost, "/api/runs", `{"mode":"score"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	runID := rec.Header().Get("X-Run-ID")
	require.NotEmpty(t, runID)
	run, err := a.Store.GetRun(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, run.Status)
}

func TestRouter_InputDirOutsideDataDir(t *testing.T) {
	a := newTestApp(t, nil)
	writeBRD4(t, a)

	outside := t.TempDir()
	victim := testutil.WriteScreen(t, outside, "victim.csv", "c1,CCO,1,2,3,")
	before, err := os.ReadFile(victim)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]string{"input_dir": outside, "mode": "score"})
	require.NoError(t, err)
	rec := do(t, a.Router, http.MethodPost, "/api/runs", string(body))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "INVALID_INPUT")
	assert.Empty(t, rec.Header().Get("X-Run-ID"))

	after, err := os.ReadFile(victim)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	rec = do(t, a.Router, http.MethodPost, "/api/runs", `{"input_dir":"input/../..","mode":"score"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	rec = do(t, a.Router, http.MethodPost, "/api/runs", `{"input_dir":"input","mode":"score"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	scored, err := os.ReadFile(filepath.Join(a.Paths.InputDir, "BRD4.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(scored), "EASMS_ENRICHMENT")
}

func TestRouter_Errors(t *testing.T) {
	a := newTestApp(t, nil)

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
	}{
		{name: "empty input", method: http.MethodPost, target: "/api/runs", body: `{"mode":"full"}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "invalid mode", method: http.MethodPost, target: "/api/runs", body: `{"mode":"fast"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown run", method: http.MethodGet, target: "/api/runs/missing", wantStatus: http.StatusNotFound},
		{name: "unknown route", method: http.MethodGet, target: "/api/nothing", wantStatus: http.StatusNotFound},
		{name: "health", method: http.MethodGet, target: "/api/health/ready", wantStatus: http.StatusOK},
		{name: "version", method: http.MethodGet, target: "/api/version", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, a.Router, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestRunBatch_WritesMetricsTextfile(t *testing.T) {
	textfile := filepath.Join(t.TempDir(), "easms.prom")
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Output.MetricsTextfile = textfile
	})
	writeBRD4(t, a)

	resp, err := a.RunBatch(context.Background(), operations.Request{Mode: config.ModeFull})
	require.NoError(t, err)
	assert.Equal(t, operations.OperationStatusCompleted, resp.Status)

	content, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "easms_records_scored_total")
}

func TestServe_StopsOnCancel(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Server.ShutdownTimeout = time.Second
	})
	a.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
