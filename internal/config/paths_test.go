package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	dataDir := t.TempDir()
	absInput := filepath.Join(t.TempDir(), "screens")

	paths, err := GetPaths(PathsConfig{
		DataDir:      dataDir,
		InputDir:     absInput,
		MLReadyDir:   "mlready",
		ReportsDir:   "out/reports",
		LogsDir:      "logs",
		DatabaseFile: "db/runs.db",
	})
	require.NoError(t, err)

	assert.Equal(t, dataDir, paths.DataDir)
	assert.Equal(t, absInput, paths.InputDir)
	assert.Equal(t, filepath.Join(dataDir, "mlready"), paths.MLReadyDir)
	assert.Equal(t, filepath.Join(dataDir, "out", "reports"), paths.ReportsDir)
	assert.Equal(t, filepath.Join(dataDir, "db", "runs.db"), paths.DatabaseFile)
}

func TestGetPathsRelativeDataDir(t *testing.T) {
	paths, err := GetPaths(Default().Paths)
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "data"), paths.DataDir)
	assert.True(t, filepath.IsAbs(paths.MLReadyDir))
}

func TestEnsureDirectories(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	cfg := Default().Paths
	cfg.DataDir = dataDir
	cfg.DatabaseFile = "state/runs.db"

	paths, err := GetPaths(cfg)
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.MLReadyDir, paths.ReportsDir, paths.LogsDir, filepath.Join(dataDir, "state")} {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir())
	}
	assert.False(t, FileExists(paths.InputDir), "input dir is never created")
}

func TestOutputPaths(t *testing.T) {
	paths := &Paths{MLReadyDir: "/out/ml", ReportsDir: "/out/reports"}

	assert.Equal(t, filepath.Join("/out/ml", "MLReady_BRD4.csv"), paths.MLReadyPath("BRD4"))
	assert.Equal(t, filepath.Join("/out/reports", "Conflicting_SMILES_Log_BRD4.csv"), paths.ConflictLogPath("BRD4"))
	assert.Equal(t, filepath.Join("/out/reports", "curation_summary.xlsx"), paths.SummaryWorkbookPath())
}

func TestStem(t *testing.T) {
	assert.Equal(t, "BRD4", Stem("/data/in/BRD4.csv"))
	assert.Equal(t, "HDAC1.v2", Stem("HDAC1.v2.xlsx"))
}

func TestIsGeneratedName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"BRD4.csv", false},
		{"MLReady_BRD4.csv", true},
		{"Conflicting_SMILES_Log_BRD4.csv", true},
		{"~$BRD4.xlsx", true},
		{"/data/MLReady_x.xlsx", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsGeneratedName(tt.name))
		})
	}
}
