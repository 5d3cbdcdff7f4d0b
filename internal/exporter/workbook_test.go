package exporter

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ShagReza/DataCuration-EASMS/internal/labeling"
	"github.com/ShagReza/DataCuration-EASMS/internal/shared/testutil"
)

func TestWorkbookWriter_WriteSummary(t *testing.T) {
	logger, buf := testutil.NewTestLogger(t)
	w := NewWorkbookWriter(logger)

	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	run := RunSummary{
		RunID:      "run-1",
		Mode:       "full",
		InputDir:   "/data/input",
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Datasets: []DatasetSummary{
			{
				Dataset: "BRD4", Source: "/data/input/BRD4.csv", Output: "/data/mlready/MLReady_BRD4.csv",
				RowsIn: 10, RowsOut: 8, PValueMissing: 1, DuplicatesDropped: 1, ConflictGroups: 1, GroupsDropped: 1,
				Labels: labeling.Distribution{labeling.Strong: 3, labeling.Inactive: 5},
			},
			{Dataset: "HDAC1", RowsIn: 4, RowsOut: 4, Labels: labeling.Distribution{labeling.Missing: 4}},
		},
	}

	path := filepath.Join(t.TempDir(), "reports", "curation_summary.xlsx")
	require.NoError(t, w.WriteSummary(path, run))
	assert.True(t, buf.ContainsMessage("summary workbook written"))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, LabelsSheet, RunSheet}, f.GetSheetList())

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, "Dataset", summary[0][0])
	assert.Equal(t, []string{"BRD4", "/data/input/BRD4.csv", "/data/mlready/MLReady_BRD4.csv", "10", "8", "0", "1", "1", "1", "1"}, summary[1])

	labels, err := f.GetRows(LabelsSheet)
	require.NoError(t, err)
	require.Len(t, labels, 3)
	assert.Equal(t, "-2 (missing)", labels[0][1])
	assert.Equal(t, "Total", labels[0][len(labels[0])-1])
	// Missing, Weak, Inactive, Strong, Moderate, Isomer, Duplicate
	assert.Equal(t, []string{"BRD4", "0", "0", "5", "3", "0", "0", "0", "8"}, labels[1])
	assert.Equal(t, []string{"HDAC1", "4", "0", "0", "0", "0", "0", "0", "4"}, labels[2])

	runID, err := f.GetCellValue(RunSheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", runID)
	finished, err := f.GetCellValue(RunSheet, "B5")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01T10:01:00Z", finished)
}

func TestWorkbookWriter_EmptyRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, NewWorkbookWriter(nil).WriteSummary(path, RunSummary{RunID: "r"}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
