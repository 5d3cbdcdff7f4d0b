package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ShagReza/DataCuration-EASMS/internal/labeling"
)

// Sheet names of the summary workbook.
const (
	SummarySheet = "Summary"
	LabelsSheet  = "Labels"
	RunSheet     = "Run"
)

// DatasetSummary is one dataset's row in the summary workbook.
type DatasetSummary struct {
	Dataset           string
	Source            string
	Output            string
	RowsIn            int
	RowsOut           int
	NoComplement      int
	PValueMissing     int
	DuplicatesDropped int
	ConflictGroups    int
	GroupsDropped     int
	Labels            labeling.Distribution
}

// RunSummary describes the run a workbook reports on.
type RunSummary struct {
	RunID      string
	Mode       string
	InputDir   string
	StartedAt  time.Time
	FinishedAt time.Time
	Datasets   []DatasetSummary
}

var summaryHeaders = []interface{}{
	"Dataset", "Source", "Output", "Rows In", "Rows Out", "No Complement",
	"P-Value Missing", "Duplicates Dropped", "Conflict Groups", "Groups Dropped",
}

// WorkbookWriter writes the per-run curation summary workbook.
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger.With(slog.String("component", "workbook_writer"))}
}

// WriteSummary writes run to an .xlsx workbook at filePath with a dataset
// summary sheet, a label distribution sheet and a run metadata sheet.
func (w *WorkbookWriter) WriteSummary(filePath string, run RunSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := w.writeDatasets(f, run.Datasets, bold); err != nil {
		return err
	}
	if err := w.writeLabels(f, run.Datasets, bold); err != nil {
		return err
	}
	if err := w.writeRun(f, run, bold); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("save workbook %s: %w", filePath, err)
	}

	w.logger.Info("summary workbook written",
		slog.String("path", filePath),
		slog.Int("datasets", len(run.Datasets)))
	return nil
}

func (w *WorkbookWriter) writeDatasets(f *excelize.File, datasets []DatasetSummary, headerStyle int) error {
	if err := writeHeader(f, SummarySheet, summaryHeaders, headerStyle); err != nil {
		return err
	}
	for i, d := range datasets {
		row := []interface{}{
			d.Dataset, d.Source, d.Output, d.RowsIn, d.RowsOut, d.NoComplement,
			d.PValueMissing, d.DuplicatesDropped, d.ConflictGroups, d.GroupsDropped,
		}
		if err := setRow(f, SummarySheet, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(SummarySheet, "A", "C", 28)
}

func (w *WorkbookWriter) writeLabels(f *excelize.File, datasets []DatasetSummary, headerStyle int) error {
	if _, err := f.NewSheet(LabelsSheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", LabelsSheet, err)
	}

	header := []interface{}{"Dataset"}
	for _, l := range labeling.Labels {
		header = append(header, fmt.Sprintf("%d (%s)", int(l), l))
	}
	header = append(header, "Total")
	if err := writeHeader(f, LabelsSheet, header, headerStyle); err != nil {
		return err
	}

	for i, d := range datasets {
		row := []interface{}{d.Dataset}
		for _, l := range labeling.Labels {
			row = append(row, d.Labels[l])
		}
		row = append(row, d.Labels.Total())
		if err := setRow(f, LabelsSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (w *WorkbookWriter) writeRun(f *excelize.File, run RunSummary, headerStyle int) error {
	if _, err := f.NewSheet(RunSheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", RunSheet, err)
	}
	rows := [][]interface{}{
		{"Run ID", run.RunID},
		{"Mode", run.Mode},
		{"Input", run.InputDir},
		{"Started", run.StartedAt.UTC().Format(time.RFC3339)},
		{"Finished", run.FinishedAt.UTC().Format(time.RFC3339)},
		{"Datasets", len(run.Datasets)},
	}
	for i, r := range rows {
		if err := setRow(f, RunSheet, i+1, r); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(RunSheet, "A1", fmt.Sprintf("A%d", len(rows)), headerStyle); err != nil {
		return fmt.Errorf("style sheet %s: %w", RunSheet, err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []interface{}, style int) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style sheet %s: %w", sheet, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write sheet %s row %d: %w", sheet, row, err)
	}
	return nil
}
