package exporter

import (
	"fmt"
	"log/slog"

	"github.com/ShagReza/DataCuration-EASMS/internal/conflict"
	"github.com/ShagReza/DataCuration-EASMS/internal/dataset"
)

// ResolutionHeader is the extra column of a conflict log.
const ResolutionHeader = "RESOLUTION"

// ResolutionRemoved marks conflict log rows that did not survive resolution.
const ResolutionRemoved = "removed"

// WriteDataset writes ds with its header row to filePath, replacing any
// existing file.
func (w *CSVWriter) WriteDataset(filePath string, ds *dataset.Dataset) error {
	stream, err := w.CreateStreamWriter(filePath, ds.Headers())
	if err != nil {
		return fmt.Errorf("write dataset %s: %w", ds.Name, err)
	}
	for _, r := range ds.Records {
		if err := stream.WriteRecord(ds.Row(r)); err != nil {
			stream.Abort()
			return fmt.Errorf("write dataset %s: %w", ds.Name, err)
		}
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("write dataset %s: %w", ds.Name, err)
	}

	w.logger.Info("dataset written",
		slog.String("dataset", ds.Name),
		slog.String("path", filePath),
		slog.Int("rows", ds.Len()))
	return nil
}

// WriteConflictLog writes every row of the conflicting groups with the
// outcome of its group. Nothing is written when there were no conflicts, and
// the returned flag reports whether a file was produced.
func (w *CSVWriter) WriteConflictLog(filePath string, ds *dataset.Dataset, groups []*conflict.Group) (bool, error) {
	if len(groups) == 0 {
		return false, nil
	}

	headers := append(ds.Headers(), ResolutionHeader)
	var records [][]string
	for _, g := range groups {
		for _, r := range g.Rows {
			outcome := ResolutionRemoved
			if r == g.Kept {
				outcome = string(g.Resolution)
			}
			records = append(records, append(ds.Row(r), outcome))
		}
	}

	if err := w.WriteCSV(filePath, WriteOptions{Headers: headers, Records: records, BOMPrefix: w.BOMPrefix}); err != nil {
		return false, fmt.Errorf("write conflict log %s: %w", ds.Name, err)
	}

	w.logger.Info("conflict log written",
		slog.String("dataset", ds.Name),
		slog.String("path", filePath),
		slog.Int("groups", len(groups)),
		slog.Int("rows", len(records)))
	return true, nil
}
