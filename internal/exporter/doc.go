// Package exporter writes curation results to disk.
//
// CSVWriter writes curated datasets and conflict logs. Files are written to a
// temporary sibling and renamed into place, so a failed write never leaves a
// truncated dataset behind.
//
// WorkbookWriter produces the per-run summary workbook with one sheet of
// dataset counts, one of label distributions and one of run metadata.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(logger)
//	if err := w.WriteDataset(paths.MLReadyPath(ds.Name), ds); err != nil {
//	    return err
//	}
package exporter
