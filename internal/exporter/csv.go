package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	// BOMPrefix adds a UTF-8 BOM to new files for Excel compatibility.
	BOMPrefix bool
	logger    *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes headers and records to filePath, replacing any existing
// file atomically.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Debug("writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	stream, err := w.createStream(filePath, options.Headers, options.BOMPrefix)
	if err != nil {
		return err
	}
	for i, record := range options.Records {
		if err := stream.WriteRecord(record); err != nil {
			stream.Abort()
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return stream.Close()
}

// StreamWriter provides streaming CSV writing for large datasets. Rows go to
// a temporary file that replaces the target on Close.
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
	target string
}

// CreateStreamWriter creates a new streaming CSV writer
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	return w.createStream(filePath, headers, w.BOMPrefix)
}

func (w *CSVWriter) createStream(filePath string, headers []string, bom bool) (*StreamWriter, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	s := &StreamWriter{file: file, writer: csv.NewWriter(file), target: filePath}

	if bom {
		if _, err := file.Write(utf8BOM); err != nil {
			s.Abort()
			return nil, fmt.Errorf("failed to write BOM: %w", err)
		}
	}
	if len(headers) > 0 {
		if err := s.writer.Write(headers); err != nil {
			s.Abort()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}
	return s, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes the stream and moves it into place
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.Abort()
		return err
	}
	if err := s.file.Close(); err != nil {
		_ = os.Remove(s.file.Name())
		return err
	}
	if err := os.Chmod(s.file.Name(), 0o644); err != nil {
		_ = os.Remove(s.file.Name())
		return err
	}
	if err := os.Rename(s.file.Name(), s.target); err != nil {
		_ = os.Remove(s.file.Name())
		return fmt.Errorf("failed to replace %s: %w", s.target, err)
	}
	return nil
}

// Abort discards the stream, leaving any existing target untouched
func (s *StreamWriter) Abort() {
	_ = s.file.Close()
	_ = os.Remove(s.file.Name())
}
