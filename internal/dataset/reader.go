package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/ShagReza/DataCuration-EASMS/internal/errors"
)

// ErrEmptyTable is returned when a source table has no header row.
var ErrEmptyTable = errors.New("table has no header row")

// ReadOptions configures table reading.
type ReadOptions struct {
	// Sheet selects the worksheet of an XLSX file. Empty means the first sheet.
	Sheet string
}

// ReadFile reads a .csv or .xlsx file into a dataset named after the file stem.
func ReadFile(path string, opts ...ReadOptions) (*Dataset, error) {
	var opt ReadOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var (
		ds  *Dataset
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		ds, err = readXLSX(path, name, opt.Sheet)
	default:
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("open %s: %w", path, openErr)
		}
		defer f.Close()
		ds, err = ReadCSV(f, name)
	}
	if err != nil {
		return nil, apperrors.NewParsingError("read "+path, err)
	}
	ds.Source = path
	return ds, nil
}

// ReadCSV reads a CSV table with a header row.
func ReadCSV(r io.Reader, name string) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return fromRows(name, rows)
}

// readXLSX reads one worksheet of an Excel workbook.
func readXLSX(path, name, sheet string) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyTable
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return fromRows(name, rows)
}

func fromRows(name string, rows [][]string) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	ds := New(name)
	columns := headerColumns(ds, header)

	ds.Records = make([]*Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec := &Record{}
		for j, column := range columns {
			var cell string
			if j < len(row) {
				cell = row[j]
			}
			// Unparseable numeric cells read as missing and are counted.
			if err := rec.Set(column, cell); err != nil {
				if ds.Coerced == nil {
					ds.Coerced = make(map[string]int)
				}
				ds.Coerced[column]++
			}
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

// headerColumns maps each header cell to the column it is stored under and
// registers the columns on ds. A header whose canonical column is already
// taken is kept as a pass-through column under its own name. LABEL names the
// label column only when AIRCHECK_LABEL is absent.
func headerColumns(ds *Dataset, header []string) []string {
	hasLabel := false
	for _, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), ColLabel) {
			hasLabel = true
		}
	}

	columns := make([]string, len(header))
	for i, h := range header {
		raw := strings.TrimSpace(h)
		canon := Canonical(h)
		upstreamLabel := hasLabel && canon == ColLabel && !strings.EqualFold(raw, ColLabel)
		if upstreamLabel || ds.Has(canon) {
			canon = passThrough(ds, raw)
		}
		columns[i] = canon
		ds.AddColumn(canon)
		ds.SetHeader(canon, raw)
	}
	return columns
}

// passThrough returns a column name for raw that is neither taken nor one of
// the interpreted columns, suffixing ".1", ".2", ... when needed.
func passThrough(ds *Dataset, raw string) string {
	name := raw
	for n := 1; ds.Has(name) || isKnown(strings.ToUpper(name)); n++ {
		name = fmt.Sprintf("%s.%d", raw, n)
	}
	return name
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Headers returns the header row used when the dataset is written.
func (d *Dataset) Headers() []string {
	out := make([]string, len(d.columns))
	for i, c := range d.columns {
		out[i] = d.Header(c)
	}
	return out
}

// Rows returns every record as a row of cells in column order.
func (d *Dataset) Rows() [][]string {
	out := make([][]string, len(d.Records))
	for i, r := range d.Records {
		out[i] = d.Row(r)
	}
	return out
}
