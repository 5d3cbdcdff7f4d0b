package dataset

import "strings"

// Dataset is the table of records assayed against one protein target.
type Dataset struct {
	// Name identifies the target, usually the source file stem.
	Name string
	// Source is the path the dataset was read from, if any.
	Source string
	// Records in table order.
	Records []*Record
	// Coerced counts, per column, the numeric cells that failed to parse and
	// were read as missing.
	Coerced map[string]int

	columns []string
	present map[string]bool
	headers map[string]string
}

// New creates an empty dataset with the given canonical columns.
func New(name string, columns ...string) *Dataset {
	d := &Dataset{
		Name:    name,
		present: make(map[string]bool),
		headers: make(map[string]string),
	}
	for _, c := range columns {
		d.AddColumn(c)
	}
	return d
}

// Columns returns the canonical column names in table order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// Has reports whether the dataset carries the canonical column.
func (d *Dataset) Has(column string) bool {
	return d.present[column]
}

// AddColumn appends a canonical column if the dataset lacks it.
func (d *Dataset) AddColumn(column string) {
	if d.present == nil {
		d.present = make(map[string]bool)
	}
	if d.present[column] {
		return
	}
	d.present[column] = true
	d.columns = append(d.columns, column)
}

// SetHeader records the header text used for a canonical column.
func (d *Dataset) SetHeader(column, header string) {
	if d.headers == nil {
		d.headers = make(map[string]string)
	}
	d.headers[column] = header
}

// Header returns the header text for a canonical column: the name it was read
// under, or the canonical name.
func (d *Dataset) Header(column string) string {
	if h, ok := d.headers[column]; ok && h != "" {
		return h
	}
	return column
}

// MissingColumns returns the subset of required columns the dataset lacks.
func (d *Dataset) MissingColumns(required ...string) []string {
	var missing []string
	for _, c := range required {
		if !d.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.Records) }

// Row returns the cell values of r in column order.
func (d *Dataset) Row(r *Record) []string {
	row := make([]string, len(d.columns))
	for i, c := range d.columns {
		row[i] = r.Get(c)
	}
	return row
}

// RowKey returns a key that is equal for two records iff every cell is equal.
func (d *Dataset) RowKey(r *Record) string {
	return strings.Join(d.Row(r), "\x1f")
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	c := &Dataset{
		Name:    d.Name,
		Source:  d.Source,
		Records: make([]*Record, len(d.Records)),
		columns: d.Columns(),
		present: make(map[string]bool, len(d.present)),
		headers: make(map[string]string, len(d.headers)),
	}
	for k, v := range d.present {
		c.present[k] = v
	}
	for k, v := range d.headers {
		c.headers[k] = v
	}
	if d.Coerced != nil {
		c.Coerced = make(map[string]int, len(d.Coerced))
		for k, v := range d.Coerced {
			c.Coerced[k] = v
		}
	}
	for i, r := range d.Records {
		c.Records[i] = r.Clone()
	}
	return c
}
