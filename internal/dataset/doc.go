// Package dataset holds the in-memory representation of an EASMS screening
// table: one Dataset per protein target, one Record per assayed row.
//
// Numeric fields use Num, a nullable float64. Missing values are absorbing:
// arithmetic with a missing operand yields a missing result, and division by
// zero yields missing rather than an infinity.
//
// # Columns
//
// Column names are canonicalised on read so that historical aliases resolve
// to one field:
//
//	MEAN_NONTARGET_VALUE  <- MEAN_NONTARGET_VALUES, NONTARGET_INTENSITY_VALUE
//	AIRCHECK_LABEL        <- LABEL (only when AIRCHECK_LABEL is absent)
//
// When a second header maps to a column that is already taken, it is kept as
// an uninterpreted column under its own header instead of overwriting the
// first. Numeric cells that do not parse are read as missing and counted in
// Dataset.Coerced.
//
// The header name found in the source file is remembered and reused on
// write, so a file read and written without modification keeps its header.
// Columns the curation pipeline does not interpret are carried verbatim.
//
// # Reading
//
//	ds, err := dataset.ReadFile("input/BRD4.csv")
//
// CSV and XLSX inputs are supported. Headers and Rows give the table back in
// column order; floats format in their shortest round-trip form and missing
// values as empty cells.
package dataset
