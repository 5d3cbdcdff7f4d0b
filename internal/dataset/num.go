package dataset

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Num is a nullable float64. The zero value is missing.
type Num struct {
	Float64 float64
	Valid   bool
}

// Missing is the missing Num.
var Missing = Num{}

// Of returns a valid Num holding v. NaN and infinities are treated as missing.
func Of(v float64) Num {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing
	}
	return Num{Float64: v, Valid: true}
}

// IsMissing reports whether n carries no value.
func (n Num) IsMissing() bool { return !n.Valid }

// Div returns n / d. The result is missing when either operand is missing or
// d is zero.
func (n Num) Div(d Num) Num {
	if !n.Valid || !d.Valid || d.Float64 == 0 {
		return Missing
	}
	return Of(n.Float64 / d.Float64)
}

// GreaterThan reports n > v; a missing n compares false.
func (n Num) GreaterThan(v float64) bool { return n.Valid && n.Float64 > v }

// AtLeast reports n >= v; a missing n compares false.
func (n Num) AtLeast(v float64) bool { return n.Valid && n.Float64 >= v }

// LessThan reports n < v; a missing n compares false.
func (n Num) LessThan(v float64) bool { return n.Valid && n.Float64 < v }

// AtMost reports n <= v; a missing n compares false.
func (n Num) AtMost(v float64) bool { return n.Valid && n.Float64 <= v }

// Mean returns the mean of the valid values in xs, or missing if none are valid.
func Mean(xs ...Num) Num {
	var sum float64
	var count int
	for _, x := range xs {
		if x.Valid {
			sum += x.Float64
			count++
		}
	}
	if count == 0 {
		return Missing
	}
	return Of(sum / float64(count))
}

// Values returns the valid values in xs in order.
func Values(xs ...Num) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if x.Valid {
			out = append(out, x.Float64)
		}
	}
	return out
}

// naTokens are cell contents read as missing, matching what spreadsheet and
// dataframe tooling write for absent values.
var naTokens = map[string]struct{}{
	"":          {},
	"#N/A":      {},
	"#N/A N/A":  {},
	"#NA":       {},
	"-1.#IND":   {},
	"-1.#QNAN":  {},
	"-NaN":      {},
	"-nan":      {},
	"1.#IND":    {},
	"1.#QNAN":   {},
	"<NA>":      {},
	"N/A":       {},
	"NA":        {},
	"NULL":      {},
	"NaN":       {},
	"None":      {},
	"n/a":       {},
	"nan":       {},
	"null":      {},
}

// IsNAToken reports whether s (after trimming) denotes a missing cell.
func IsNAToken(s string) bool {
	_, ok := naTokens[strings.TrimSpace(s)]
	return ok
}

// ParseNum parses a cell into a Num. NA tokens yield missing.
func ParseNum(s string) (Num, error) {
	s = strings.TrimSpace(s)
	if IsNAToken(s) {
		return Missing, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Missing, fmt.Errorf("parse number %q: %w", s, err)
	}
	return Of(v), nil
}

// String formats n in shortest round-trip form, or "" when missing.
func (n Num) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Float64, 'g', -1, 64)
}

// MarshalJSON encodes a missing Num as null.
func (n Num) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

// UnmarshalJSON decodes null as missing.
func (n *Num) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = Missing
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Of(v)
	return nil
}

// Scan implements sql.Scanner.
func (n *Num) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*n = Missing
	case float64:
		*n = Of(v)
	case int64:
		*n = Of(float64(v))
	case []byte:
		parsed, err := ParseNum(string(v))
		if err != nil {
			return err
		}
		*n = parsed
	case string:
		parsed, err := ParseNum(v)
		if err != nil {
			return err
		}
		*n = parsed
	default:
		return fmt.Errorf("cannot scan %T into Num", value)
	}
	return nil
}

// Value implements driver.Valuer.
func (n Num) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Float64, nil
}
