package dataset

import (
	"fmt"
	"strings"
)

// Record is one assayed row of a dataset.
type Record struct {
	CompoundID    string
	SMILES        string
	Replicates    [3]Num
	Isomers       string
	DuplicateFlag string

	TargetValue         Num
	SelectiveValue      Num
	NTCValue            Num
	Enrichment          Num
	SelectiveEnrichment Num
	MeanNonTarget       Num
	EASMSEnrichment     Num
	PValue              Num
	Label               Num

	// Extra holds columns the pipeline does not interpret, keyed by header.
	Extra map[string]string
}

// HasIsomer reports whether the isomer annotation is present. Blank cells and
// NA tokens such as "nan" count as absent.
func (r *Record) HasIsomer() bool {
	return !IsNAToken(r.Isomers)
}

// MeanReplicate returns the mean of the non-missing replicate intensities.
func (r *Record) MeanReplicate() Num {
	return Mean(r.Replicates[:]...)
}

// ReplicateValues returns the non-missing replicate intensities.
func (r *Record) ReplicateValues() []float64 {
	return Values(r.Replicates[:]...)
}

// num returns a pointer to the numeric field backing column, or nil.
func (r *Record) num(column string) *Num {
	switch column {
	case ColRep1:
		return &r.Replicates[0]
	case ColRep2:
		return &r.Replicates[1]
	case ColRep3:
		return &r.Replicates[2]
	case ColTargetValue:
		return &r.TargetValue
	case ColSelectiveValue:
		return &r.SelectiveValue
	case ColNTCValue:
		return &r.NTCValue
	case ColEnrichment:
		return &r.Enrichment
	case ColSelectiveEnrichment:
		return &r.SelectiveEnrichment
	case ColMeanNonTarget:
		return &r.MeanNonTarget
	case ColEASMSEnrichment:
		return &r.EASMSEnrichment
	case ColPValue:
		return &r.PValue
	case ColLabel:
		return &r.Label
	}
	return nil
}

// Get returns the cell value of a canonical column as written to CSV.
func (r *Record) Get(column string) string {
	if n := r.num(column); n != nil {
		return n.String()
	}
	switch column {
	case ColCompoundID:
		return r.CompoundID
	case ColSMILES:
		return r.SMILES
	case ColIsomers:
		return r.Isomers
	case ColDuplicateIntensity:
		return r.DuplicateFlag
	}
	return r.Extra[column]
}

// Set parses raw into the field backing a canonical column.
func (r *Record) Set(column, raw string) error {
	if n := r.num(column); n != nil {
		v, err := ParseNum(raw)
		if err != nil {
			return fmt.Errorf("column %s: %w", column, err)
		}
		*n = v
		return nil
	}
	switch column {
	case ColCompoundID:
		r.CompoundID = normaliseText(raw)
	case ColSMILES:
		r.SMILES = normaliseText(raw)
	case ColIsomers:
		r.Isomers = raw
	case ColDuplicateIntensity:
		r.DuplicateFlag = raw
	default:
		if r.Extra == nil {
			r.Extra = make(map[string]string)
		}
		r.Extra[column] = raw
	}
	return nil
}

// normaliseText trims identifiers and collapses NA tokens to "" so that
// blank identifiers never group together.
func normaliseText(raw string) string {
	if IsNAToken(raw) {
		return ""
	}
	return strings.TrimSpace(raw)
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	c := *r
	if r.Extra != nil {
		c.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}
