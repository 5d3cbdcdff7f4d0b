// Package labeling assigns the discrete activity label used for model
// training from scored enrichment and significance.
package labeling

import (
	"strconv"
	"strings"

	"github.com/ShagReza/DataCuration-EASMS/internal/dataset"
)

// Label is the discrete activity class of a record.
type Label int

const (
	Missing   Label = -2
	Weak      Label = -1
	Inactive  Label = 0
	Strong    Label = 1
	Moderate  Label = 2
	Isomer    Label = 3
	Duplicate Label = 4
)

// Labels lists every label in ascending order.
var Labels = []Label{Missing, Weak, Inactive, Strong, Moderate, Isomer, Duplicate}

// Thresholds of the decision list.
const (
	SignificanceLevel = 0.05
	StrongEnrichment  = 10.0
	ActiveEnrichment  = 5.0
	InactiveCeiling   = 1.0
	DuplicateFloor    = 5.0
)

// DuplicateMarker is the flag value that marks duplicate intensity.
const DuplicateMarker = "Y"

func (l Label) String() string {
	switch l {
	case Missing:
		return "missing"
	case Weak:
		return "weak"
	case Inactive:
		return "inactive"
	case Strong:
		return "strong"
	case Moderate:
		return "moderate"
	case Isomer:
		return "isomer"
	case Duplicate:
		return "duplicate"
	}
	return "label(" + strconv.Itoa(int(l)) + ")"
}

// Inputs are the record fields the decision list reads.
type Inputs struct {
	EASMS      dataset.Num
	PValue     dataset.Num
	Enrichment dataset.Num
	HasIsomer  bool
	// DuplicateFlag is only consulted when HasDuplicateColumn is set.
	DuplicateFlag      string
	HasDuplicateColumn bool
}

// InputsFrom extracts the decision inputs from a record.
func InputsFrom(r *dataset.Record, hasDuplicateColumn bool) Inputs {
	return Inputs{
		EASMS:              r.EASMSEnrichment,
		PValue:             r.PValue,
		Enrichment:         r.Enrichment,
		HasIsomer:          r.HasIsomer(),
		DuplicateFlag:      r.DuplicateFlag,
		HasDuplicateColumn: hasDuplicateColumn,
	}
}

// Assign evaluates the decision list. The first matching rule wins, after
// which a duplicate-intensity flag with plain enrichment above
// DuplicateFloor overrides the result. A missing p-value fails every
// significance comparison.
func Assign(in Inputs) Label {
	label := decide(in)
	if in.HasDuplicateColumn &&
		strings.TrimSpace(in.DuplicateFlag) == DuplicateMarker &&
		in.Enrichment.GreaterThan(DuplicateFloor) {
		return Duplicate
	}
	return label
}

func decide(in Inputs) Label {
	e, p := in.EASMS, in.PValue
	if e.IsMissing() {
		return Missing
	}
	significant := p.AtMost(SignificanceLevel)

	switch {
	case e.AtLeast(ActiveEnrichment) && significant && in.HasIsomer:
		return Isomer
	case e.AtLeast(ActiveEnrichment) && e.LessThan(StrongEnrichment) && significant:
		return Moderate
	case e.AtLeast(StrongEnrichment) && significant:
		return Strong
	case (e.AtLeast(0) && e.AtMost(InactiveCeiling)) || p.GreaterThan(SignificanceLevel):
		return Inactive
	case e.GreaterThan(InactiveCeiling) && e.LessThan(ActiveEnrichment) && significant:
		return Weak
	}
	return Missing
}
