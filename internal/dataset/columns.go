package dataset

import "strings"

// Canonical column names.
const (
	ColCompoundID          = "COMPOUND_ID"
	ColSMILES              = "SMILES"
	ColRep1                = "POS_INT_REP1"
	ColRep2                = "POS_INT_REP2"
	ColRep3                = "POS_INT_REP3"
	ColIsomers             = "ISOMERS"
	ColDuplicateIntensity  = "HAD_DUPLICATE_INTENSITY"
	ColTargetValue         = "TARGET_VALUE"
	ColSelectiveValue      = "SELECTIVE_VALUE"
	ColNTCValue            = "NTC_VALUE"
	ColEnrichment          = "ENRICHMENT"
	ColSelectiveEnrichment = "SELECTIVE_ENRICHMENT"
	ColMeanNonTarget       = "MEAN_NONTARGET_VALUE"
	ColEASMSEnrichment     = "EASMS_ENRICHMENT"
	ColPValue              = "PVALUE"
	ColLabel               = "AIRCHECK_LABEL"
)

// Alternative header spellings accepted on read.
const (
	AliasMeanNonTargetValues = "MEAN_NONTARGET_VALUES"
	AliasNonTargetIntensity  = "NONTARGET_INTENSITY_VALUE"
	AliasLabel               = "LABEL"
)

// ReplicateColumns lists the replicate intensity columns in order.
var ReplicateColumns = []string{ColRep1, ColRep2, ColRep3}

// ScoredColumns lists the columns written by the score engine, in the order
// they are appended to a dataset that lacks them.
var ScoredColumns = []string{
	ColTargetValue,
	ColSelectiveValue,
	ColNTCValue,
	ColEnrichment,
	ColSelectiveEnrichment,
	ColMeanNonTarget,
	ColEASMSEnrichment,
	ColPValue,
}

var aliases = map[string]string{
	AliasMeanNonTargetValues: ColMeanNonTarget,
	AliasNonTargetIntensity:  ColMeanNonTarget,
	AliasLabel:               ColLabel,
}

// Canonical maps a header cell to its canonical column name.
func Canonical(header string) string {
	name := strings.TrimSpace(header)
	if canon, ok := aliases[strings.ToUpper(name)]; ok {
		return canon
	}
	if isKnown(strings.ToUpper(name)) {
		return strings.ToUpper(name)
	}
	return name
}

func isKnown(name string) bool {
	switch name {
	case ColCompoundID, ColSMILES, ColRep1, ColRep2, ColRep3, ColIsomers,
		ColDuplicateIntensity, ColTargetValue, ColSelectiveValue, ColNTCValue,
		ColEnrichment, ColSelectiveEnrichment, ColMeanNonTarget,
		ColEASMSEnrichment, ColPValue, ColLabel:
		return true
	}
	return false
}
