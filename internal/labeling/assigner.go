package labeling

import (
	"context"
	"log/slog"

	"github.com/ShagReza/DataCuration-EASMS/internal/dataset"
	apperrors "github.com/ShagReza/DataCuration-EASMS/internal/errors"
)

// RequiredColumns must be present for a dataset to be labelled.
var RequiredColumns = []string{dataset.ColEASMSEnrichment, dataset.ColPValue, dataset.ColIsomers}

// Distribution counts records per label.
type Distribution map[Label]int

// Total returns the number of labelled records.
func (d Distribution) Total() int {
	n := 0
	for _, c := range d {
		n += c
	}
	return n
}

// Assigner labels whole datasets.
type Assigner struct {
	// LabelHeader is the header written for the label column when a dataset
	// does not already carry one.
	LabelHeader string
	logger      *slog.Logger
}

// NewAssigner creates an assigner writing labelHeader, defaulting to the
// canonical label column name.
func NewAssigner(labelHeader string, logger *slog.Logger) *Assigner {
	if labelHeader == "" {
		labelHeader = dataset.ColLabel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assigner{
		LabelHeader: labelHeader,
		logger:      logger.With(slog.String("component", "label_assigner")),
	}
}

// LabelDataset writes a label to every record of ds. Labelling an already
// labelled dataset produces the same labels.
func (a *Assigner) LabelDataset(ctx context.Context, ds *dataset.Dataset) (Distribution, error) {
	if missing := ds.MissingColumns(RequiredColumns...); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(ds.Name, missing...)
	}

	if !ds.Has(dataset.ColLabel) {
		ds.AddColumn(dataset.ColLabel)
		ds.SetHeader(dataset.ColLabel, a.LabelHeader)
	}
	hasDup := ds.Has(dataset.ColDuplicateIntensity)

	dist := make(Distribution)
	for _, r := range ds.Records {
		label := Assign(InputsFrom(r, hasDup))
		r.Label = dataset.Of(float64(label))
		dist[label]++
	}

	attrs := []any{slog.String("dataset", ds.Name), slog.Int("rows", ds.Len())}
	for _, l := range Labels {
		if n := dist[l]; n > 0 {
			attrs = append(attrs, slog.Int(l.String(), n))
		}
	}
	a.logger.InfoContext(ctx, "dataset labelled", attrs...)

	return dist, nil
}
