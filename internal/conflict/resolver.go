// Package conflict removes duplicate rows and resolves molecules reported
// with contradictory enrichment within a single dataset.
//
// Rows are grouped by SMILES. A group whose rows carry more than one distinct
// ENRICHMENT value is resolved by direction:
//
//	all values <= 1   keep the row with the smallest enrichment
//	all values > 1    keep the row with the largest enrichment
//	otherwise         drop the whole group
//
// Missing enrichment values take no part in the distinct count or the
// extremes. Rows without a SMILES string are never grouped.
package conflict

import (
	"context"
	"log/slog"
	"sort"

	"github.com/ShagReza/DataCuration-EASMS/internal/dataset"
	apperrors "github.com/ShagReza/DataCuration-EASMS/internal/errors"
)

// RequiredColumns must be present for a dataset to be resolved.
var RequiredColumns = []string{dataset.ColSMILES, dataset.ColEnrichment}

// Resolution is the outcome for one conflicting group.
type Resolution string

const (
	KeptMin Resolution = "kept_min"
	KeptMax Resolution = "kept_max"
	Dropped Resolution = "dropped"
)

// Group describes one conflicting SMILES group.
type Group struct {
	SMILES     string
	Rows       []*dataset.Record
	Resolution Resolution
	// Kept is the surviving row, nil when the group was dropped.
	Kept *dataset.Record
}

// Result reports what resolution did to a dataset.
type Result struct {
	Dataset           string   `json:"dataset"`
	RowsIn            int      `json:"rows_in"`
	DuplicatesDropped int      `json:"duplicates_dropped"`
	ConflictGroups    int      `json:"conflict_groups"`
	GroupsKeptMin     int      `json:"groups_kept_min"`
	GroupsKeptMax     int      `json:"groups_kept_max"`
	GroupsDropped     int      `json:"groups_dropped"`
	RowsOut           int      `json:"rows_out"`
	Groups            []*Group `json:"-"`
}

// Resolver resolves conflicting records.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger.With(slog.String("component", "conflict_resolver"))}
}

// Resolve deduplicates ds and resolves its conflicting SMILES groups in
// place. The surviving rows are the non-conflicting rows in input order
// followed by one resolved row per kept group, ordered by SMILES.
func (r *Resolver) Resolve(ctx context.Context, ds *dataset.Dataset) (*Result, error) {
	if missing := ds.MissingColumns(RequiredColumns...); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(ds.Name, missing...)
	}

	res := &Result{Dataset: ds.Name, RowsIn: ds.Len()}

	unique := dedupe(ds)
	res.DuplicatesDropped = ds.Len() - len(unique)

	groups := make(map[string][]*dataset.Record)
	for _, rec := range unique {
		if rec.SMILES == "" {
			continue
		}
		groups[rec.SMILES] = append(groups[rec.SMILES], rec)
	}

	conflicting := make(map[string]bool)
	var keys []string
	for smiles, rows := range groups {
		if distinctEnrichment(rows) > 1 {
			conflicting[smiles] = true
			keys = append(keys, smiles)
		}
	}
	sort.Strings(keys)

	out := make([]*dataset.Record, 0, len(unique))
	for _, rec := range unique {
		if !conflicting[rec.SMILES] {
			out = append(out, rec)
		}
	}

	for _, smiles := range keys {
		g := resolveGroup(smiles, groups[smiles])
		res.Groups = append(res.Groups, g)
		switch g.Resolution {
		case KeptMin:
			res.GroupsKeptMin++
		case KeptMax:
			res.GroupsKeptMax++
		case Dropped:
			res.GroupsDropped++
		}
		if g.Kept != nil {
			out = append(out, g.Kept)
		}
	}
	res.ConflictGroups = len(keys)

	ds.Records = out
	res.RowsOut = len(out)

	r.logger.InfoContext(ctx, "conflicts resolved",
		slog.String("dataset", ds.Name),
		slog.Int("rows_in", res.RowsIn),
		slog.Int("duplicates_dropped", res.DuplicatesDropped),
		slog.Int("conflict_groups", res.ConflictGroups),
		slog.Int("groups_dropped", res.GroupsDropped),
		slog.Int("rows_out", res.RowsOut))

	return res, nil
}

// dedupe returns ds's records without exact full-row duplicates, keeping the
// first occurrence.
func dedupe(ds *dataset.Dataset) []*dataset.Record {
	seen := make(map[string]bool, ds.Len())
	out := make([]*dataset.Record, 0, ds.Len())
	for _, rec := range ds.Records {
		key := ds.RowKey(rec)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rec)
	}
	return out
}

func distinctEnrichment(rows []*dataset.Record) int {
	values := make(map[float64]struct{}, len(rows))
	for _, rec := range rows {
		if rec.Enrichment.Valid {
			values[rec.Enrichment.Float64] = struct{}{}
		}
	}
	return len(values)
}

// resolveGroup applies the direction rule to a conflicting group. Ties at the
// extreme keep the first row in table order.
func resolveGroup(smiles string, rows []*dataset.Record) *Group {
	g := &Group{SMILES: smiles, Rows: rows}

	var minRec, maxRec *dataset.Record
	for _, rec := range rows {
		if !rec.Enrichment.Valid {
			continue
		}
		if minRec == nil || rec.Enrichment.Float64 < minRec.Enrichment.Float64 {
			minRec = rec
		}
		if maxRec == nil || rec.Enrichment.Float64 > maxRec.Enrichment.Float64 {
			maxRec = rec
		}
	}

	switch {
	case maxRec.Enrichment.Float64 <= 1:
		g.Resolution, g.Kept = KeptMin, minRec
	case minRec.Enrichment.Float64 > 1:
		g.Resolution, g.Kept = KeptMax, maxRec
	default:
		g.Resolution = Dropped
	}
	return g
}
