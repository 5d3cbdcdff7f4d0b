package scoring

import "github.com/ShagReza/DataCuration-EASMS/internal/dataset"

// row is the read-only view of one record used to build complements.
type row struct {
	id         string
	target     dataset.Num
	replicates []float64
}

// Snapshot is an immutable view of a batch taken before any dataset is
// modified. Every complement index is built from it, so results do not depend
// on the order in which datasets are scored.
type Snapshot struct {
	names []string
	rows  [][]row
}

// NewSnapshot captures identifiers, target values and replicates of every
// record in the batch.
func NewSnapshot(datasets []*dataset.Dataset) *Snapshot {
	s := &Snapshot{
		names: make([]string, len(datasets)),
		rows:  make([][]row, len(datasets)),
	}
	for i, ds := range datasets {
		s.names[i] = ds.Name
		rows := make([]row, len(ds.Records))
		for j, r := range ds.Records {
			rows[j] = row{
				id:         r.CompoundID,
				target:     r.MeanReplicate(),
				replicates: r.ReplicateValues(),
			}
		}
		s.rows[i] = rows
	}
	return s
}

// Len returns the number of datasets in the snapshot.
func (s *Snapshot) Len() int { return len(s.rows) }

// Aggregate summarises the complement rows sharing one identifier.
type Aggregate struct {
	// Max and Min are taken over non-missing target values.
	Max, Min  float64
	HasTarget bool
	// Pooled holds every non-missing replicate value of the matching rows.
	Pooled []float64
}

// Selective returns the largest complement target value.
func (a *Aggregate) Selective() dataset.Num {
	if a == nil || !a.HasTarget {
		return dataset.Missing
	}
	return dataset.Of(a.Max)
}

// NTC returns the smallest complement target value.
func (a *Aggregate) NTC() dataset.Num {
	if a == nil || !a.HasTarget {
		return dataset.Missing
	}
	return dataset.Of(a.Min)
}

// PooledMean returns the mean of the pooled replicate values.
func (a *Aggregate) PooledMean() dataset.Num {
	if a == nil || len(a.Pooled) == 0 {
		return dataset.Missing
	}
	var sum float64
	for _, v := range a.Pooled {
		sum += v
	}
	return dataset.Of(sum / float64(len(a.Pooled)))
}

// Index maps a compound identifier to its complement aggregate.
type Index map[string]*Aggregate

// Complement builds the aggregate index over every dataset except exclude.
// Rows with an empty identifier are not indexed.
func (s *Snapshot) Complement(exclude int) Index {
	idx := make(Index)
	for i, rows := range s.rows {
		if i == exclude {
			continue
		}
		for _, r := range rows {
			if r.id == "" {
				continue
			}
			agg, ok := idx[r.id]
			if !ok {
				agg = &Aggregate{}
				idx[r.id] = agg
			}
			if r.target.Valid {
				v := r.target.Float64
				if !agg.HasTarget || v > agg.Max {
					agg.Max = v
				}
				if !agg.HasTarget || v < agg.Min {
					agg.Min = v
				}
				agg.HasTarget = true
			}
			agg.Pooled = append(agg.Pooled, r.replicates...)
		}
	}
	return idx
}
