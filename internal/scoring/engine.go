// Package scoring computes cross-target enrichment and significance for a
// batch of sibling datasets.
package scoring

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ShagReza/DataCuration-EASMS/internal/dataset"
	apperrors "github.com/ShagReza/DataCuration-EASMS/internal/errors"
	"github.com/ShagReza/DataCuration-EASMS/internal/stats"
)

// RequiredColumns must be present in every dataset of a batch.
var RequiredColumns = []string{
	dataset.ColCompoundID,
	dataset.ColRep1,
	dataset.ColRep2,
	dataset.ColRep3,
}

// Options tunes the score engine.
type Options struct {
	// MinPooledValues is the smallest pooled complement sample for which a
	// p-value is computed.
	MinPooledValues int
	// VarianceEpsilon is the standard deviation below which a sample is
	// treated as constant and the p-value is 1.
	VarianceEpsilon float64
	// Workers bounds how many datasets are computed concurrently.
	Workers int
	// NonTargetHeader is the header written for the pooled background mean
	// when a dataset does not already carry one.
	NonTargetHeader string
}

// DefaultOptions returns the standard scoring options.
func DefaultOptions() Options {
	return Options{
		MinPooledValues: 3,
		VarianceEpsilon: 1e-8,
		Workers:         4,
		NonTargetHeader: dataset.AliasMeanNonTargetValues,
	}
}

// DatasetStats summarises the scoring of one dataset.
type DatasetStats struct {
	Dataset        string `json:"dataset"`
	Rows           int    `json:"rows"`
	TargetMissing  int    `json:"target_missing"`
	NoComplement   int    `json:"no_complement"`
	EASMSMissing   int    `json:"easms_missing"`
	PValueMissing  int    `json:"pvalue_missing"`
	PValueFailures int    `json:"pvalue_failures"`
}

// BatchStats summarises a scored batch, one entry per dataset in input order.
type BatchStats struct {
	Datasets []DatasetStats `json:"datasets"`
}

// Engine scores batches of datasets.
type Engine struct {
	opts   Options
	logger *slog.Logger
}

// NewEngine creates a score engine. Zero-valued options fall back to defaults.
func NewEngine(opts Options, logger *slog.Logger) *Engine {
	def := DefaultOptions()
	if opts.MinPooledValues <= 0 {
		opts.MinPooledValues = def.MinPooledValues
	}
	if opts.VarianceEpsilon <= 0 {
		opts.VarianceEpsilon = def.VarianceEpsilon
	}
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.NonTargetHeader == "" {
		opts.NonTargetHeader = def.NonTargetHeader
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		opts:   opts,
		logger: logger.With(slog.String("component", "score_engine")),
	}
}

// derived holds the computed columns of one record until commit.
type derived struct {
	target, selective, ntc          dataset.Num
	enrichment, selectiveEnrichment dataset.Num
	meanNonTarget, easms, pvalue    dataset.Num
}

// ScoreBatch computes the derived columns of every dataset in the batch.
//
// All datasets are checked for required columns first; a missing column
// aborts the batch with a *errors.SchemaError before anything is modified.
// Derived values are computed against a snapshot of the batch and written
// back only once every dataset has been computed.
func (e *Engine) ScoreBatch(ctx context.Context, datasets []*dataset.Dataset) (*BatchStats, error) {
	for _, ds := range datasets {
		if missing := ds.MissingColumns(RequiredColumns...); len(missing) > 0 {
			return nil, apperrors.NewSchemaError(ds.Name, missing...)
		}
	}

	e.logger.InfoContext(ctx, "scoring batch",
		slog.Int("datasets", len(datasets)),
		slog.Int("workers", e.opts.Workers))

	snap := NewSnapshot(datasets)
	results := make([][]derived, len(datasets))
	batch := &BatchStats{Datasets: make([]DatasetStats, len(datasets))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i := range datasets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], batch.Datasets[i] = e.computeDataset(gctx, snap, i, datasets[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("score batch: %w", err)
	}

	for i, ds := range datasets {
		e.commit(ds, results[i])
		s := batch.Datasets[i]
		e.logger.InfoContext(ctx, "dataset scored",
			slog.String("dataset", s.Dataset),
			slog.Int("rows", s.Rows),
			slog.Int("no_complement", s.NoComplement),
			slog.Int("easms_missing", s.EASMSMissing),
			slog.Int("pvalue_missing", s.PValueMissing))
	}
	return batch, nil
}

func (e *Engine) computeDataset(ctx context.Context, snap *Snapshot, i int, ds *dataset.Dataset) ([]derived, DatasetStats) {
	idx := snap.Complement(i)
	out := make([]derived, len(ds.Records))
	st := DatasetStats{Dataset: ds.Name, Rows: len(ds.Records)}

	for j, r := range ds.Records {
		d := &out[j]
		d.target = snap.rows[i][j].target

		agg := idx[r.CompoundID]
		if r.CompoundID == "" {
			agg = nil
		}
		if agg == nil {
			st.NoComplement++
		}

		d.selective = agg.Selective()
		d.ntc = agg.NTC()
		d.enrichment = d.target.Div(d.ntc)
		d.selectiveEnrichment = d.target.Div(d.selective)
		d.meanNonTarget = agg.PooledMean()
		d.easms = d.target.Div(d.meanNonTarget)

		if agg != nil {
			p, err := e.pValue(snap.rows[i][j].replicates, agg.Pooled)
			if err != nil {
				st.PValueFailures++
				e.logger.WarnContext(ctx, "p-value computation failed",
					slog.String("dataset", ds.Name),
					slog.String("compound_id", r.CompoundID),
					slog.String("error", err.Error()))
			}
			d.pvalue = p
		}

		if d.target.IsMissing() {
			st.TargetMissing++
		}
		if d.easms.IsMissing() {
			st.EASMSMissing++
		}
		if d.pvalue.IsMissing() {
			st.PValueMissing++
		}
	}
	return out, st
}

// pValue tests own replicates against the pooled complement. A panic inside
// the test is recovered and reported as an error with a missing result.
func (e *Engine) pValue(own, pooled []float64) (p dataset.Num, err error) {
	defer func() {
		if r := recover(); r != nil {
			p = dataset.Missing
			err = fmt.Errorf("panic in significance test: %v", r)
		}
	}()

	if len(own) == 0 || len(pooled) < e.opts.MinPooledValues {
		return dataset.Missing, nil
	}
	if stats.PopStdDev(own) < e.opts.VarianceEpsilon || stats.PopStdDev(pooled) < e.opts.VarianceEpsilon {
		return dataset.Of(1), nil
	}

	res, err := stats.WelchTTest(own, pooled)
	if err != nil {
		return dataset.Missing, err
	}
	return dataset.Of(res.P), nil
}

func (e *Engine) commit(ds *dataset.Dataset, values []derived) {
	for _, c := range dataset.ScoredColumns {
		if ds.Has(c) {
			continue
		}
		ds.AddColumn(c)
		if c == dataset.ColMeanNonTarget {
			ds.SetHeader(c, e.opts.NonTargetHeader)
		}
	}

	for j, r := range ds.Records {
		d := values[j]
		r.TargetValue = d.target
		r.SelectiveValue = d.selective
		r.NTCValue = d.ntc
		r.Enrichment = d.enrichment
		r.SelectiveEnrichment = d.selectiveEnrichment
		r.MeanNonTarget = d.meanNonTarget
		r.EASMSEnrichment = d.easms
		r.PValue = d.pvalue
	}
}
