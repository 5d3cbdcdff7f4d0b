package scoring

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShagReza/DataCuration-EASMS/internal/dataset"
	apperrors "github.com/ShagReza/DataCuration-EASMS/internal/errors"
	"github.com/ShagReza/DataCuration-EASMS/internal/shared/testutil"
)

// rec builds a record from an identifier and up to three replicate values.
func rec(id string, reps ...dataset.Num) *dataset.Record {
	r := &dataset.Record{CompoundID: id, SMILES: "S-" + id}
	copy(r.Replicates[:], reps)
	return r
}

func v(x float64) dataset.Num { return dataset.Of(x) }

func screen(name string, records ...*dataset.Record) *dataset.Dataset {
	ds := dataset.New(name,
		dataset.ColCompoundID, dataset.ColSMILES,
		dataset.ColRep1, dataset.ColRep2, dataset.ColRep3)
	ds.Records = records
	return ds
}

func newTestEngine(t *testing.T, workers int) *Engine {
	logger, _ := testutil.NewTestLogger(t)
	opts := DefaultOptions()
	opts.Workers = workers
	return NewEngine(opts, logger)
}

func TestScoreBatchCrossTargetBaselines(t *testing.T) {
	a := screen("A", rec("X", v(100), v(200), v(300)))
	b := screen("B", rec("X", v(40), v(50), v(60)))
	c := screen("C", rec("X", v(350), v(400), v(450)))

	stats, err := newTestEngine(t, 2).ScoreBatch(context.Background(), []*dataset.Dataset{a, b, c})
	require.NoError(t, err)
	require.Len(t, stats.Datasets, 3)

	x := a.Records[0]
	assert.Equal(t, v(200), x.TargetValue)
	assert.Equal(t, v(400), x.SelectiveValue)
	assert.Equal(t, v(50), x.NTCValue)
	assert.Equal(t, v(4), x.Enrichment)
	assert.Equal(t, v(0.5), x.SelectiveEnrichment)
	assert.Equal(t, v(225), x.MeanNonTarget)
	assert.InDelta(t, 200.0/225.0, x.EASMSEnrichment.Float64, 1e-12)
	require.True(t, x.PValue.Valid)
	assert.InDelta(t, 0.8063765970271161, x.PValue.Float64, 1e-6)

	y := b.Records[0]
	assert.Equal(t, v(50), y.TargetValue)
	assert.Equal(t, v(400), y.SelectiveValue)
	assert.Equal(t, v(200), y.NTCValue)
	assert.Equal(t, v(0.25), y.Enrichment)
	assert.InDelta(t, 0.0051747073771471405, y.PValue.Float64, 1e-6)

	for _, ds := range []*dataset.Dataset{a, b, c} {
		for _, col := range dataset.ScoredColumns {
			assert.True(t, ds.Has(col), "%s lacks %s", ds.Name, col)
		}
		assert.Equal(t, dataset.AliasMeanNonTargetValues, ds.Header(dataset.ColMeanNonTarget))
	}
}

func TestScoreBatchMissingValues(t *testing.T) {
	tests := []struct {
		name   string
		target *dataset.Record
		others []*dataset.Record
		check  func(t *testing.T, r *dataset.Record)
	}{
		{
			name:   "identifier absent from complement",
			target: rec("LONELY", v(10), v(20), v(30)),
			others: []*dataset.Record{rec("OTHER", v(1), v(2), v(3))},
			check: func(t *testing.T, r *dataset.Record) {
				assert.Equal(t, v(20), r.TargetValue)
				assert.True(t, r.SelectiveValue.IsMissing())
				assert.True(t, r.NTCValue.IsMissing())
				assert.True(t, r.Enrichment.IsMissing())
				assert.True(t, r.SelectiveEnrichment.IsMissing())
				assert.True(t, r.MeanNonTarget.IsMissing())
				assert.True(t, r.EASMSEnrichment.IsMissing())
				assert.True(t, r.PValue.IsMissing())
			},
		},
		{
			name:   "zero baseline",
			target: rec("X", v(10), v(20), v(30)),
			others: []*dataset.Record{rec("X", v(0), v(0), v(0))},
			check: func(t *testing.T, r *dataset.Record) {
				assert.Equal(t, v(0), r.NTCValue)
				assert.True(t, r.Enrichment.IsMissing())
				assert.True(t, r.SelectiveEnrichment.IsMissing())
				assert.Equal(t, v(0), r.MeanNonTarget, "zero mean is still reported")
				assert.True(t, r.EASMSEnrichment.IsMissing())
				assert.Equal(t, v(1), r.PValue, "constant background gives p=1")
			},
		},
		{
			name:   "all replicates missing",
			target: rec("X", dataset.Missing, dataset.Missing, dataset.Missing),
			others: []*dataset.Record{rec("X", v(5), v(6), v(7))},
			check: func(t *testing.T, r *dataset.Record) {
				assert.True(t, r.TargetValue.IsMissing())
				assert.Equal(t, v(6), r.SelectiveValue)
				assert.True(t, r.Enrichment.IsMissing())
				assert.True(t, r.EASMSEnrichment.IsMissing())
				assert.True(t, r.PValue.IsMissing())
			},
		},
		{
			name:   "pooled background too small",
			target: rec("X", v(10), v(20), v(30)),
			others: []*dataset.Record{rec("X", v(5), dataset.Missing, v(7))},
			check: func(t *testing.T, r *dataset.Record) {
				assert.Equal(t, v(6), r.MeanNonTarget)
				assert.True(t, r.PValue.IsMissing())
			},
		},
		{
			name:   "single own replicate",
			target: rec("X", v(10)),
			others: []*dataset.Record{rec("X", v(5), v(6), v(7))},
			check: func(t *testing.T, r *dataset.Record) {
				assert.Equal(t, v(10), r.TargetValue)
				assert.Equal(t, v(1), r.PValue)
			},
		},
		{
			name:   "empty identifier never matches",
			target: rec("", v(10), v(20), v(30)),
			others: []*dataset.Record{rec("", v(5), v(6), v(7))},
			check: func(t *testing.T, r *dataset.Record) {
				assert.True(t, r.SelectiveValue.IsMissing())
				assert.True(t, r.MeanNonTarget.IsMissing())
				assert.True(t, r.PValue.IsMissing())
			},
		},
		{
			name:   "complement rows without target value",
			target: rec("X", v(10), v(20), v(30)),
			others: []*dataset.Record{rec("X", dataset.Missing, dataset.Missing, dataset.Missing)},
			check: func(t *testing.T, r *dataset.Record) {
				assert.True(t, r.SelectiveValue.IsMissing())
				assert.True(t, r.NTCValue.IsMissing())
				assert.True(t, r.MeanNonTarget.IsMissing())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := screen("T", tt.target)
			other := screen("O", tt.others...)

			_, err := newTestEngine(t, 1).ScoreBatch(context.Background(), []*dataset.Dataset{target, other})
			require.NoError(t, err)
			tt.check(t, target.Records[0])
		})
	}
}

func TestScoreBatchBroadcastsToDuplicateIdentifiers(t *testing.T) {
	a := screen("A", rec("X", v(10), v(10), v(10)), rec("X", v(30), v(30), v(30)))
	b := screen("B", rec("X", v(2), v(4), v(6)), rec("X", v(1), v(1), v(1)), rec("Y", v(100), v(100), v(100)))

	_, err := newTestEngine(t, 2).ScoreBatch(context.Background(), []*dataset.Dataset{a, b})
	require.NoError(t, err)

	for _, r := range a.Records {
		assert.Equal(t, v(4), r.SelectiveValue)
		assert.Equal(t, v(1), r.NTCValue)
		assert.Equal(t, v(2.5), r.MeanNonTarget)
	}
	assert.Equal(t, v(10), a.Records[0].Enrichment)
	assert.Equal(t, v(30), a.Records[1].Enrichment)

	// B sees both A rows pooled together.
	assert.Equal(t, v(30), b.Records[0].SelectiveValue)
	assert.Equal(t, v(10), b.Records[0].NTCValue)
	assert.Equal(t, v(20), b.Records[0].MeanNonTarget)
}

func TestScoreBatchSchemaErrorAbortsBeforeMutation(t *testing.T) {
	good := screen("GOOD", rec("X", v(1), v(2), v(3)))
	bad := dataset.New("BAD", dataset.ColCompoundID, dataset.ColRep1, dataset.ColRep2)
	bad.Records = []*dataset.Record{rec("X", v(4), v(5))}
	before := good.Clone()

	_, err := newTestEngine(t, 2).ScoreBatch(context.Background(), []*dataset.Dataset{good, bad})
	require.Error(t, err)

	var schemaErr *apperrors.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "BAD", schemaErr.Dataset)
	assert.Equal(t, []string{dataset.ColRep3}, schemaErr.Missing)

	assert.Equal(t, before.Columns(), good.Columns())
	assert.Equal(t, before.Records, good.Records)
	assert.False(t, good.Has(dataset.ColTargetValue))
}

func TestScoreBatchKeepsExistingNonTargetHeader(t *testing.T) {
	a := screen("A", rec("X", v(1), v(2), v(3)))
	a.AddColumn(dataset.ColMeanNonTarget)
	a.SetHeader(dataset.ColMeanNonTarget, dataset.AliasNonTargetIntensity)
	b := screen("B", rec("X", v(4), v(5), v(6)))

	_, err := newTestEngine(t, 1).ScoreBatch(context.Background(), []*dataset.Dataset{a, b})
	require.NoError(t, err)

	assert.Equal(t, dataset.AliasNonTargetIntensity, a.Header(dataset.ColMeanNonTarget))
	assert.Equal(t, v(5), a.Records[0].MeanNonTarget)
}

func TestScoreBatchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := screen("A", rec("X", v(1), v(2), v(3)))
	_, err := newTestEngine(t, 1).ScoreBatch(ctx, []*dataset.Dataset{a, screen("B")})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, a.Has(dataset.ColTargetValue))
}

func buildBatch() []*dataset.Dataset {
	var batch []*dataset.Dataset
	for d := 0; d < 4; d++ {
		ds := screen(fmt.Sprintf("T%d", d))
		for c := 0; c < 12; c++ {
			id := fmt.Sprintf("C%d", c%7)
			base := float64((d+1)*(c+3)) * 1.37
			r := rec(id, v(base), v(base*1.1+float64(c)), v(base*0.93+float64(d)))
			if (c+d)%5 == 0 {
				r.Replicates[2] = dataset.Missing
			}
			ds.Records = append(ds.Records, r)
		}
		batch = append(batch, ds)
	}
	return batch
}

func byName(batch []*dataset.Dataset) map[string][]*dataset.Record {
	out := make(map[string][]*dataset.Record, len(batch))
	for _, ds := range batch {
		out[ds.Name] = ds.Records
	}
	return out
}

func TestScoreBatchOrderAndWorkerIndependence(t *testing.T) {
	reference := buildBatch()
	_, err := newTestEngine(t, 1).ScoreBatch(context.Background(), reference)
	require.NoError(t, err)

	reversed := buildBatch()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	_, err = newTestEngine(t, 4).ScoreBatch(context.Background(), reversed)
	require.NoError(t, err)

	opt := cmpopts.EquateApprox(0, 1e-9)
	if diff := cmp.Diff(byName(reference), byName(reversed), opt); diff != "" {
		t.Errorf("scores depend on dataset order (-want +got):\n%s", diff)
	}
}

func TestScoreBatchStats(t *testing.T) {
	a := screen("A",
		rec("X", v(100), v(200), v(300)),
		rec("NOPE", v(1), v(2), v(3)),
		rec("X", dataset.Missing, dataset.Missing, dataset.Missing))
	b := screen("B", rec("X", v(40), v(50), v(60)), rec("X", v(1), v(2), v(3)))

	stats, err := newTestEngine(t, 1).ScoreBatch(context.Background(), []*dataset.Dataset{a, b})
	require.NoError(t, err)

	got := stats.Datasets[0]
	assert.Equal(t, "A", got.Dataset)
	assert.Equal(t, 3, got.Rows)
	assert.Equal(t, 1, got.TargetMissing)
	assert.Equal(t, 1, got.NoComplement)
	assert.Equal(t, 2, got.EASMSMissing)
	assert.Equal(t, 2, got.PValueMissing)
	assert.Equal(t, 0, got.PValueFailures)
}

func TestNewEngineDefaults(t *testing.T) {
	e := NewEngine(Options{}, nil)
	assert.Equal(t, DefaultOptions(), e.opts)
}
