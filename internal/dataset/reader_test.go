package dataset

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = "\ufeffCOMPOUND_ID,SMILES,POS_INT_REP1,POS_INT_REP2,POS_INT_REP3,ISOMERS,BB1_ID,MEAN_NONTARGET_VALUES\n" +
	"C1,CCO,100,200,300,A,bb-7,\n" +
	"C2,c1ccccc1,,,,nan,bb-8,12.5\n" +
	",,,,,,,\n" +
	"C3,CCN,50,,70,,bb-9,\n"

func TestReadCSV(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader(sampleCSV), "BRD4")
	require.NoError(t, err)

	assert.Equal(t, "BRD4", ds.Name)
	require.Equal(t, 3, ds.Len(), "blank rows are skipped")

	assert.Equal(t, []string{
		ColCompoundID, ColSMILES, ColRep1, ColRep2, ColRep3, ColIsomers, "BB1_ID", ColMeanNonTarget,
	}, ds.Columns())
	assert.Equal(t, "MEAN_NONTARGET_VALUES", ds.Header(ColMeanNonTarget), "alias header is preserved")

	first := ds.Records[0]
	assert.Equal(t, "C1", first.CompoundID)
	assert.Equal(t, "CCO", first.SMILES)
	assert.Equal(t, [3]Num{Of(100), Of(200), Of(300)}, first.Replicates)
	assert.True(t, first.HasIsomer())
	assert.Equal(t, "bb-7", first.Extra["BB1_ID"])
	assert.True(t, first.MeanNonTarget.IsMissing())

	second := ds.Records[1]
	assert.False(t, second.HasIsomer(), "nan isomer is absent")
	assert.True(t, second.MeanReplicate().IsMissing())
	assert.Equal(t, Of(12.5), second.MeanNonTarget)

	third := ds.Records[2]
	assert.Equal(t, Of(60), third.MeanReplicate())
	assert.Equal(t, []float64{50, 70}, third.ReplicateValues())
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), "empty")
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestReadCSVCoercesNonNumericCells(t *testing.T) {
	input := "COMPOUND_ID,POS_INT_REP1,POS_INT_REP2,POS_INT_REP3\n" +
		"C1,abc,20,30\n" +
		"C2,10,ND,1e999\n" +
		"C3,1,2,3\n"

	ds, err := ReadCSV(strings.NewReader(input), "BRD4")
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())

	assert.True(t, ds.Records[0].Replicates[0].IsMissing())
	assert.Equal(t, Of(25), ds.Records[0].MeanReplicate())
	assert.True(t, ds.Records[1].Replicates[1].IsMissing())
	assert.True(t, ds.Records[1].Replicates[2].IsMissing(), "out of range reads as missing")
	assert.Equal(t, map[string]int{ColRep1: 1, ColRep2: 1, ColRep3: 1}, ds.Coerced)

	clean, err := ReadCSV(strings.NewReader("COMPOUND_ID,POS_INT_REP1\nC1,nan\n"), "clean")
	require.NoError(t, err)
	assert.Nil(t, clean.Coerced, "NA tokens are not coercions")
}

func TestReadCSVDuplicateColumns(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		columns []string
		headers []string
		rows    [][]string
		check   func(t *testing.T, r *Record)
	}{
		{
			name:    "upstream label next to computed label",
			input:   "COMPOUND_ID,LABEL,AIRCHECK_LABEL,POS_INT_REP1,POS_INT_REP2,POS_INT_REP3\nC1,7,3,1,2,3\n",
			columns: []string{ColCompoundID, "LABEL", ColLabel, ColRep1, ColRep2, ColRep3},
			headers: []string{"COMPOUND_ID", "LABEL", "AIRCHECK_LABEL", "POS_INT_REP1", "POS_INT_REP2", "POS_INT_REP3"},
			rows:    [][]string{{"C1", "7", "3", "1", "2", "3"}},
			check: func(t *testing.T, r *Record) {
				assert.Equal(t, Of(3), r.Label)
				assert.Equal(t, "7", r.Extra["LABEL"])
			},
		},
		{
			name:    "text upstream label after computed label",
			input:   "COMPOUND_ID,AIRCHECK_LABEL,LABEL\nC1,,binder\n",
			columns: []string{ColCompoundID, ColLabel, "LABEL"},
			headers: []string{"COMPOUND_ID", "AIRCHECK_LABEL", "LABEL"},
			rows:    [][]string{{"C1", "", "binder"}},
			check: func(t *testing.T, r *Record) {
				assert.True(t, r.Label.IsMissing())
				assert.Equal(t, "binder", r.Extra["LABEL"])
			},
		},
		{
			name:    "label alone is the label column",
			input:   "COMPOUND_ID,LABEL\nC1,1\n",
			columns: []string{ColCompoundID, ColLabel},
			headers: []string{"COMPOUND_ID", "LABEL"},
			rows:    [][]string{{"C1", "1"}},
			check: func(t *testing.T, r *Record) {
				assert.Equal(t, Of(1), r.Label)
			},
		},
		{
			name:    "two non-target aliases",
			input:   "COMPOUND_ID,MEAN_NONTARGET_VALUE,NONTARGET_INTENSITY_VALUE\nC1,4,9\n",
			columns: []string{ColCompoundID, ColMeanNonTarget, "NONTARGET_INTENSITY_VALUE"},
			headers: []string{"COMPOUND_ID", "MEAN_NONTARGET_VALUE", "NONTARGET_INTENSITY_VALUE"},
			rows:    [][]string{{"C1", "4", "9"}},
			check: func(t *testing.T, r *Record) {
				assert.Equal(t, Of(4), r.MeanNonTarget)
			},
		},
		{
			name:    "repeated replicate header",
			input:   "COMPOUND_ID,POS_INT_REP1,pos_int_rep1\nC1,5,6\n",
			columns: []string{ColCompoundID, ColRep1, "pos_int_rep1.1"},
			headers: []string{"COMPOUND_ID", "POS_INT_REP1", "pos_int_rep1"},
			rows:    [][]string{{"C1", "5", "6"}},
			check: func(t *testing.T, r *Record) {
				assert.Equal(t, Of(5), r.Replicates[0])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ReadCSV(strings.NewReader(tt.input), "BRD4")
			require.NoError(t, err)
			assert.Equal(t, tt.columns, ds.Columns())
			assert.Equal(t, tt.headers, ds.Headers())
			assert.Equal(t, tt.rows, ds.Rows())
			assert.Nil(t, ds.Coerced)
			require.Equal(t, 1, ds.Len())
			tt.check(t, ds.Records[0])
		})
	}
}

func TestCanonicalAliases(t *testing.T) {
	assert.Equal(t, ColMeanNonTarget, Canonical("MEAN_NONTARGET_VALUES"))
	assert.Equal(t, ColMeanNonTarget, Canonical("NONTARGET_INTENSITY_VALUE"))
	assert.Equal(t, ColMeanNonTarget, Canonical("MEAN_NONTARGET_VALUE"))
	assert.Equal(t, ColLabel, Canonical("LABEL"))
	assert.Equal(t, ColLabel, Canonical(" AIRCHECK_LABEL "))
	assert.Equal(t, ColSMILES, Canonical("smiles"))
	assert.Equal(t, "Plate", Canonical("Plate"))
}

func TestReadFileXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "HDAC1.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"COMPOUND_ID", "SMILES", "POS_INT_REP1", "POS_INT_REP2", "POS_INT_REP3"},
		{"C1", "CCO", 10, 20, 30},
		{"C2", "CCN", 1.5, nil, 2.5},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ds, err := ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "HDAC1", ds.Name)
	assert.Equal(t, path, ds.Source)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, Of(20), ds.Records[0].MeanReplicate())
	assert.Equal(t, Of(2), ds.Records[1].MeanReplicate())
}

func TestDatasetColumnsAndRows(t *testing.T) {
	ds := New("T", ColCompoundID, ColRep1)
	ds.AddColumn(ColRep1)
	ds.AddColumn(ColPValue)
	ds.SetHeader(ColPValue, "PVALUE")

	assert.Equal(t, []string{ColCompoundID, ColRep1, ColPValue}, ds.Columns())
	assert.Equal(t, []string{ColRep2, ColRep3}, ds.MissingColumns(ReplicateColumns...))

	ds.Records = []*Record{{CompoundID: "C1", Replicates: [3]Num{Of(1.25)}, PValue: Of(0.01)}}
	assert.Equal(t, [][]string{{"C1", "1.25", "0.01"}}, ds.Rows())

	clone := ds.Clone()
	clone.Records[0].CompoundID = "changed"
	clone.AddColumn(ColLabel)
	assert.Equal(t, "C1", ds.Records[0].CompoundID)
	assert.False(t, ds.Has(ColLabel))
}
