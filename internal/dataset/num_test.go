package dataset

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumDiv(t *testing.T) {
	tests := []struct {
		name string
		n, d Num
		want Num
	}{
		{name: "exact ratio", n: Of(200), d: Of(50), want: Of(4)},
		{name: "zero denominator", n: Of(200), d: Of(0), want: Missing},
		{name: "missing denominator", n: Of(200), d: Missing, want: Missing},
		{name: "missing numerator", n: Missing, d: Of(50), want: Missing},
		{name: "zero numerator", n: Of(0), d: Of(3), want: Of(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.n.Div(tt.d))
		})
	}
}

func TestOfRejectsNonFinite(t *testing.T) {
	assert.True(t, Of(math.NaN()).IsMissing())
	assert.True(t, Of(math.Inf(1)).IsMissing())
	assert.True(t, Of(math.Inf(-1)).IsMissing())
	assert.False(t, Of(0).IsMissing())
}

func TestMean(t *testing.T) {
	assert.Equal(t, Of(200), Mean(Of(100), Of(200), Of(300)))
	assert.Equal(t, Of(150), Mean(Of(100), Missing, Of(200)))
	assert.Equal(t, Missing, Mean(Missing, Missing, Missing))
	assert.Equal(t, Missing, Mean())
}

func TestComparisonsWithMissing(t *testing.T) {
	m := Missing
	assert.False(t, m.GreaterThan(0))
	assert.False(t, m.AtLeast(0))
	assert.False(t, m.LessThan(0))
	assert.False(t, m.AtMost(0))

	v := Of(5)
	assert.True(t, v.AtLeast(5))
	assert.False(t, v.GreaterThan(5))
	assert.True(t, v.AtMost(5))
	assert.False(t, v.LessThan(5))
}

func TestParseNum(t *testing.T) {
	tests := []struct {
		in      string
		want    Num
		wantErr bool
	}{
		{in: "1.5", want: Of(1.5)},
		{in: " 42 ", want: Of(42)},
		{in: "", want: Missing},
		{in: "nan", want: Missing},
		{in: "NaN", want: Missing},
		{in: "NA", want: Missing},
		{in: "1e-3", want: Of(0.001)},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNum(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNumStringRoundTrip(t *testing.T) {
	values := []float64{0.1, 1.0 / 3.0, 12345.678901234, 1e-12, 0.00090562808139}
	for _, v := range values {
		parsed, err := ParseNum(Of(v).String())
		require.NoError(t, err)
		assert.Equal(t, v, parsed.Float64)
	}
	assert.Equal(t, "", Missing.String())
	assert.Equal(t, "3", Of(3).String())
}

func TestNumJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Num `json:"a"`
		B Num `json:"b"`
	}{A: Of(2.5), B: Missing})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2.5,"b":null}`, string(data))

	var decoded struct {
		A Num `json:"a"`
		B Num `json:"b"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, Of(2.5), decoded.A)
	assert.True(t, decoded.B.IsMissing())
}

func TestNumScanValue(t *testing.T) {
	var n Num
	require.NoError(t, n.Scan(nil))
	assert.True(t, n.IsMissing())

	require.NoError(t, n.Scan(int64(7)))
	assert.Equal(t, Of(7), n)

	require.NoError(t, n.Scan([]byte("0.25")))
	assert.Equal(t, Of(0.25), n)

	assert.Error(t, n.Scan(true))

	v, err := Of(1.5).Value()
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	v, err = Missing.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
