package convert

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFloat64(t *testing.T) {
	ok := []struct {
		in   any
		want float64
	}{
		{" 3.5 ", 3.5},
		{7, 7},
		{int64(-2), -2},
		{float32(0.5), 0.5},
		{json.Number("0.014"), 0.014},
		{"1e-3", 0.001},
	}
	for _, tc := range ok {
		got, err := ToFloat64(tc.in)
		require.NoError(t, err, "%v", tc.in)
		assert.Equal(t, tc.want, got)
	}

	for _, in := range []any{nil, "", "  ", "abc", "NaN", "Inf", math.Inf(1), true, []int{1}} {
		_, err := ToFloat64(in)
		assert.Error(t, err, "%v", in)
	}
}

func TestToText(t *testing.T) {
	assert.Equal(t, "", ToText(nil))
	assert.Equal(t, "2870", ToText(" 2870 "))
	assert.Equal(t, "0.26", ToText(0.26))
	assert.Equal(t, "12", ToText(12))
	assert.Equal(t, "0.014", ToText(json.Number("0.014")))
}
