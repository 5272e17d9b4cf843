package window

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	valid := map[string]float64{
		"0":      0,
		"99":     99,
		"12.34":  12.34,
		" 7.5 ":  7.5,
		"1.500":  1.5,
		"0.01":   0.01,
		"98.99":  98.99,
		"05":     5,
		"99.000": 99,
	}
	for in, want := range valid {
		got, err := ParseValue(in)
		require.NoError(t, err, "ParseValue(%q)", in)
		assert.Equal(t, want, got, "ParseValue(%q)", in)
	}

	invalid := []string{"", "  ", "abc", "1,5", "-0.01", "99.01", "100", "1.234", "NaN", "1e400x"}
	for _, in := range invalid {
		_, err := ParseValue(in)
		require.Error(t, err, "ParseValue(%q)", in)
		assert.True(t, IsValidation(err), "ParseValue(%q)", in)
	}
}

func TestCheckValue(t *testing.T) {
	assert.NoError(t, CheckValue("slot 1", 0.07))
	assert.NoError(t, CheckValue("slot 1", 42.42))

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -1, 99.5, 0.001} {
		err := CheckValue("slot 1", v)
		require.Error(t, err, "CheckValue(%v)", v)
		assert.True(t, IsValidation(err))
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := CheckValue("slot 3", 120)
	assert.EqualError(t, err, "invalid slot 3: 120 is outside [0, 99]")
}
