package scorer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()
	assert.Equal(t, 100.0, w.Sum())
	assert.NoError(t, w.Validate())
}

func TestNormalize(t *testing.T) {
	n := DefaultWeights().Normalize()
	assert.InDelta(t, 0.35, n.Safety, 1e-12)
	assert.InDelta(t, 0.30, n.Parks, 1e-12)
	assert.InDelta(t, 0.25, n.Transit, 1e-12)
	assert.InDelta(t, 0.10, n.Parking, 1e-12)
	assert.InDelta(t, 1.0, n.Sum(), 1e-12)
}

func TestNormalize_AllZero(t *testing.T) {
	assert.Equal(t, Weights{}, Weights{}.Normalize())
}

func TestBlend_AllZeroWeights(t *testing.T) {
	c := Components{Safety: 0.9, Parks: 0.8, Transit: 0.7, Parking: 0.6}
	got := Blend(c, Weights{})
	assert.Equal(t, 0.0, got)
	assert.False(t, math.IsNaN(got))
}

func TestBlend_SafetyOnly(t *testing.T) {
	c := Components{Safety: 0.37, Parks: 0.8, Transit: 0.7, Parking: 0.6}
	assert.Equal(t, 0.37, Blend(c, Weights{Safety: 1}))
}

func TestBlend_IgnoresPrice(t *testing.T) {
	w := DefaultWeights()
	a := Blend(Components{Safety: 0.5, Parks: 0.5, Transit: 0.5, Parking: 0.5}, w)
	b := Blend(Components{Safety: 0.5, Parks: 0.5, Transit: 0.5, Parking: 0.5, Price: 1}, w)
	assert.Equal(t, a, b)
}

func TestBlend_ScaleInvariant(t *testing.T) {
	c := Components{Safety: 0.2, Parks: 0.4, Transit: 0.6, Parking: 0.8}
	a := Blend(c, Weights{Safety: 1, Parks: 1, Transit: 1, Parking: 1})
	b := Blend(c, Weights{Safety: 25, Parks: 25, Transit: 25, Parking: 25})
	assert.InDelta(t, 0.5, a, 1e-12)
	assert.InDelta(t, a, b, 1e-12)
}

func TestScore(t *testing.T) {
	got := Score(map[string]any{"crime_score": 0.3, "parks_score": 1.0}, Weights{Safety: 1, Parks: 1})
	assert.InDelta(t, 0.85, got, 1e-12)
}

func TestValidate(t *testing.T) {
	err := Weights{Safety: -1, Parks: math.NaN()}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "safety must be >= 0")
	assert.Contains(t, err.Error(), "parks must be finite")

	assert.NoError(t, Weights{}.Validate())
}

func TestParseWeights(t *testing.T) {
	w, err := ParseWeights("safety=50, transit=0", DefaultWeights())
	require.NoError(t, err)
	assert.Equal(t, Weights{Safety: 50, Parks: 30, Transit: 0, Parking: 10}, w)

	w, err = ParseWeights("", DefaultWeights())
	require.NoError(t, err)
	assert.Equal(t, DefaultWeights(), w)
}

func TestParseWeights_Errors(t *testing.T) {
	_, err := ParseWeights("safety", DefaultWeights())
	assert.ErrorContains(t, err, "must be name=value")

	_, err = ParseWeights("price=10", DefaultWeights())
	assert.ErrorContains(t, err, "unknown weight")

	_, err = ParseWeights("parks=abc", DefaultWeights())
	assert.ErrorContains(t, err, "parse weight")

	_, err = ParseWeights("parks=-5", DefaultWeights())
	assert.ErrorContains(t, err, "parks must be >= 0")
}
