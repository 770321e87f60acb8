package dataset

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom/encoding/geojson"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"nil", nil, 0, false},
		{"float", 0.25, 0.25, true},
		{"int", 7, 7, true},
		{"int64", int64(-3), -3, true},
		{"json number", json.Number("1.5"), 1.5, true},
		{"bad json number", json.Number("x"), 0, false},
		{"numeric string", " 0.75 ", 0.75, true},
		{"blank string", "", 0, true},
		{"word", "abc", 0, false},
		{"true", true, 1, true},
		{"false", false, 0, true},
		{"nan", math.NaN(), 0, false},
		{"positive infinity", math.Inf(1), 0, false},
		{"negative infinity", math.Inf(-1), 0, false},
		{"infinity string", "Infinity", 0, false},
		{"inf string", "-inf", 0, false},
		{"nan string", "NaN", 0, false},
		{"map", map[string]any{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Number(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestIdentifier(t *testing.T) {
	assert.Equal(t, "H2X", Identifier(map[string]any{"FSA_CODE": "H2X", "CFSAUID": "H3Z"}))
	assert.Equal(t, "H3Z", Identifier(map[string]any{"FSA_CODE": nil, "CFSAUID": "H3Z"}))
	assert.Equal(t, "H1A", Identifier(map[string]any{"FSA": "H1A"}))
	assert.Equal(t, "Area", Identifier(map[string]any{"population": 100.0}))
	assert.Equal(t, "Area", Identifier(nil))
}

func TestCollectionClone_IsolatesProperties(t *testing.T) {
	orig := &Collection{Features: []*geojson.Feature{
		{Properties: map[string]any{"FSA_CODE": "H2X", "final_score": 0.4}},
	}}

	cp := orig.Clone()
	cp.Features[0].Properties["final_score"] = 0.9

	assert.Equal(t, 0.4, orig.Features[0].Properties["final_score"])
	assert.Equal(t, 0.9, cp.Features[0].Properties["final_score"])
}

func TestCollectionValuesAndFind(t *testing.T) {
	c := &Collection{Features: []*geojson.Feature{
		{Properties: map[string]any{"FSA_CODE": "A", "final_score": 0.2}},
		{Properties: map[string]any{"FSA_CODE": "B"}},
	}}

	assert.Equal(t, []any{0.2, nil}, c.Values("final_score"))

	f, ok := c.Find("B")
	require.True(t, ok)
	assert.Equal(t, "B", f.Properties["FSA_CODE"])

	_, ok = c.Find("Z")
	assert.False(t, ok)

	var nilColl *Collection
	assert.Equal(t, 0, nilColl.Len())
	assert.Nil(t, nilColl.Values("x"))
}

func TestProperty(t *testing.T) {
	f := &geojson.Feature{Properties: map[string]any{"a": "0.5", "b": nil}}

	v, ok := Property(f, "a")
	assert.True(t, ok)
	assert.InDelta(t, 0.5, v, 1e-12)

	_, ok = Property(f, "b")
	assert.False(t, ok)

	_, ok = Property(nil, "a")
	assert.False(t, ok)
}
