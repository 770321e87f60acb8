package mapview

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/livability-map/internal/dataset"
)

func TestTopN_OrdersDescending(t *testing.T) {
	top := TopN(sampleCollection(), "final_score", 10)
	require.Len(t, top, 3)
	assert.Equal(t, "B2B", top[0].ID)
	assert.Equal(t, "C3C", top[1].ID)
	assert.Equal(t, "A1A", top[2].ID)
	assert.Equal(t, "0.80", top[0].Label)
}

func TestTopN_MissingSortsLast(t *testing.T) {
	coll := &dataset.Collection{Features: []*geojson.Feature{
		feature("M1", map[string]any{}),
		feature("S1", map[string]any{"final_score": -5000.0}),
		feature("M2", map[string]any{"final_score": "abc"}),
		feature("S2", map[string]any{"final_score": 0.1}),
	}}

	top := TopN(coll, "final_score", 0)
	require.Len(t, top, 4)
	assert.Equal(t, []string{"S2", "S1", "M1", "M2"}, []string{top[0].ID, top[1].ID, top[2].ID, top[3].ID})
	assert.True(t, top[2].Missing)
	assert.Equal(t, NotAvailable, top[2].Label)
	assert.Equal(t, "-5000.00", top[1].Label)
}

func TestTopN_TiesKeepDatasetOrder(t *testing.T) {
	coll := &dataset.Collection{Features: []*geojson.Feature{
		feature("X", map[string]any{"final_score": 0.5}),
		feature("Y", map[string]any{"final_score": 0.5}),
		feature("Z", map[string]any{"final_score": 0.5}),
	}}
	top := TopN(coll, "final_score", 2)
	require.Len(t, top, 2)
	assert.Equal(t, "X", top[0].ID)
	assert.Equal(t, "Y", top[1].ID)
}

func TestTopN_Nil(t *testing.T) {
	assert.Nil(t, TopN(nil, "final_score", 10))
}

func TestTopN_NonFiniteIsMissing(t *testing.T) {
	coll := &dataset.Collection{Features: []*geojson.Feature{
		feature("I1", map[string]any{"final_score": math.Inf(1)}),
		feature("S1", map[string]any{"final_score": 0.3}),
		feature("I2", map[string]any{"final_score": "Infinity"}),
	}}

	top := TopN(coll, "final_score", 0)
	require.Len(t, top, 3)
	assert.Equal(t, "S1", top[0].ID)
	assert.True(t, top[1].Missing)
	assert.True(t, top[2].Missing)
	assert.Equal(t, NotAvailable, top[1].Label)
}
