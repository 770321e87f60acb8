package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

func numCoords(g geom.T) int {
	return len(g.FlatCoords()) / g.Stride()
}

// noisySquare has collinear midpoints on every edge.
func noisySquare() *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{0, 0}, {0.5, 0}, {1, 0}, {1, 0.5}, {1, 1}, {0.5, 1}, {0, 1}, {0, 0.5}, {0, 0},
	}})
}

func TestSimplify_Polygon(t *testing.T) {
	c := &Collection{Features: []*geojson.Feature{
		{Geometry: noisySquare(), Properties: map[string]any{"FSA": "A"}},
	}}

	out := Simplify(c, 0.01)
	require.Equal(t, 1, out.Len())

	poly, ok := out.Features[0].Geometry.(*geom.Polygon)
	require.True(t, ok)
	assert.Less(t, numCoords(poly), numCoords(noisySquare()))

	// Original untouched.
	assert.Equal(t, 9, numCoords(c.Features[0].Geometry))
}

func TestSimplify_MultiPolygon(t *testing.T) {
	mp := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, mp.Push(noisySquare()))

	c := &Collection{Features: []*geojson.Feature{{Geometry: mp}}}
	out := Simplify(c, 0.01)

	got, ok := out.Features[0].Geometry.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 1, got.NumPolygons())
	assert.Less(t, numCoords(got), numCoords(mp))
}

func TestSimplify_CollapsedShellKeepsOriginal(t *testing.T) {
	sq := noisySquare()
	c := &Collection{Features: []*geojson.Feature{{Geometry: sq}}}

	out := Simplify(c, 10)
	assert.Same(t, sq, out.Features[0].Geometry)
}

func TestSimplify_Disabled(t *testing.T) {
	c := &Collection{Features: []*geojson.Feature{{Geometry: noisySquare()}}}
	assert.Same(t, c, Simplify(c, 0))
}

func TestSimplify_NonPolygonPassesThrough(t *testing.T) {
	pt := geom.NewPointFlat(geom.XY, []float64{1, 2})
	c := &Collection{Features: []*geojson.Feature{{Geometry: pt}, {Geometry: nil}}}

	out := Simplify(c, 0.5)
	assert.Same(t, pt, out.Features[0].Geometry)
	assert.Nil(t, out.Features[1].Geometry)
}
