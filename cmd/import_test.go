package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeShapefile(t *testing.T, codes ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fsa.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("CFSAUID", 3)}))

	for i, code := range codes {
		x := float64(i)
		pts := []shp.Point{{X: x, Y: 0}, {X: x, Y: 1}, {X: x + 1, Y: 1}, {X: x + 1, Y: 0}, {X: x, Y: 0}}
		n := w.Write(&shp.Polygon{
			Box:       shp.BBoxFromPoints(pts),
			NumParts:  1,
			NumPoints: int32(len(pts)),
			Parts:     []int32{0},
			Points:    pts,
		})
		require.NoError(t, w.WriteAttribute(int(n), 0, code))
	}
	w.Close()
	return path
}

func TestBuildDataset_JoinsScores(t *testing.T) {
	setTestConfig(t)
	shpPath := writeShapefile(t, "A1A", "Z9Z")

	join := filepath.Join(t.TempDir(), "scores.geojson")
	require.NoError(t, os.WriteFile(join, []byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":null,"properties":{"FSA_CODE":"A1A","crime_score":0.2,"parks_score":0.7}}
	]}`), 0o644))

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	coll, err := buildDataset(cmd, shpPath, importOptions{join: join})
	require.NoError(t, err)
	require.Equal(t, 2, coll.Len())

	props := coll.Features[0].Properties
	assert.Equal(t, "A1A", props["CFSAUID"])
	assert.InDelta(t, 0.7, props["parks_score"], 1e-9)
	assert.NotContains(t, coll.Features[1].Properties, "parks_score")
}

func TestBuildDataset_MissingShapefile(t *testing.T) {
	setTestConfig(t)

	_, err := buildDataset(&cobra.Command{}, filepath.Join(t.TempDir(), "none.shp"), importOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import shapefile")
}
