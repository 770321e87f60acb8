package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/livability-map/internal/config"
)

const sampleGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]},
     "properties": {"FSA_CODE": "A1A", "final_score": 0.2, "safety_score": 0.9, "population": 1500}},
    {"type": "Feature", "geometry": {"type": "Polygon", "coordinates": [[[1,0],[2,0],[2,1],[1,1],[1,0]]]},
     "properties": {"FSA_CODE": "B2B", "final_score": 0.8, "safety_score": 0.1}},
    {"type": "Feature", "geometry": {"type": "Polygon", "coordinates": [[[2,0],[3,0],[3,1],[2,1],[2,0]]]},
     "properties": {"FSA_CODE": "C3C", "final_score": 0.5, "safety_score": 0.5}}
  ]
}`

// setTestConfig installs a config pointing at a temp dataset and sqlite db.
func setTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "fsa.geojson")
	require.NoError(t, os.WriteFile(src, []byte(sampleGeoJSON), 0o644))

	c := &config.Config{}
	c.Store.Driver = "sqlite"
	c.Store.DatabaseURL = filepath.Join(dir, "livability.db")
	c.Dataset.Source = src
	c.Dataset.TimeoutSecs = 5
	c.Scoring.Weights = config.WeightsConfig{Safety: 35, Parks: 30, Transit: 25, Parking: 10}
	c.Scoring.Property = "final_score"
	c.Scoring.TopN = 10
	c.Server.Port = 8080

	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
	return c
}
