// Package mapview holds the choropleth view state and turns user actions
// into consistently recomputed scores, breaks, legend, ranking and styles.
package mapview

import (
	"github.com/sells-group/livability-map/internal/choropleth"
	"github.com/sells-group/livability-map/internal/dataset"
)

// DefaultProperty drives coloring until the user picks another.
const DefaultProperty = "final_score"

// ScoreProperty receives the blended score on every re-weight.
const ScoreProperty = "final_score"

// propertyAliases maps selector names onto dataset property names.
var propertyAliases = map[string]string{
	"overall_score": "final_score",
	"crime_score":   "crime_score",
	"parks_score":   "parks_score",
	"transit_score": "transit_score",
	"crime_rate":    "crime_rate_per_1000",
	"parks_area":    "parks_area_per_sqkm",
	"parking_score": "parking_score",
}

// ResolveProperty maps a selector name to the dataset property it shows.
// Unknown names pass through; empty selects DefaultProperty.
func ResolveProperty(name string) string {
	if p, ok := propertyAliases[name]; ok {
		return p
	}
	if name == "" {
		return DefaultProperty
	}
	return name
}

// ScoringContext is the single active scoring lens shared by the
// classifier, legend and ranking. Breaks always belong to Property over the
// features they were computed from.
type ScoringContext struct {
	Property string    `json:"property"`
	Breaks   []float64 `json:"breaks"`
}

// NewScoringContext computes breaks for property over features.
func NewScoringContext(property string, features *dataset.Collection) ScoringContext {
	breaks, ok := choropleth.ComputeQuantileBreaks(features.Values(property), choropleth.Classes)
	if !ok {
		breaks = nil
	}
	return ScoringContext{Property: property, Breaks: breaks}
}

// HasData reports whether any feature had a numeric value for Property.
func (c ScoringContext) HasData() bool {
	return c.Breaks != nil
}
