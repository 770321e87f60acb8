// Package scorer blends per-area livability components into a single score
// using user-adjustable weights.
package scorer

import (
	"math"

	"github.com/sells-group/livability-map/internal/dataset"
)

// Component names one livability sub-score.
type Component string

// Components resolved from feature properties. Price is resolved but not
// part of the blend.
const (
	Safety  Component = "safety"
	Parks   Component = "parks"
	Transit Component = "transit"
	Parking Component = "parking"
	Price   Component = "price"
)

// parkingCountScale converts a raw parking_count into a 0..1 score.
const parkingCountScale = 4000

// Components holds the resolved per-feature component values.
type Components struct {
	Safety  float64 `json:"safety"`
	Parks   float64 `json:"parks"`
	Transit float64 `json:"transit"`
	Parking float64 `json:"parking"`
	Price   float64 `json:"price"`
}

// Get returns the value for c.
func (c Components) Get(name Component) float64 {
	switch name {
	case Safety:
		return c.Safety
	case Parks:
		return c.Parks
	case Transit:
		return c.Transit
	case Parking:
		return c.Parking
	case Price:
		return c.Price
	}
	return 0
}

func (c *Components) set(name Component, v float64) {
	switch name {
	case Safety:
		c.Safety = v
	case Parks:
		c.Parks = v
	case Transit:
		c.Transit = v
	case Parking:
		c.Parking = v
	case Price:
		c.Price = v
	}
}

// Source is one step of a component's fallback chain: a property name and
// the transform applied to its numeric value.
type Source struct {
	Field     string
	Transform func(float64) float64
}

// Rule is the ordered fallback chain for a component. The first present
// field wins; none present resolves to 0.
type Rule struct {
	Component Component
	Sources   []Source
}

func identity(v float64) float64 { return v }

// ResolutionTable lists how each component is read from feature properties.
// Schema changes in the dataset are edits to this table.
var ResolutionTable = []Rule{
	{Safety, []Source{
		{"safety_score_new", identity},
		{"safety_score", identity},
		{"crime_score", func(v float64) float64 { return 1 - v }},
		{"safety_from_crime", identity},
	}},
	{Parks, []Source{
		{"parks_score_new", identity},
		{"parks_score", identity},
	}},
	{Transit, []Source{
		{"transit_score_with_metro", identity},
		{"transit_score", identity},
	}},
	{Parking, []Source{
		{"parking_score", identity},
		{"parking_count", func(v float64) float64 { return math.Min(1, v/parkingCountScale) }},
	}},
	{Price, []Source{
		{"price_score", identity},
	}},
}

// ResolveComponents reads every component from props via ResolutionTable.
// A present field whose value is not numeric resolves to 0.
func ResolveComponents(props map[string]any) Components {
	var c Components
	for _, rule := range ResolutionTable {
		c.set(rule.Component, resolve(props, rule.Sources))
	}
	return c
}

func resolve(props map[string]any, sources []Source) float64 {
	for _, src := range sources {
		raw, ok := dataset.Present(props, src.Field)
		if !ok {
			continue
		}
		v, ok := dataset.Number(raw)
		if !ok {
			return 0
		}
		out := src.Transform(v)
		if math.IsNaN(out) {
			return 0
		}
		return out
	}
	return 0
}
