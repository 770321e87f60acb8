// Package dataset loads and models the FSA livability GeoJSON dataset.
package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/twpayne/go-geom/encoding/geojson"
)

// DefaultIdentifier is used when a feature carries none of the identifier fields.
const DefaultIdentifier = "Area"

// identifierFields are checked in order; the first present one names the feature.
var identifierFields = []string{"FSA_CODE", "CFSAUID", "FSA"}

// Collection is an in-memory FeatureCollection plus load metadata.
type Collection struct {
	Features []*geojson.Feature
	Source   string
	LoadedAt time.Time
}

// Len returns the number of features.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Features)
}

// Clone returns a copy whose property maps can be written without touching c.
// Geometries are shared.
func (c *Collection) Clone() *Collection {
	if c == nil {
		return nil
	}
	out := &Collection{
		Features: make([]*geojson.Feature, len(c.Features)),
		Source:   c.Source,
		LoadedAt: c.LoadedAt,
	}
	for i, f := range c.Features {
		props := make(map[string]any, len(f.Properties)+1)
		for k, v := range f.Properties {
			props[k] = v
		}
		out.Features[i] = &geojson.Feature{
			ID:         f.ID,
			Geometry:   f.Geometry,
			BBox:       f.BBox,
			Properties: props,
		}
	}
	return out
}

// Values extracts the named property from every feature, nil where absent.
func (c *Collection) Values(property string) []any {
	if c == nil {
		return nil
	}
	out := make([]any, len(c.Features))
	for i, f := range c.Features {
		out[i] = f.Properties[property]
	}
	return out
}

// Find returns the feature whose identifier matches id.
func (c *Collection) Find(id string) (*geojson.Feature, bool) {
	if c == nil {
		return nil, false
	}
	for _, f := range c.Features {
		if Identifier(f.Properties) == id {
			return f, true
		}
	}
	return nil, false
}

// Identifier returns FSA_CODE, CFSAUID or FSA, whichever is present first.
func Identifier(props map[string]any) string {
	for _, key := range identifierFields {
		if v, ok := Present(props, key); ok {
			return fmt.Sprint(v)
		}
	}
	return DefaultIdentifier
}

// Present reports whether key exists in props with a non-null value.
func Present(props map[string]any, key string) (any, bool) {
	v, ok := props[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Number converts a property value the way a loose numeric cast would:
// numbers pass through, numeric strings parse (blank counts as 0) and
// booleans map to 0/1. Anything else, including NaN and ±Inf, is not a
// number.
func Number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, true
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = n
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Property returns the numeric value of a feature property.
func Property(f *geojson.Feature, name string) (float64, bool) {
	if f == nil {
		return 0, false
	}
	return Number(f.Properties[name])
}
