// Package choropleth computes quantile class breaks and maps values onto a
// fixed color ramp for the livability map.
package choropleth

import (
	"math"
	"sort"

	"github.com/sells-group/livability-map/internal/dataset"
)

// Classes is the number of color classes on the map.
const Classes = 7

// ComputeQuantileBreaks returns k equal-population breakpoints over the
// numeric entries of values using linear interpolation between the two
// bracketing sorted values. ok is false when no entry is numeric.
// k must be at least 2.
func ComputeQuantileBreaks(values []any, k int) (breaks []float64, ok bool) {
	vals := make([]float64, 0, len(values))
	for _, v := range values {
		if f, isNum := dataset.Number(v); isNum {
			vals = append(vals, f)
		}
	}
	if len(vals) == 0 {
		return nil, false
	}
	sort.Float64s(vals)

	out := make([]float64, 0, k)
	last := float64(len(vals) - 1)
	for i := 0; i < k; i++ {
		p := float64(i) / float64(k-1)
		pos := last * p
		lo := int(math.Floor(pos))
		hi := int(math.Ceil(pos))
		if lo == hi {
			out = append(out, vals[lo])
			continue
		}
		out = append(out, vals[lo]+(pos-float64(lo))*(vals[hi]-vals[lo]))
	}
	return out, true
}

// Classify returns the class index for value: the highest i with
// value >= breaks[i], or 0 when value is below every break. ok is false for
// a missing or non-numeric value, or when there are no breaks.
func Classify(value any, breaks []float64) (class int, ok bool) {
	v, isNum := dataset.Number(value)
	if !isNum || breaks == nil {
		return 0, false
	}
	for i := len(breaks) - 1; i >= 0; i-- {
		if v >= breaks[i] {
			return i, true
		}
	}
	return 0, true
}
