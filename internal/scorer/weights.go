package scorer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Weights are the relative importance of each blended component. They are
// normalized to sum to 1 before use.
type Weights struct {
	Safety  float64 `json:"safety" yaml:"safety"`
	Parks   float64 `json:"parks" yaml:"parks"`
	Transit float64 `json:"transit" yaml:"transit"`
	Parking float64 `json:"parking" yaml:"parking"`
}

// DefaultWeights returns the default slider positions (35/30/25/10).
func DefaultWeights() Weights {
	return Weights{Safety: 35, Parks: 30, Transit: 25, Parking: 10}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Safety + w.Parks + w.Transit + w.Parking
}

// Normalize scales w to proportions. An all-zero set divides by 1, so every
// proportion stays 0.
func (w Weights) Normalize() Weights {
	sum := w.Sum()
	if sum == 0 {
		sum = 1
	}
	return Weights{
		Safety:  w.Safety / sum,
		Parks:   w.Parks / sum,
		Transit: w.Transit / sum,
		Parking: w.Parking / sum,
	}
}

// Validate rejects negative or non-finite weights.
func (w Weights) Validate() error {
	var errs []string
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"safety", w.Safety},
		{"parks", w.Parks},
		{"transit", w.Transit},
		{"parking", w.Parking},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			errs = append(errs, fmt.Sprintf("%s must be finite", f.name))
			continue
		}
		if f.v < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", f.name))
		}
	}
	if len(errs) > 0 {
		return eris.Errorf("scorer: invalid weights: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Blend returns the weighted sum of the four blended components after
// normalizing w. Price is not blended.
func Blend(c Components, w Weights) float64 {
	n := w.Normalize()
	return n.Safety*c.Safety +
		n.Parks*c.Parks +
		n.Transit*c.Transit +
		n.Parking*c.Parking
}

// Score resolves components from props and blends them.
func Score(props map[string]any, w Weights) float64 {
	return Blend(ResolveComponents(props), w)
}

// ParseWeights parses "safety=35,parks=30,..." starting from base. Unnamed
// components keep their base value.
func ParseWeights(s string, base Weights) (Weights, error) {
	w := base
	s = strings.TrimSpace(s)
	if s == "" {
		return w, nil
	}
	for _, part := range strings.Split(s, ",") {
		key, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return base, eris.Errorf("scorer: weight %q must be name=value", part)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return base, eris.Wrapf(err, "scorer: parse weight %q", key)
		}
		switch Component(strings.ToLower(strings.TrimSpace(key))) {
		case Safety:
			w.Safety = v
		case Parks:
			w.Parks = v
		case Transit:
			w.Transit = v
		case Parking:
			w.Parking = v
		default:
			return base, eris.Errorf("scorer: unknown weight %q", key)
		}
	}
	return w, w.Validate()
}
