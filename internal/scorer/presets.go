package scorer

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Preset is a named weight set.
type Preset struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Weights     Weights `json:"weights" yaml:"weights"`
}

// LoadPresets reads named weight sets from a YAML file of the form:
//
//	presets:
//	  commuter:
//	    description: Transit first
//	    weights: {safety: 20, parks: 10, transit: 60, parking: 10}
func LoadPresets(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scorer: read presets %s", path)
	}

	var wrapper struct {
		Presets map[string]Preset `yaml:"presets"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "scorer: parse presets")
	}

	presets := make([]Preset, 0, len(wrapper.Presets))
	for name, p := range wrapper.Presets {
		p.Name = name
		if err := p.Weights.Validate(); err != nil {
			return nil, eris.Wrapf(err, "scorer: preset %q", name)
		}
		presets = append(presets, p)
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].Name < presets[j].Name })
	return presets, nil
}
