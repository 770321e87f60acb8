package mapview

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/livability-map/internal/dataset"
	"github.com/sells-group/livability-map/internal/scorer"
)

// ActionKind enumerates the user actions the view responds to.
type ActionKind int

// Supported actions.
const (
	ChangeWeights ActionKind = iota + 1
	SelectProperty
	ResetWeights
	LoadDataset
)

func (k ActionKind) String() string {
	switch k {
	case ChangeWeights:
		return "change_weights"
	case SelectProperty:
		return "select_property"
	case ResetWeights:
		return "reset_weights"
	case LoadDataset:
		return "load_dataset"
	}
	return "unknown"
}

// Action is one discrete user event. Only the field matching Kind is read.
type Action struct {
	Kind     ActionKind
	Weights  scorer.Weights
	Property string
	Dataset  *dataset.Collection
}

// State is the full view state. Reduce never mutates a State in place.
type State struct {
	Features *dataset.Collection
	Weights  scorer.Weights
	Defaults scorer.Weights
	Context  ScoringContext
	// RescoreOnLoad applies the current weights as soon as a dataset loads,
	// replacing any precomputed final_score.
	RescoreOnLoad bool
	Version       uint64
}

// NewState returns an empty state with the given default weights.
func NewState(defaults scorer.Weights, property string, rescoreOnLoad bool) State {
	return State{
		Weights:       defaults,
		Defaults:      defaults,
		Context:       ScoringContext{Property: ResolveProperty(property)},
		RescoreOnLoad: rescoreOnLoad,
	}
}

// Reduce applies a to s and returns the new state. Every successful
// reduction recomputes breaks for the active property over the resulting
// features.
func Reduce(s State, a Action) (State, error) {
	next := s
	switch a.Kind {
	case ChangeWeights:
		if err := a.Weights.Validate(); err != nil {
			return s, err
		}
		next.Weights = a.Weights
		next.Features = applyWeights(s.Features, a.Weights)
	case ResetWeights:
		next.Weights = s.Defaults
		next.Features = applyWeights(s.Features, s.Defaults)
	case SelectProperty:
		next.Context.Property = ResolveProperty(a.Property)
	case LoadDataset:
		if a.Dataset == nil {
			return s, eris.New("mapview: load dataset: no features")
		}
		next.Features = a.Dataset
		if s.RescoreOnLoad {
			next.Features = applyWeights(a.Dataset, s.Weights)
		}
	default:
		return s, eris.Errorf("mapview: unknown action %d", a.Kind)
	}

	next.Context = NewScoringContext(next.Context.Property, next.Features)
	next.Version++
	return next, nil
}

// applyWeights returns a copy of features with ScoreProperty overwritten by
// the blended score.
func applyWeights(features *dataset.Collection, w scorer.Weights) *dataset.Collection {
	if features == nil {
		return nil
	}
	out := features.Clone()
	for _, f := range out.Features {
		f.Properties[ScoreProperty] = scorer.Score(f.Properties, w)
	}
	return out
}
