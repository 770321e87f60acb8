// Package store persists named weight presets and score snapshots.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/livability-map/internal/choropleth"
	"github.com/sells-group/livability-map/internal/dataset"
	"github.com/sells-group/livability-map/internal/mapview"
	"github.com/sells-group/livability-map/internal/scorer"
)

// Snapshot is a saved render of the map: the weights and property in force,
// the breaks and legend they produced, and the ranking.
type Snapshot struct {
	ID        string              `json:"id"`
	Property  string              `json:"property"`
	Weights   scorer.Weights      `json:"weights"`
	Breaks    []float64           `json:"breaks"`
	Legend    choropleth.Legend   `json:"legend"`
	Top       []mapview.RankEntry `json:"top"`
	Source    string              `json:"source,omitempty"`
	Version   uint64              `json:"version"`
	Scores    []FeatureScore      `json:"scores,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// FeatureScore is one feature's active-property value at snapshot time.
type FeatureScore struct {
	FeatureID string   `json:"feature_id"`
	Score     *float64 `json:"score,omitempty"`
	Class     *int     `json:"class,omitempty"`
}

// NewSnapshot captures s and its rendered frame.
func NewSnapshot(s mapview.State, fr mapview.Frame) *Snapshot {
	snap := &Snapshot{
		Property: fr.Property,
		Weights:  fr.Weights,
		Breaks:   fr.Breaks,
		Legend:   fr.Legend,
		Top:      fr.Top,
		Source:   fr.Source,
		Version:  fr.Version,
	}
	if s.Features == nil {
		return snap
	}
	snap.Scores = make([]FeatureScore, 0, s.Features.Len())
	for i, f := range s.Features.Features {
		fs := FeatureScore{FeatureID: dataset.Identifier(f.Properties)}
		if v, ok := dataset.Property(f, fr.Property); ok {
			fs.Score = &v
		}
		if i < len(fr.Features) {
			fs.Class = fr.Features[i].Class
		}
		snap.Scores = append(snap.Scores, fs)
	}
	return snap
}

// Store defines the persistence interface for presets and snapshots.
// Gets return nil, nil when the row does not exist.
type Store interface {
	// Presets
	SavePreset(ctx context.Context, p scorer.Preset) error
	GetPreset(ctx context.Context, name string) (*scorer.Preset, error)
	ListPresets(ctx context.Context) ([]scorer.Preset, error)
	DeletePreset(ctx context.Context, name string) error

	// Snapshots
	SaveSnapshot(ctx context.Context, snap *Snapshot) (*Snapshot, error)
	GetSnapshot(ctx context.Context, id string) (*Snapshot, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// LookupPreset returns the named preset. A stored preset replaces a built-in
// one of the same name. st may be nil. Returns nil, nil when neither has it.
func LookupPreset(ctx context.Context, st Store, builtin []scorer.Preset, name string) (*scorer.Preset, error) {
	if st != nil {
		p, err := st.GetPreset(ctx, name)
		if err != nil {
			return nil, eris.Wrapf(err, "store: lookup preset %s", name)
		}
		if p != nil {
			return p, nil
		}
	}
	for i := range builtin {
		if builtin[i].Name == name {
			p := builtin[i]
			return &p, nil
		}
	}
	return nil, nil
}
