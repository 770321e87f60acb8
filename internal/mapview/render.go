package mapview

import (
	"go.uber.org/zap"

	"github.com/sells-group/livability-map/internal/choropleth"
	"github.com/sells-group/livability-map/internal/dataset"
	"github.com/sells-group/livability-map/internal/scorer"
)

// Fill opacities for features with and without a value.
const (
	FillOpacity        = 0.85
	MissingFillOpacity = 0.12
)

// Style is the polygon paint for one feature.
type Style struct {
	FillColor   string  `json:"fillColor"`
	FillOpacity float64 `json:"fillOpacity"`
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	Opacity     float64 `json:"opacity"`
}

// HighlightStyle is the paint a client applies to the feature under the
// pointer. It is served with every frame.
var HighlightStyle = Style{Color: "#222", Weight: 3, FillOpacity: 0.95, Opacity: 1}

// StyleFor paints a feature from its active property value. Missing and
// non-numeric values get the neutral fill at low opacity.
func StyleFor(value any, breaks []float64) Style {
	s := Style{Color: "#333", Weight: 1, Opacity: 1}
	if _, ok := dataset.Number(value); !ok {
		s.FillColor = choropleth.NeutralColor
		s.FillOpacity = MissingFillOpacity
		return s
	}
	s.FillColor = choropleth.Color(value, breaks)
	s.FillOpacity = FillOpacity
	return s
}

// FeatureView is the rendered form of one feature.
type FeatureView struct {
	ID         string            `json:"id"`
	Class      *int              `json:"class,omitempty"`
	Style      Style             `json:"style"`
	Popup      string            `json:"popup"`
	Tooltip    string            `json:"tooltip"`
	Components scorer.Components `json:"components"`
}

// Frame is everything the map surface shows for one state version.
type Frame struct {
	Version    uint64            `json:"version"`
	Property   string            `json:"property"`
	Weights    scorer.Weights    `json:"weights"`
	Normalized scorer.Weights    `json:"normalized"`
	Breaks     []float64         `json:"breaks"`
	Legend     choropleth.Legend `json:"legend"`
	Top        []RankEntry       `json:"top"`
	HoverStyle Style             `json:"hoverStyle"`
	Features   []FeatureView     `json:"features,omitempty"`
	Source     string            `json:"source,omitempty"`
}

// Render derives the frame for s, ranking the top n features. It reads
// state only.
func Render(s State, n int) Frame {
	fr := Frame{
		Version:    s.Version,
		Property:   s.Context.Property,
		Weights:    s.Weights,
		Normalized: s.Weights.Normalize(),
		Breaks:     s.Context.Breaks,
		Legend:     choropleth.BuildLegend(s.Context.Property, s.Context.Breaks),
		Top:        TopN(s.Features, s.Context.Property, n),
		HoverStyle: HighlightStyle,
	}
	if s.Features == nil {
		return fr
	}
	fr.Source = s.Features.Source

	fr.Features = make([]FeatureView, 0, s.Features.Len())
	for _, f := range s.Features.Features {
		value := f.Properties[s.Context.Property]
		view := FeatureView{
			ID:         dataset.Identifier(f.Properties),
			Style:      StyleFor(value, s.Context.Breaks),
			Tooltip:    Tooltip(f.Properties),
			Components: scorer.ResolveComponents(f.Properties),
		}
		if class, ok := choropleth.Classify(value, s.Context.Breaks); ok {
			view.Class = &class
		}
		popup, err := PopupHTML(f.Properties)
		if err != nil {
			zap.L().Warn("mapview: popup render failed", zap.String("id", view.ID), zap.Error(err))
		}
		view.Popup = popup
		fr.Features = append(fr.Features, view)
	}
	return fr
}

// Annotate returns a copy of s's features with the rendered style, class,
// popup and tooltip stored as underscore-prefixed properties.
func Annotate(s State, fr Frame) *dataset.Collection {
	out := s.Features.Clone()
	if out == nil {
		return &dataset.Collection{}
	}
	for i, f := range out.Features {
		if i >= len(fr.Features) {
			break
		}
		v := fr.Features[i]
		f.Properties["_style"] = v.Style
		if v.Class != nil {
			f.Properties["_class"] = *v.Class
		}
		f.Properties["_popup"] = v.Popup
		f.Properties["_tooltip"] = v.Tooltip
	}
	return out
}
