package mapview

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/livability-map/internal/choropleth"
	"github.com/sells-group/livability-map/internal/dataset"
	"github.com/sells-group/livability-map/internal/scorer"
)

func TestStyleFor(t *testing.T) {
	breaks := []float64{0, 1, 2, 3, 4, 5, 6}

	s := StyleFor(6.0, breaks)
	assert.Equal(t, choropleth.Palette[6], s.FillColor)
	assert.InDelta(t, FillOpacity, s.FillOpacity, 1e-9)
	assert.Equal(t, "#333", s.Color)
	assert.InDelta(t, 1, s.Weight, 1e-9)

	for _, v := range []any{nil, "n/a"} {
		s = StyleFor(v, breaks)
		assert.Equal(t, choropleth.NeutralColor, s.FillColor)
		assert.InDelta(t, MissingFillOpacity, s.FillOpacity, 1e-9)
	}
}

func TestPopupHTML(t *testing.T) {
	html, err := PopupHTML(map[string]any{
		"FSA_CODE":    "M5V",
		"final_score": 0.85,
		"crime_score": 0.3,
		"parks_score": 1.4,
		"population":  12034.4,
	})
	require.NoError(t, err)

	assert.Contains(t, html, "<strong style=\"font-size:1.05rem\">M5V</strong>")
	assert.Contains(t, html, "Final: 0.85")
	assert.Contains(t, html, "Population: 12034")
	assert.Contains(t, html, ">70%<")
	// Clamped to 100.
	assert.Contains(t, html, ">100%<")
	assert.Contains(t, html, ">0%<")
	assert.Equal(t, 4, strings.Count(html, "margin:6px 0"))
	assert.Contains(t, html, "#74a9cf")
}

func TestPopupHTML_Missing(t *testing.T) {
	html, err := PopupHTML(map[string]any{"CFSAUID": "H2X"})
	require.NoError(t, err)
	assert.Contains(t, html, "H2X")
	assert.Contains(t, html, "Final: n/a")
	assert.Contains(t, html, "Population: n/a")
}

func TestPopupHTML_EscapesIdentifier(t *testing.T) {
	html, err := PopupHTML(map[string]any{"FSA": "<b>x</b>"})
	require.NoError(t, err)
	assert.NotContains(t, html, "<b>x</b>")
	assert.Contains(t, html, "&lt;b&gt;x&lt;/b&gt;")
}

func TestTooltip(t *testing.T) {
	assert.Equal(t, "M5V — 0.50", Tooltip(map[string]any{"FSA_CODE": "M5V", "final_score": 0.5}))
	assert.Equal(t, "Area — n/a", Tooltip(map[string]any{}))
}

func TestRender(t *testing.T) {
	s := loaded(t, false)
	fr := Render(s, 2)

	assert.Equal(t, s.Version, fr.Version)
	assert.Equal(t, "final_score", fr.Property)
	assert.Equal(t, "Overall score", fr.Legend.Title)
	assert.Len(t, fr.Legend.Entries, 7)
	require.Len(t, fr.Top, 2)
	assert.Equal(t, "B2B", fr.Top[0].ID)
	require.Len(t, fr.Features, 3)
	require.NotNil(t, fr.Features[1].Class)
	assert.Equal(t, 6, *fr.Features[1].Class)
	assert.Equal(t, "B2B — 0.80", fr.Features[1].Tooltip)
	assert.InDelta(t, 1, fr.Normalized.Safety+fr.Normalized.Parks+fr.Normalized.Transit+fr.Normalized.Parking, 1e-9)
	assert.Equal(t, HighlightStyle, fr.HoverStyle)
}

func TestRender_Empty(t *testing.T) {
	fr := Render(NewState(scorer.DefaultWeights(), "", true), 10)
	assert.True(t, fr.Legend.NoData)
	assert.Equal(t, "No data", fr.Legend.Title)
	assert.Empty(t, fr.Top)
	assert.Empty(t, fr.Features)
	assert.Equal(t, HighlightStyle, fr.HoverStyle)
}

func TestAnnotate(t *testing.T) {
	s := loaded(t, false)
	fr := Render(s, 10)

	out := Annotate(s, fr)
	require.Equal(t, 3, out.Len())
	props := out.Features[0].Properties
	assert.Equal(t, "A1A — 0.20", props["_tooltip"])
	assert.Equal(t, 0, props["_class"])
	assert.IsType(t, Style{}, props["_style"])
	assert.NotEmpty(t, props["_popup"])

	_, leaked := s.Features.Features[0].Properties["_popup"]
	assert.False(t, leaked)
}

func TestPopupHTML_RoundsHalves(t *testing.T) {
	html, err := PopupHTML(map[string]any{
		"FSA_CODE":     "K1A",
		"final_score":  0.125,
		"safety_score": 0.125,
		"population":   2.5,
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Final: 0.13")
	assert.Contains(t, html, ">13%<")
	assert.Contains(t, html, "Population: 3")
	assert.Equal(t, "K1A — 0.13", Tooltip(map[string]any{"FSA_CODE": "K1A", "final_score": 0.125}))
}

func TestRender_NonFiniteFeatureStillEncodes(t *testing.T) {
	coll := &dataset.Collection{Features: []*geojson.Feature{
		feature("H1A", map[string]any{"safety_score": "Infinity", "parks_score": 0.4}),
		feature("H2B", map[string]any{"safety_score": 0.5, "parks_score": 0.6}),
	}}
	s, err := Reduce(NewState(scorer.DefaultWeights(), "", true), Action{Kind: LoadDataset, Dataset: coll})
	require.NoError(t, err)

	v, ok := dataset.Property(s.Features.Features[0], "final_score")
	require.True(t, ok)
	assert.InDelta(t, 0.30*0.4, v, 1e-9, "safety resolves to 0")
	for _, b := range s.Context.Breaks {
		assert.False(t, math.IsInf(b, 0) || math.IsNaN(b))
	}

	fr := Render(s, 10)
	_, err = json.Marshal(fr)
	require.NoError(t, err)
	_, err = dataset.Encode(Annotate(s, fr))
	require.NoError(t, err)

	s, err = Reduce(s, Action{Kind: ChangeWeights, Weights: scorer.Weights{Parks: 1}})
	require.NoError(t, err)
	v, _ = dataset.Property(s.Features.Features[0], "final_score")
	assert.InDelta(t, 0.4, v, 1e-9)
}
