package mapview

import (
	"bytes"
	"html/template"
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/livability-map/internal/choropleth"
	"github.com/sells-group/livability-map/internal/dataset"
	"github.com/sells-group/livability-map/internal/scorer"
)

const (
	barWidth  = 140
	barHeight = 8
)

// popupBars lists the component bars in display order.
var popupBars = []struct {
	Label     string
	Component scorer.Component
	Color     string
}{
	{"Safety", scorer.Safety, "#d73027"},
	{"Parks", scorer.Parks, "#a6d96a"},
	{"Transit", scorer.Transit, "#fdae61"},
	{"Parking", scorer.Parking, "#74a9cf"},
}

var popupTemplate = template.Must(template.New("popup").Parse(`<div style="min-width:200px;">
  <div style="display:flex;justify-content:space-between;align-items:baseline">
    <strong style="font-size:1.05rem">{{.ID}}</strong>
    <small style="color:#444">Final: {{.Final}}</small>
  </div>
  <div style="margin-top:6px">
{{- range .Bars}}
    <div style="margin:6px 0;font-size:0.86rem">
      <div style="display:flex;justify-content:space-between;margin-bottom:4px"><strong style="font-weight:600">{{.Label}}</strong><small style="color:#333">{{.Filled}}</small></div>
      <div style="background:#eee;border-radius:4px;width:{{.Width}}px;height:{{.Height}}px;overflow:hidden">
        <div style="width:{{.Percent}}%;height:100%;background:{{.Color}};"></div>
      </div>
    </div>
{{- end}}
  </div>
  <div style="margin-top:6px;font-size:0.84rem;color:#666">
    <div>Population: {{.Population}}</div>
  </div>
</div>`))

type popupBar struct {
	Label   string
	Filled  string
	Percent float64
	Color   string
	Width   int
	Height  int
}

type popupData struct {
	ID         string
	Final      string
	Population string
	Bars       []popupBar
}

// PopupHTML renders the detail popup for one feature's properties.
func PopupHTML(props map[string]any) (string, error) {
	comps := scorer.ResolveComponents(props)
	data := popupData{
		ID:         dataset.Identifier(props),
		Final:      formatProperty(props, ScoreProperty, 2),
		Population: formatProperty(props, "population", 0),
		Bars:       make([]popupBar, 0, len(popupBars)),
	}
	for _, b := range popupBars {
		pct := clamp01(comps.Get(b.Component))
		data.Bars = append(data.Bars, popupBar{
			Label:   b.Label,
			Filled:  choropleth.FormatFixed(pct*100, 0) + "%",
			Percent: pct * 100,
			Color:   b.Color,
			Width:   barWidth,
			Height:  barHeight,
		})
	}

	var buf bytes.Buffer
	if err := popupTemplate.Execute(&buf, data); err != nil {
		return "", eris.Wrap(err, "mapview: render popup")
	}
	return buf.String(), nil
}

// Tooltip is the hover label: identifier and final score.
func Tooltip(props map[string]any) string {
	return dataset.Identifier(props) + " — " + formatProperty(props, ScoreProperty, 2)
}

// formatProperty prints a numeric property with fixed digits, or n/a.
func formatProperty(props map[string]any, key string, digits int) string {
	v, ok := dataset.Number(props[key])
	if !ok {
		return NotAvailable
	}
	return choropleth.FormatFixed(v, digits)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
