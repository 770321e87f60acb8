package choropleth

import (
	"math"
	"strconv"
)

// propertyTitles are display names for known scoring properties.
var propertyTitles = map[string]string{
	"final_score":     "Overall score",
	"crime_score":     "Safety (crime)",
	"parks_score":     "Parks score",
	"parks_score_new": "Parks (with pools)",
	"transit_score":   "Transit score",
	"parking_score":   "Parking score",
	"custom_score":    "Custom score",
}

// Legend describes the map key for the active property.
type Legend struct {
	Title   string        `json:"title"`
	NoData  bool          `json:"no_data"`
	Entries []LegendEntry `json:"entries,omitempty"`
}

// LegendEntry is one color swatch with its value range.
type LegendEntry struct {
	Color string  `json:"color"`
	From  float64 `json:"from"`
	// To is nil for the top class.
	To    *float64 `json:"to,omitempty"`
	Label string   `json:"label"`
}

// Title returns the display name for property, falling back to the raw name.
func Title(property string) string {
	if t, ok := propertyTitles[property]; ok {
		return t
	}
	if property == "" {
		return "Value"
	}
	return property
}

// BuildLegend renders breaks into legend entries. Nil breaks yield a
// no-data legend.
func BuildLegend(property string, breaks []float64) Legend {
	if breaks == nil {
		return Legend{Title: "No data", NoData: true}
	}

	l := Legend{Title: Title(property), Entries: make([]LegendEntry, 0, len(breaks))}
	for i, from := range breaks {
		e := LegendEntry{From: from, Color: NeutralColor}
		if i < len(Palette) {
			e.Color = Palette[i]
		}
		toText := "max"
		if i < len(breaks)-1 {
			to := breaks[i+1]
			e.To = &to
			toText = FormatFixed(to, 2)
		}
		e.Label = FormatFixed(from, 2) + " - " + toText
		l.Entries = append(l.Entries, e)
	}
	return l
}

// FormatFixed prints v with a fixed number of decimals, rounding halves
// away from zero (0.125 -> "0.13", 12.5 -> "13").
func FormatFixed(v float64, digits int) string {
	p := math.Pow10(digits)
	return strconv.FormatFloat(math.Round(v*p)/p, 'f', digits, 64)
}
