package choropleth

// NeutralColor fills features whose active property is missing.
const NeutralColor = "#f0f0f0"

// Palette is the 7-class red to green ramp, low/bad to high/good.
var Palette = [Classes]string{
	"#a50026",
	"#d73027",
	"#f46d43",
	"#fdae61",
	"#fee08b",
	"#a6d96a",
	"#1a9641",
}

// Color returns the fill color for value under breaks.
func Color(value any, breaks []float64) string {
	class, ok := Classify(value, breaks)
	if !ok || class >= len(Palette) {
		return NeutralColor
	}
	return Palette[class]
}
