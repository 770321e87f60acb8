package mapview

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/livability-map/internal/choropleth"
)

// WriteXLSX saves the ranking and legend of fr as a two-sheet workbook.
func WriteXLSX(path string, fr Frame) error {
	f := xlsx.NewFile()

	ranking, err := f.AddSheet("Ranking")
	if err != nil {
		return eris.Wrap(err, "xlsx: add ranking sheet")
	}
	header := ranking.AddRow()
	for _, h := range []string{"Rank", "FSA", choropleth.Title(fr.Property)} {
		header.AddCell().SetString(h)
	}
	for i, e := range fr.Top {
		row := ranking.AddRow()
		row.AddCell().SetInt(i + 1)
		row.AddCell().SetString(e.ID)
		if e.Missing {
			row.AddCell().SetString(NotAvailable)
		} else {
			row.AddCell().SetFloat(e.Score)
		}
	}

	legend, err := f.AddSheet("Legend")
	if err != nil {
		return eris.Wrap(err, "xlsx: add legend sheet")
	}
	legend.AddRow().AddCell().SetString(fr.Legend.Title)
	for _, e := range fr.Legend.Entries {
		row := legend.AddRow()
		row.AddCell().SetString(e.Color)
		row.AddCell().SetString(e.Label)
	}

	w := legend.AddRow()
	w.AddCell().SetString("Weights (normalized)")
	for _, v := range []float64{fr.Normalized.Safety, fr.Normalized.Parks, fr.Normalized.Transit, fr.Normalized.Parking} {
		w.AddCell().SetFloat(v)
	}

	return eris.Wrapf(f.Save(path), "xlsx: save %s", path)
}
