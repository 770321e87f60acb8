package mapview

import (
	"sort"

	"github.com/sells-group/livability-map/internal/choropleth"
	"github.com/sells-group/livability-map/internal/dataset"
)

// NotAvailable labels a missing value.
const NotAvailable = "n/a"

// RankEntry is one row of the top list.
type RankEntry struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Missing bool    `json:"missing"`
	Label   string  `json:"label"`
}

// TopN ranks features by property, highest first. Features without a numeric
// value sort after every scored feature and are labelled n/a. Equal scores
// keep dataset order. n <= 0 returns every feature.
func TopN(features *dataset.Collection, property string, n int) []RankEntry {
	if features == nil {
		return nil
	}
	entries := make([]RankEntry, 0, features.Len())
	for _, f := range features.Features {
		e := RankEntry{ID: dataset.Identifier(f.Properties)}
		if v, ok := dataset.Property(f, property); ok {
			e.Score = v
			e.Label = choropleth.FormatFixed(v, 2)
		} else {
			e.Missing = true
			e.Label = NotAvailable
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Missing != b.Missing {
			return !a.Missing
		}
		return a.Score > b.Score
	})

	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
