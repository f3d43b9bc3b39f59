// Package report derives the journal's frequency, note and pattern reports.
package report

import (
	"math"
	"sort"

	"github.com/starford/maeum/internal/models"
)

// Rank is one row of the mood frequency ranking.
type Rank struct {
	Category models.Category `json:"category"`
	Count    int             `json:"count"`
	Percent  int             `json:"percent"`
}

// FrequencyRanking counts entries per mood, most frequent first. Ties keep
// registry order and moods that never occur are omitted. Percentages are
// rounded individually, so they may not sum to exactly 100.
func FrequencyRanking(entries []models.MoodEntry) []Rank {
	counts := make(map[models.Mood]int)
	total := 0
	for _, e := range entries {
		if !e.Mood.Valid() {
			continue
		}
		counts[e.Mood]++
		total++
	}

	var out []Rank
	for _, c := range models.Categories() {
		n := counts[c.ID]
		if n == 0 {
			continue
		}
		out = append(out, Rank{
			Category: c,
			Count:    n,
			Percent:  int(math.Round(100 * float64(n) / float64(total))),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
