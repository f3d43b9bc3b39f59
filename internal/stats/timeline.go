package stats

import "github.com/starford/maeum/internal/models"

// Point is one entry plotted on the mood chart.
type Point struct {
	Timestamp int64                `json:"timestamp"`
	Day       models.Day           `json:"day"`
	Score     float64              `json:"score"`
	Glyph     string               `json:"glyph"`
	Nuances   map[models.Scale]int `json:"nuances"`
}

// Timeline returns chart points in chronological order. Each nuance is
// encoded as -1 (negative pole), 1 (positive pole) or 0 (unselected).
func Timeline(entries []models.MoodEntry) []Point {
	out := make([]Point, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		c, ok := e.Mood.Category()
		if !ok {
			continue
		}
		nuances := make(map[models.Scale]int, len(models.Scales()))
		for _, s := range models.Scales() {
			switch s.PoleOf(e.Nuances[s]) {
			case models.PoleNegative:
				nuances[s] = -1
			case models.PolePositive:
				nuances[s] = 1
			default:
				nuances[s] = 0
			}
		}
		out = append(out, Point{
			Timestamp: e.Timestamp,
			Day:       e.Day(),
			Score:     c.Score,
			Glyph:     c.Glyph,
			Nuances:   nuances,
		})
	}
	return out
}

// Overall returns the mean score across all entries, or 0 when there are none.
func Overall(entries []models.MoodEntry) float64 {
	var sum float64
	var n int
	for _, e := range entries {
		if c, ok := e.Mood.Category(); ok {
			sum += c.Score
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
