// Package stats derives read-only projections from a newest-first entry
// snapshot. Every function is pure.
package stats

import (
	"math"
	"strconv"
	"time"

	"github.com/starford/maeum/internal/models"
)

// DailyAverage summarises one calendar day.
type DailyAverage struct {
	Date     models.Day      `json:"date"`
	Average  float64         `json:"average"`
	Display  string          `json:"display"`
	Count    int             `json:"count"`
	Category models.Category `json:"category"`
}

// DayMood is the aggregate of every entry recorded on one day.
type DayMood struct {
	Average  float64         `json:"average"`
	Count    int             `json:"count"`
	Category models.Category `json:"category"`
}

// Nearest snaps avg to the category whose score is closest to it.
// Ties resolve to the category that comes first in registry order.
func Nearest(avg float64) models.Category {
	cats := models.Categories()
	best := cats[0]
	for _, c := range cats[1:] {
		if math.Abs(c.Score-avg) < math.Abs(best.Score-avg) {
			best = c
		}
	}
	return best
}

// LatestDayAverage averages the scores of every entry that shares the local
// calendar day of the newest entry. ok is false for an empty snapshot.
func LatestDayAverage(entries []models.MoodEntry) (avg DailyAverage, ok bool) {
	if len(entries) == 0 {
		return DailyAverage{}, false
	}
	day := entries[0].Day()

	var sum float64
	var count int
	for _, e := range entries {
		c, valid := e.Mood.Category()
		if !valid || e.Day() != day {
			continue
		}
		sum += c.Score
		count++
	}
	if count == 0 {
		return DailyAverage{}, false
	}

	mean := sum / float64(count)
	return DailyAverage{
		Date:     day,
		Average:  mean,
		Display:  strconv.FormatFloat(mean, 'f', 2, 64),
		Count:    count,
		Category: Nearest(mean),
	}, true
}

// PerDay groups entries by local calendar day. Days without entries are absent.
func PerDay(entries []models.MoodEntry) map[models.Day]DayMood {
	type acc struct {
		sum   float64
		count int
	}
	sums := make(map[models.Day]*acc)
	for _, e := range entries {
		c, ok := e.Mood.Category()
		if !ok {
			continue
		}
		d := e.Day()
		a := sums[d]
		if a == nil {
			a = &acc{}
			sums[d] = a
		}
		a.sum += c.Score
		a.count++
	}

	out := make(map[models.Day]DayMood, len(sums))
	for d, a := range sums {
		mean := a.sum / float64(a.count)
		out[d] = DayMood{Average: mean, Count: a.count, Category: Nearest(mean)}
	}
	return out
}

// CalendarGlyphs maps each day key (YYYY-MM-DD) to the glyph of its snapped mood.
func CalendarGlyphs(entries []models.MoodEntry) map[string]string {
	days := PerDay(entries)
	out := make(map[string]string, len(days))
	for d, m := range days {
		out[d.String()] = m.Category.Glyph
	}
	return out
}

// Month is CalendarGlyphs restricted to a single month.
func Month(entries []models.MoodEntry, year int, month time.Month) map[string]string {
	out := make(map[string]string)
	for d, m := range PerDay(entries) {
		if d.Year == year && d.Month == month {
			out[d.String()] = m.Category.Glyph
		}
	}
	return out
}
