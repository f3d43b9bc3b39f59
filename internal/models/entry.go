package models

import (
	"fmt"
	"time"
)

// MoodEntry is a single journal record. Entries are never updated in place.
type MoodEntry struct {
	ID        string           `json:"id"`
	Timestamp int64            `json:"timestamp"` // epoch milliseconds
	Mood      Mood             `json:"mood"`
	Note      string           `json:"note"`
	Nuances   map[Scale]string `json:"nuances,omitempty"`
	Image     string           `json:"image,omitempty"`
}

// Time returns the entry timestamp in local time.
func (e MoodEntry) Time() time.Time {
	return time.UnixMilli(e.Timestamp).Local()
}

// Day returns the local calendar day of the entry.
func (e MoodEntry) Day() Day {
	return DayOf(e.Time())
}

// NuanceLabels returns the selected pole labels in scale registry order.
func (e MoodEntry) NuanceLabels() []string {
	var out []string
	for _, s := range scales {
		if v, ok := e.Nuances[s]; ok && s.PoleOf(v) != PoleNone {
			out = append(out, v)
		}
	}
	return out
}

// Day is a calendar day in the local time zone.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

const dayLayout = "2006-01-02"

// DayOf returns the local calendar day containing t.
func DayOf(t time.Time) Day {
	y, m, d := t.Local().Date()
	return Day{Year: y, Month: m, Day: d}
}

// ParseDay parses a YYYY-MM-DD string as a local calendar day.
func ParseDay(s string) (Day, error) {
	t, err := time.ParseInLocation(dayLayout, s, time.Local)
	if err != nil {
		return Day{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return DayOf(t), nil
}

// IsZero reports whether d is unset.
func (d Day) IsZero() bool {
	return d == Day{}
}

// Start returns 00:00:00.000 local time on d.
func (d Day) Start() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.Local)
}

// End returns 23:59:59.999 local time on d.
func (d Day) End() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 23, 59, 59, int(999*time.Millisecond), time.Local)
}

// String formats d as YYYY-MM-DD.
func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(b []byte) error {
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Pattern is one situation/mood correlation found by the analysis.
type Pattern struct {
	Situation   string `json:"situation"`
	MoodGlyph   string `json:"moodEmoji"`
	Description string `json:"description"`
}

// PatternAnalysis is the result of analysing the journal.
type PatternAnalysis struct {
	Summary  string    `json:"summary"`
	Patterns []Pattern `json:"patterns"`
}
