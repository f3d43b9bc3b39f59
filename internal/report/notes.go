package report

import (
	"sort"
	"strings"

	"github.com/starford/maeum/internal/models"
)

// NoteGroup collects the notes written under one mood.
type NoteGroup struct {
	Category models.Category `json:"category"`
	Notes    []string        `json:"notes"`
	Total    int             `json:"total"`
}

// NotesByMood groups non-empty notes by mood, keeping the first maxPerGroup
// (newest) notes of each group. Groups are ordered by total note count, ties
// by registry order. maxPerGroup <= 0 keeps every note.
func NotesByMood(entries []models.MoodEntry, maxPerGroup int) []NoteGroup {
	byMood := make(map[models.Mood]*NoteGroup)
	for _, e := range entries {
		note := strings.TrimSpace(e.Note)
		if note == "" {
			continue
		}
		c, ok := e.Mood.Category()
		if !ok {
			continue
		}
		g := byMood[e.Mood]
		if g == nil {
			g = &NoteGroup{Category: c}
			byMood[e.Mood] = g
		}
		g.Total++
		if maxPerGroup <= 0 || len(g.Notes) < maxPerGroup {
			g.Notes = append(g.Notes, note)
		}
	}

	var out []NoteGroup
	for _, c := range models.Categories() {
		if g := byMood[c.ID]; g != nil {
			out = append(out, *g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}
