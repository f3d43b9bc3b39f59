// Package models defines the domain types for the mood journal.
package models

// Mood identifies one of the fixed mood categories.
type Mood string

// Mood categories, in registry order (most positive first).
const (
	MoodExcited Mood = "EXCITED"
	MoodFun     Mood = "FUN"
	MoodHappy   Mood = "HAPPY"
	MoodNormal  Mood = "NORMAL"
	MoodNeutral Mood = "NEUTRAL"
	MoodUnhappy Mood = "UNHAPPY"
	MoodAnxious Mood = "ANXIOUS"
	MoodSad     Mood = "SAD"
)

// Category is the static configuration of a mood.
type Category struct {
	ID    Mood    `json:"id"`
	Score float64 `json:"score"`
	Glyph string  `json:"glyph"`
	Label string  `json:"label"`
	Color string  `json:"color"`
}

// registry is the canonical iteration order. Every tie-break in the
// aggregations resolves to the earlier element of this slice.
var registry = []Mood{
	MoodExcited,
	MoodFun,
	MoodHappy,
	MoodNormal,
	MoodNeutral,
	MoodUnhappy,
	MoodAnxious,
	MoodSad,
}

// Category returns the configuration of m. ok is false for unknown moods.
func (m Mood) Category() (c Category, ok bool) {
	switch m {
	case MoodExcited:
		return Category{ID: m, Score: 5, Glyph: "🤩", Label: "최고예요", Color: "bg-yellow-400"}, true
	case MoodFun:
		return Category{ID: m, Score: 4.5, Glyph: "😆", Label: "즐거워요", Color: "bg-orange-300"}, true
	case MoodHappy:
		return Category{ID: m, Score: 4, Glyph: "😊", Label: "좋아요", Color: "bg-green-400"}, true
	case MoodNormal:
		return Category{ID: m, Score: 3, Glyph: "🙂", Label: "보통이에요", Color: "bg-teal-400"}, true
	case MoodNeutral:
		return Category{ID: m, Score: 2.5, Glyph: "😐", Label: "그저 그래요", Color: "bg-blue-300"}, true
	case MoodUnhappy:
		return Category{ID: m, Score: 2, Glyph: "☹", Label: "침울해요", Color: "bg-gray-400"}, true
	case MoodAnxious:
		return Category{ID: m, Score: 1.5, Glyph: "😰", Label: "불안해요", Color: "bg-orange-400"}, true
	case MoodSad:
		return Category{ID: m, Score: 1, Glyph: "😢", Label: "슬퍼요", Color: "bg-indigo-400"}, true
	}
	return Category{}, false
}

// Valid reports whether m is a known mood.
func (m Mood) Valid() bool {
	_, ok := m.Category()
	return ok
}

// Score returns the numeric score of m, or 0 for unknown moods.
func (m Mood) Score() float64 {
	c, _ := m.Category()
	return c.Score
}

// Moods returns all mood ids in registry order.
func Moods() []Mood {
	out := make([]Mood, len(registry))
	copy(out, registry)
	return out
}

// Categories returns the configuration of every mood in registry order.
func Categories() []Category {
	out := make([]Category, 0, len(registry))
	for _, m := range registry {
		c, _ := m.Category()
		out = append(out, c)
	}
	return out
}
