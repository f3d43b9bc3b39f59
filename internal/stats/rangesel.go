package stats

import "github.com/starford/maeum/internal/models"

// InRange reports whether ts (epoch ms) falls within
// [start 00:00:00.000, end 23:59:59.999] local time. Unset bounds match nothing.
func InRange(ts int64, start, end models.Day) bool {
	if start.IsZero() || end.IsZero() {
		return false
	}
	return ts >= start.Start().UnixMilli() && ts <= end.End().UnixMilli()
}

// CountInRange previews how many entries a range deletion would remove.
func CountInRange(entries []models.MoodEntry, start, end models.Day) int {
	n := 0
	for _, e := range entries {
		if InRange(e.Timestamp, start, end) {
			n++
		}
	}
	return n
}

// SelectRange returns the ids of the entries inside the range, newest first.
func SelectRange(entries []models.MoodEntry, start, end models.Day) []string {
	var ids []string
	for _, e := range entries {
		if InRange(e.Timestamp, start, end) {
			ids = append(ids, e.ID)
		}
	}
	return ids
}
