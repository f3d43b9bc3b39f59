package api

import (
	"github.com/starford/maeum/internal/entrystore"
	"github.com/starford/maeum/internal/models"
	"github.com/starford/maeum/internal/report"
	"github.com/starford/maeum/internal/stats"
)

// CreateEntryRequest is the request body for recording a mood.
type CreateEntryRequest struct {
	Mood    models.Mood             `json:"mood" example:"HAPPY" validate:"required"`
	Note    string                  `json:"note" example:"산책 #운동"`
	Nuances map[models.Scale]string `json:"nuances,omitempty"`
	Image   string                  `json:"image,omitempty" example:"/attachments/0b1c.png"`
}

func (r CreateEntryRequest) toNewEntry() entrystore.NewEntry {
	return entrystore.NewEntry{Mood: r.Mood, Note: r.Note, Nuances: r.Nuances, Image: r.Image}
}

// EntryListResponse wraps paginated entry listings.
type EntryListResponse struct {
	Entries []models.MoodEntry `json:"entries" validate:"required"`
	Total   int                `json:"total" example:"42" validate:"required"`
}

// RangeDeleteResponse reports how many entries a range delete removed.
type RangeDeleteResponse struct {
	Deleted int `json:"deleted" example:"3" validate:"required"`
}

// LatestDayResponse wraps the latest-day average; Day is null for an empty journal.
type LatestDayResponse struct {
	Day *stats.DailyAverage `json:"day"`
}

// CalendarResponse maps YYYY-MM-DD to the day's glyph.
type CalendarResponse struct {
	Month string            `json:"month" example:"2024-03" validate:"required"`
	Days  map[string]string `json:"days" validate:"required"`
}

// NotesResponse wraps notes grouped by mood.
type NotesResponse struct {
	Groups []report.NoteGroup `json:"groups" validate:"required"`
}

// PINRequest carries a four-digit PIN.
type PINRequest struct {
	PIN string `json:"pin" example:"1234" validate:"required"`
}

// LockStatus reports the PIN gate state.
type LockStatus struct {
	Enabled bool `json:"enabled"`
	Locked  bool `json:"locked"`
}

// AttachmentUploadResponse is returned after a successful image upload.
type AttachmentUploadResponse struct {
	Filename string `json:"filename" example:"0b1c.png" validate:"required"`
	Size     int64  `json:"size" example:"12345" validate:"required"`
	URL      string `json:"url" example:"/attachments/0b1c.png" validate:"required"`
}
