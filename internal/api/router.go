package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/maeum/internal/journal"
	"github.com/starford/maeum/internal/lock"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// Journal routes answer 423 while the PIN gate is locked; the /lock routes
// stay reachable so the gate can be opened.
// sseHandler, if non-nil, is mounted at GET /events behind the gate.
// dataRoot is used to resolve the attachments directory.
func NewRouter(svc *journal.Service, gate *lock.Gate, authEnabled bool, token string, sseHandler http.Handler, dataRoot string) chi.Router {
	h := NewHandler(svc, gate)
	ah := NewAttachmentHandler(dataRoot)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// PIN gate.
	r.Get("/lock", h.GetLock)
	r.Post("/lock", h.SetPIN)
	r.Delete("/lock", h.ClearPIN)
	r.Post("/lock/unlock", h.Unlock)

	r.Group(func(r chi.Router) {
		r.Use(LockMiddleware(gate))

		r.Get("/taxonomy", h.Taxonomy)

		// Entries.
		r.Get("/entries", h.ListEntries)
		r.Post("/entries", h.CreateEntry)
		r.Get("/entries/range", h.PreviewRange)
		r.Delete("/entries/range", h.DeleteRange)
		r.Get("/entries/{id}", h.GetEntry)
		r.Delete("/entries/{id}", h.DeleteEntry)

		// Statistics and reports.
		r.Get("/stats/latest-day", h.LatestDay)
		r.Get("/stats/calendar", h.Calendar)
		r.Get("/stats/nuances", h.Nuances)
		r.Get("/stats/timeline", h.Timeline)
		r.Get("/report/frequency", h.Frequency)
		r.Get("/report/notes", h.Notes)
		r.Get("/report/analysis", h.Analysis)
		r.Post("/report/speech", h.Speech)

		r.Get("/search", h.Search)
		r.Post("/attachments", ah.Upload)

		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}
	})

	return r
}
