package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/starford/maeum/internal/journal"
	"github.com/starford/maeum/internal/lock"
	"github.com/starford/maeum/internal/models"
)

const monthLayout = "2006-01"

// Handler holds API route handlers.
type Handler struct {
	svc  *journal.Service
	gate *lock.Gate
	now  func() time.Time
}

// NewHandler creates a new Handler.
func NewHandler(svc *journal.Service, gate *lock.Gate) *Handler {
	return &Handler{svc: svc, gate: gate, now: time.Now}
}

// Taxonomy handles GET /api/taxonomy.
//
//	@Summary		List mood categories and nuance scales
//	@Tags			taxonomy
//	@Produce		json
//	@Success		200	{object}	journal.Taxonomy
//	@Security		BearerAuth
//	@Router			/taxonomy [get]
func (h *Handler) Taxonomy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Taxonomy())
}

// ListEntries handles GET /api/entries.
//
//	@Summary		List entries newest first
//	@Tags			entries
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	EntryListResponse
//	@Security		BearerAuth
//	@Router			/entries [get]
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	entries, total := h.svc.ListEntries(r.Context(), limit, offset)
	writeJSON(w, http.StatusOK, EntryListResponse{Entries: entries, Total: total})
}

// GetEntry handles GET /api/entries/{id}.
//
//	@Summary		Get a single entry
//	@Tags			entries
//	@Produce		json
//	@Param			id	path		string	true	"Entry id"
//	@Success		200	{object}	models.MoodEntry
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{id} [get]
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get entry", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// CreateEntry handles POST /api/entries.
//
//	@Summary		Record a mood
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateEntryRequest	true	"Entry to record"
//	@Success		201		{object}	models.MoodEntry
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries [post]
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	e, err := h.svc.CreateEntry(r.Context(), req.toNewEntry())
	if err != nil {
		writeError(w, "create entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// DeleteEntry handles DELETE /api/entries/{id}. Deleting an absent id
// succeeds.
//
//	@Summary		Delete an entry
//	@Tags			entries
//	@Param			id	path	string	true	"Entry id"
//	@Success		204	"Entry deleted"
//	@Security		BearerAuth
//	@Router			/entries/{id} [delete]
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.DeleteEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// dayRange reads the from/to query parameters. A missing bound is the zero
// Day, which selects nothing.
func dayRange(r *http.Request) (from, to models.Day, err error) {
	q := r.URL.Query()
	for _, p := range []struct {
		key string
		dst *models.Day
	}{{"from", &from}, {"to", &to}} {
		raw := strings.TrimSpace(q.Get(p.key))
		if raw == "" {
			continue
		}
		if *p.dst, err = models.ParseDay(raw); err != nil {
			return models.Day{}, models.Day{}, err
		}
	}
	return from, to, nil
}

// PreviewRange handles GET /api/entries/range.
//
//	@Summary		Count entries within a date range
//	@Tags			entries
//	@Produce		json
//	@Param			from	query		string	false	"First day (YYYY-MM-DD)"
//	@Param			to		query		string	false	"Last day (YYYY-MM-DD)"
//	@Success		200		{object}	journal.RangePreview
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/range [get]
func (h *Handler) PreviewRange(w http.ResponseWriter, r *http.Request) {
	from, to, err := dayRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("from and to must be YYYY-MM-DD"))
		return
	}
	writeJSON(w, http.StatusOK, h.svc.PreviewRange(r.Context(), from, to))
}

// DeleteRange handles DELETE /api/entries/range.
//
//	@Summary		Delete every entry within a date range
//	@Tags			entries
//	@Produce		json
//	@Param			from	query		string	false	"First day (YYYY-MM-DD)"
//	@Param			to		query		string	false	"Last day (YYYY-MM-DD)"
//	@Success		200		{object}	RangeDeleteResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/range [delete]
func (h *Handler) DeleteRange(w http.ResponseWriter, r *http.Request) {
	from, to, err := dayRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("from and to must be YYYY-MM-DD"))
		return
	}
	n, err := h.svc.DeleteRange(r.Context(), from, to)
	if err != nil {
		writeError(w, "delete range", err)
		return
	}
	writeJSON(w, http.StatusOK, RangeDeleteResponse{Deleted: n})
}

// LatestDay handles GET /api/stats/latest-day.
//
//	@Summary		Average mood of the most recent day
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	LatestDayResponse
//	@Security		BearerAuth
//	@Router			/stats/latest-day [get]
func (h *Handler) LatestDay(w http.ResponseWriter, r *http.Request) {
	var resp LatestDayResponse
	if avg, ok := h.svc.LatestDay(r.Context()); ok {
		resp.Day = &avg
	}
	writeJSON(w, http.StatusOK, resp)
}

// Calendar handles GET /api/stats/calendar.
//
//	@Summary		Day glyphs for one month
//	@Tags			stats
//	@Produce		json
//	@Param			month	query		string	false	"Month (YYYY-MM), defaults to the current month"
//	@Success		200		{object}	CalendarResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/stats/calendar [get]
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = h.now().Format(monthLayout)
	}
	if err := validation.Validate(month, validation.Date(monthLayout)); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("month must be YYYY-MM"))
		return
	}
	t, _ := time.ParseInLocation(monthLayout, month, time.Local)
	writeJSON(w, http.StatusOK, CalendarResponse{
		Month: month,
		Days:  h.svc.Calendar(r.Context(), t.Year(), t.Month()),
	})
}

// Nuances handles GET /api/stats/nuances.
//
//	@Summary		Nuance balance per scale
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	map[string][]journal.NuanceView
//	@Security		BearerAuth
//	@Router			/stats/nuances [get]
func (h *Handler) Nuances(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"scales": h.svc.Nuances(r.Context())})
}

// Timeline handles GET /api/stats/timeline.
//
//	@Summary		Chronological chart data
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	journal.TimelineView
//	@Security		BearerAuth
//	@Router			/stats/timeline [get]
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Timeline(r.Context()))
}

// Frequency handles GET /api/report/frequency.
//
//	@Summary		Mood frequency ranking
//	@Tags			report
//	@Produce		json
//	@Success		200	{object}	map[string][]report.Rank
//	@Security		BearerAuth
//	@Router			/report/frequency [get]
func (h *Handler) Frequency(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ranking": h.svc.Frequency(r.Context())})
}

// Notes handles GET /api/report/notes.
//
//	@Summary		Notes grouped by mood
//	@Tags			report
//	@Produce		json
//	@Param			max	query		int	false	"Notes per group"
//	@Success		200	{object}	NotesResponse
//	@Security		BearerAuth
//	@Router			/report/notes [get]
func (h *Handler) Notes(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("max"))
	writeJSON(w, http.StatusOK, NotesResponse{Groups: h.svc.NotesByMood(r.Context(), limit)})
}

// Analysis handles GET /api/report/analysis. With ?cached=true it reports
// the cache state without running the analyzer.
//
//	@Summary		Pattern analysis
//	@Tags			report
//	@Produce		json
//	@Param			cached	query		bool	false	"Only report the cached state"
//	@Success		200		{object}	report.Result
//	@Security		BearerAuth
//	@Router			/report/analysis [get]
func (h *Handler) Analysis(w http.ResponseWriter, r *http.Request) {
	if cached, _ := strconv.ParseBool(r.URL.Query().Get("cached")); cached {
		writeJSON(w, http.StatusOK, h.svc.AnalysisStatus())
		return
	}
	res, err := h.svc.Analysis(r.Context())
	if err != nil {
		writeError(w, "analysis", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Speech handles POST /api/report/speech.
//
//	@Summary		Narrate the analysis summary
//	@Tags			report
//	@Produce		json
//	@Success		200	{object}	report.Narration
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/report/speech [post]
func (h *Handler) Speech(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Narrate(r.Context())
	if err != nil {
		writeError(w, "speech", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across notes, tags and nuances
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	map[string][]index.SearchResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}
