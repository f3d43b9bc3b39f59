// Package journal coordinates the entry store, search index and report
// builder behind the HTTP and MCP surfaces.
package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/maeum/internal/entrystore"
	"github.com/starford/maeum/internal/index"
	"github.com/starford/maeum/internal/models"
	"github.com/starford/maeum/internal/report"
	"github.com/starford/maeum/internal/stats"
)

// Taxonomy lists the mood categories and nuance scales in registry order.
type Taxonomy struct {
	Moods  []models.Category  `json:"moods"`
	Scales []models.ScaleInfo `json:"scales"`
}

// RangePreview is the outcome of selecting a date range before deleting it.
type RangePreview struct {
	From  models.Day `json:"from"`
	To    models.Day `json:"to"`
	Count int        `json:"count"`
	IDs   []string   `json:"ids"`
}

// NuanceView is one scale of the balance report.
type NuanceView struct {
	Scale        models.Scale `json:"scale"`
	Negative     string       `json:"negative"`
	Positive     string       `json:"positive"`
	Left         int          `json:"left"`
	Right        int          `json:"right"`
	Total        int          `json:"total"`
	LeftPercent  int          `json:"left_percent"`
	RightPercent int          `json:"right_percent"`
}

// TimelineView is the chart data for the whole journal.
type TimelineView struct {
	Points  []stats.Point `json:"points"`
	Overall float64       `json:"overall"`
}

// Service exposes journal operations to the transport layers.
type Service struct {
	store         *entrystore.Store
	idx           index.EntryIndex
	reports       *report.Builder
	notesPerGroup int
	logger        *slog.Logger
	onChange      func(entrystore.Change)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithNotesPerGroup sets the default cap for NotesByMood.
func WithNotesPerGroup(n int) Option {
	return func(s *Service) { s.notesPerGroup = n }
}

// WithChangeHook registers fn to run after the index and report cache have
// caught up with a change.
func WithChangeHook(fn func(entrystore.Change)) Option {
	return func(s *Service) { s.onChange = fn }
}

// NewService wires the service to store changes. idx may be nil, which
// disables search.
func NewService(store *entrystore.Store, idx index.EntryIndex, reports *report.Builder, opts ...Option) *Service {
	s := &Service{
		store:         store,
		idx:           idx,
		reports:       reports,
		notesPerGroup: 5,
		logger:        slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	store.Subscribe(s.handleChange)
	return s
}

// Reindex mirrors the whole journal into the search index.
func (s *Service) Reindex() error {
	if s.idx == nil {
		return nil
	}
	return index.Sync(s.idx, s.store.Snapshot(), s.logger)
}

func (s *Service) handleChange(c entrystore.Change) {
	s.reports.Invalidate()

	if s.idx != nil {
		switch c.Kind {
		case entrystore.ChangeCreated:
			if c.Entry != nil {
				row, err := index.RowFor(*c.Entry)
				if err == nil {
					err = s.idx.UpsertEntry(row)
				}
				if err != nil {
					s.logger.Warn("journal: index entry failed", slog.String("id", c.Entry.ID), slog.String("error", err.Error()))
				}
			}
		case entrystore.ChangeDeleted:
			for _, id := range c.IDs {
				if err := s.idx.DeleteEntry(id); err != nil {
					s.logger.Warn("journal: unindex entry failed", slog.String("id", id), slog.String("error", err.Error()))
				}
			}
		case entrystore.ChangeReloaded:
			if err := s.Reindex(); err != nil {
				s.logger.Warn("journal: reindex failed", slog.String("error", err.Error()))
			}
		}
	}

	if s.onChange != nil {
		s.onChange(c)
	}
}

// Taxonomy returns the mood and nuance registries.
func (s *Service) Taxonomy() Taxonomy {
	return Taxonomy{Moods: models.Categories(), Scales: models.ScaleInfos()}
}

// ListEntries returns a page of entries, newest first, and the total count.
func (s *Service) ListEntries(_ context.Context, limit, offset int) ([]models.MoodEntry, int) {
	all := s.store.Snapshot()
	total := len(all)
	if offset < 0 || offset >= total {
		return []models.MoodEntry{}, total
	}
	end := total
	if limit > 0 && limit < total-offset {
		end = offset + limit
	}
	return all[offset:end], total
}

// GetEntry returns one entry or apperr.ErrNotFound.
func (s *Service) GetEntry(_ context.Context, id string) (models.MoodEntry, error) {
	return s.store.Get(id)
}

// CreateEntry records a new mood.
func (s *Service) CreateEntry(ctx context.Context, in entrystore.NewEntry) (models.MoodEntry, error) {
	return s.store.Create(ctx, in)
}

// DeleteEntry removes an entry; deleting an absent id succeeds.
func (s *Service) DeleteEntry(ctx context.Context, id string) (bool, error) {
	return s.store.DeleteByID(ctx, id)
}

// PreviewRange reports which entries DeleteRange would remove.
func (s *Service) PreviewRange(_ context.Context, from, to models.Day) RangePreview {
	ids := stats.SelectRange(s.store.Snapshot(), from, to)
	if ids == nil {
		ids = []string{}
	}
	return RangePreview{From: from, To: to, Count: len(ids), IDs: ids}
}

// DeleteRange removes every entry within [from, to].
func (s *Service) DeleteRange(ctx context.Context, from, to models.Day) (int, error) {
	return s.store.DeleteRange(ctx, from, to)
}

// LatestDay returns the average mood of the most recent entry's day.
func (s *Service) LatestDay(_ context.Context) (stats.DailyAverage, bool) {
	return stats.LatestDayAverage(s.store.Snapshot())
}

// Calendar returns day → glyph for one month.
func (s *Service) Calendar(_ context.Context, year int, month time.Month) map[string]string {
	return stats.Month(s.store.Snapshot(), year, month)
}

// Nuances returns the balance of every scale in registry order.
func (s *Service) Nuances(_ context.Context) []NuanceView {
	ordered := stats.Balance(s.store.Snapshot()).Ordered()
	out := make([]NuanceView, len(ordered))
	for i, b := range ordered {
		out[i] = NuanceView{
			Scale:        b.Scale.Key,
			Negative:     b.Scale.Negative,
			Positive:     b.Scale.Positive,
			Left:         b.Tally.Left,
			Right:        b.Tally.Right,
			Total:        b.Tally.Total,
			LeftPercent:  b.LeftPercent,
			RightPercent: b.RightPercent,
		}
	}
	return out
}

// Timeline returns chronological chart points and the overall mean.
func (s *Service) Timeline(_ context.Context) TimelineView {
	entries := s.store.Snapshot()
	points := stats.Timeline(entries)
	if points == nil {
		points = []stats.Point{}
	}
	return TimelineView{Points: points, Overall: stats.Overall(entries)}
}

// Frequency returns the mood frequency ranking.
func (s *Service) Frequency(_ context.Context) []report.Rank {
	out := report.FrequencyRanking(s.store.Snapshot())
	if out == nil {
		out = []report.Rank{}
	}
	return out
}

// NotesByMood groups notes by mood. limit <= 0 uses the configured default.
func (s *Service) NotesByMood(_ context.Context, limit int) []report.NoteGroup {
	if limit <= 0 {
		limit = s.notesPerGroup
	}
	out := report.NotesByMood(s.store.Snapshot(), limit)
	if out == nil {
		out = []report.NoteGroup{}
	}
	return out
}

// Analysis returns the pattern analysis, computing it when stale.
func (s *Service) Analysis(ctx context.Context) (report.Result, error) {
	return s.reports.Analyze(ctx)
}

// AnalysisStatus returns the cached analysis state without computing.
func (s *Service) AnalysisStatus() report.Result {
	return s.reports.Status()
}

// Narrate synthesizes the analysis summary as speech.
func (s *Service) Narrate(ctx context.Context) (report.Narration, error) {
	return s.reports.Narrate(ctx)
}

// Search runs a full-text query over notes, tags and nuances.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if s.idx == nil {
		return []index.SearchResult{}, nil
	}
	out, err := s.idx.Search(query, limit)
	if out == nil {
		out = []index.SearchResult{}
	}
	return out, err
}
