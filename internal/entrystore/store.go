// Package entrystore owns the in-memory mood journal and its persisted document.
package entrystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/starford/maeum/internal/apperr"
	"github.com/starford/maeum/internal/checksum"
	"github.com/starford/maeum/internal/models"
	"github.com/starford/maeum/internal/stats"
	"github.com/starford/maeum/internal/storage"
)

// ChangeKind names a mutation of the journal.
type ChangeKind string

const (
	ChangeCreated  ChangeKind = "created"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeReloaded ChangeKind = "reloaded"
)

// Change describes a committed mutation. Entry is set for ChangeCreated.
type Change struct {
	Kind  ChangeKind
	IDs   []string
	Entry *models.MoodEntry
}

// NewEntry is the caller-supplied part of a journal entry.
type NewEntry struct {
	Mood    models.Mood             `json:"mood"`
	Note    string                  `json:"note"`
	Nuances map[models.Scale]string `json:"nuances,omitempty"`
	Image   string                  `json:"image,omitempty"`
}

// Validate checks the mood and every nuance selection.
func (n NewEntry) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Mood, validation.Required, validation.By(validMood)),
		validation.Field(&n.Nuances, validation.By(validNuances)),
	)
}

func validMood(value interface{}) error {
	m, _ := value.(models.Mood)
	if !m.Valid() {
		return fmt.Errorf("unknown mood %q", m)
	}
	return nil
}

func validNuances(value interface{}) error {
	nuances, _ := value.(map[models.Scale]string)
	for scale, v := range nuances {
		if !scale.Valid() {
			return fmt.Errorf("unknown nuance scale %q", scale)
		}
		if v != "" && scale.PoleOf(v) == models.PoleNone {
			return fmt.Errorf("%q is not a pole of %s", v, scale)
		}
	}
	return nil
}

// Store is the single authority over the entry collection. Entries are kept
// newest-first and every mutation rewrites the whole document.
type Store struct {
	provider storage.Provider
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger

	mu      sync.RWMutex
	entries []models.MoodEntry
	lastSum string // checksum of the document as last read or written

	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDFunc overrides the id generator.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates an empty store backed by provider. Call Load to read the
// persisted document.
func New(provider storage.Provider, opts ...Option) *Store {
	s := &Store{
		provider: provider,
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   slog.Default(),
		entries:  []models.MoodEntry{},
		subs:     make(map[int]func(Change)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load reads the persisted document into memory and returns a snapshot.
// A missing or unreadable document yields an empty journal.
func (s *Store) Load() []models.MoodEntry {
	// Reading under the lock keeps a concurrent commit from being
	// overwritten by an older document.
	s.mu.Lock()
	data, sum := s.read()
	s.entries = s.decode(data)
	s.lastSum = sum
	n := len(s.entries)
	s.mu.Unlock()

	s.logger.Info("entrystore: loaded", slog.Int("entries", n))
	return s.Snapshot()
}

// Reload re-reads the document and notifies subscribers.
func (s *Store) Reload() []models.MoodEntry {
	out := s.Load()
	s.notify(Change{Kind: ChangeReloaded})
	return out
}

// reloadIfChanged reloads when the document on disk differs from the one
// last read or written by this store.
func (s *Store) reloadIfChanged() bool {
	s.mu.Lock()
	data, sum := s.read()
	if sum == s.lastSum {
		s.mu.Unlock()
		return false
	}
	s.entries = s.decode(data)
	s.lastSum = sum
	n := len(s.entries)
	s.mu.Unlock()

	s.logger.Info("entrystore: reloaded external change", slog.Int("entries", n))
	s.notify(Change{Kind: ChangeReloaded})
	return true
}

func (s *Store) read() ([]byte, string) {
	data, err := s.provider.Get(storage.KeyEntries)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("entrystore: read failed", slog.String("error", err.Error()))
		}
		return nil, ""
	}
	return data, checksum.Sum(data)
}

// decode parses the document record by record, dropping anything that is
// not a usable entry.
func (s *Store) decode(data []byte) []models.MoodEntry {
	entries := []models.MoodEntry{}
	if len(data) == 0 {
		return entries
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("entrystore: corrupt document, starting empty", slog.String("error", err.Error()))
		return entries
	}
	for i, r := range raw {
		var e models.MoodEntry
		if err := json.Unmarshal(r, &e); err != nil {
			s.logger.Warn("entrystore: skip record", slog.Int("index", i), slog.String("error", err.Error()))
			continue
		}
		if e.ID == "" || !e.Mood.Valid() {
			s.logger.Warn("entrystore: skip invalid record", slog.Int("index", i), slog.String("id", e.ID))
			continue
		}
		e.Nuances = cleanNuances(e.Nuances)
		entries = append(entries, e)
	}
	return entries
}

// cleanNuances drops unknown scales, foreign values and unselected scales.
func cleanNuances(in map[models.Scale]string) map[models.Scale]string {
	var out map[models.Scale]string
	for scale, v := range in {
		if scale.PoleOf(v) == models.PoleNone {
			continue
		}
		if out == nil {
			out = make(map[models.Scale]string, len(in))
		}
		out[scale] = v
	}
	return out
}

// Snapshot returns a copy of the current entries, newest first.
func (s *Store) Snapshot() []models.MoodEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.MoodEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (models.MoodEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return models.MoodEntry{}, apperr.ErrNotFound
}

// Create validates in, stamps it with an id and the current time, and
// prepends it to the journal.
func (s *Store) Create(ctx context.Context, in NewEntry) (models.MoodEntry, error) {
	if err := ctx.Err(); err != nil {
		return models.MoodEntry{}, err
	}
	if err := in.Validate(); err != nil {
		return models.MoodEntry{}, fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}
	e := models.MoodEntry{
		ID:        s.newID(),
		Timestamp: s.now().UnixMilli(),
		Mood:      in.Mood,
		Note:      in.Note,
		Nuances:   cleanNuances(in.Nuances),
		Image:     in.Image,
	}

	s.mu.Lock()
	next := make([]models.MoodEntry, 0, len(s.entries)+1)
	next = append(next, e)
	next = append(next, s.entries...)
	if err := s.persistLocked(next); err != nil {
		s.mu.Unlock()
		return models.MoodEntry{}, err
	}
	s.entries = next
	s.mu.Unlock()

	s.logger.Debug("entrystore: created", slog.String("id", e.ID), slog.String("mood", string(e.Mood)))
	s.notify(Change{Kind: ChangeCreated, IDs: []string{e.ID}, Entry: &e})
	return e, nil
}

// DeleteByID removes the entry with id. An absent id is a no-op and reports
// false.
func (s *Store) DeleteByID(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	removed, err := s.deleteWhere(func(e models.MoodEntry) bool { return e.ID == id })
	if err != nil {
		return false, err
	}
	return len(removed) > 0, nil
}

// DeleteRange removes every entry whose timestamp falls within
// [start 00:00:00.000, end 23:59:59.999] local time and returns how many
// were removed. Unset bounds remove nothing.
func (s *Store) DeleteRange(ctx context.Context, start, end models.Day) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if start.IsZero() || end.IsZero() {
		return 0, nil
	}
	removed, err := s.deleteWhere(func(e models.MoodEntry) bool {
		return stats.InRange(e.Timestamp, start, end)
	})
	if err != nil {
		return 0, err
	}
	return len(removed), nil
}

func (s *Store) deleteWhere(match func(models.MoodEntry) bool) ([]string, error) {
	s.mu.Lock()
	var removed []string
	next := make([]models.MoodEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if match(e) {
			removed = append(removed, e.ID)
			continue
		}
		next = append(next, e)
	}
	if len(removed) == 0 {
		s.mu.Unlock()
		return nil, nil
	}
	if err := s.persistLocked(next); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.entries = next
	s.mu.Unlock()

	s.logger.Debug("entrystore: deleted", slog.Int("count", len(removed)))
	s.notify(Change{Kind: ChangeDeleted, IDs: removed})
	return removed, nil
}

// persistLocked writes next as the whole document. Callers hold s.mu.
func (s *Store) persistLocked(next []models.MoodEntry) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("entrystore: encode: %w", err)
	}
	if err := s.provider.Set(storage.KeyEntries, data); err != nil {
		return fmt.Errorf("entrystore: persist: %w", err)
	}
	s.lastSum = checksum.Sum(data)
	return nil
}

// Subscribe registers fn for every committed change and returns a function
// that removes it. fn runs synchronously after the change is visible.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}
