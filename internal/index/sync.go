package index

import (
	"log/slog"

	"github.com/starford/maeum/internal/checksum"
	"github.com/starford/maeum/internal/models"
	"github.com/starford/maeum/internal/parser"
)

// RowFor builds the index row for an entry.
func RowFor(e models.MoodEntry) (EntryRow, error) {
	cs, err := checksum.JSON(e)
	if err != nil {
		return EntryRow{}, err
	}
	var label string
	if c, ok := e.Mood.Category(); ok {
		label = c.Label
	}
	res := parser.Parse(e.Note)
	return EntryRow{
		ID:        e.ID,
		Timestamp: e.Timestamp,
		Mood:      string(e.Mood),
		Label:     label,
		Note:      res.Text,
		Nuances:   e.NuanceLabels(),
		Tags:      res.Tags,
		Checksum:  cs,
	}, nil
}

// Sync brings the index up to date with entries:
//   - new/changed entries are upserted
//   - entries no longer in the journal are deleted
func Sync(db EntryIndex, entries []models.MoodEntry, logger *slog.Logger) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		seen[e.ID] = struct{}{}
		row, err := RowFor(e)
		if err != nil {
			logger.Warn("sync: checksum failed", slog.String("id", e.ID), slog.String("error", err.Error()))
			continue
		}
		if checksums[e.ID] == row.Checksum {
			continue
		}
		if err := db.UpsertEntry(row); err != nil {
			logger.Warn("sync: index failed", slog.String("id", e.ID), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("id", e.ID))
		}
	}

	// Remove stale entries.
	for id := range checksums {
		if _, ok := seen[id]; !ok {
			if err := db.DeleteEntry(id); err != nil {
				logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("id", id))
			}
		}
	}
	return nil
}
