package index

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EntryRow represents a row in the entries table.
type EntryRow struct {
	ID        string
	Timestamp int64
	Mood      string
	Label     string
	Note      string
	Nuances   []string
	Tags      []string
	Checksum  string
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID        string   `json:"id"`
	Timestamp int64    `json:"timestamp"`
	Mood      string   `json:"mood"`
	Snippet   string   `json:"snippet"`
	Tags      []string `json:"tags"`
}

// UpsertEntry inserts or replaces an entry and its FTS row within a transaction.
func (db *DB) UpsertEntry(r EntryRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)
	nuances := strings.Join(r.Nuances, " ")

	_, err = tx.Exec(`
		INSERT INTO entries (id, timestamp, mood, label, note, nuances, tags, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			timestamp = excluded.timestamp,
			mood      = excluded.mood,
			label     = excluded.label,
			note      = excluded.note,
			nuances   = excluded.nuances,
			tags      = excluded.tags,
			checksum  = excluded.checksum
	`, r.ID, r.Timestamp, r.Mood, r.Label, r.Note, nuances, string(tagsJSON), r.Checksum)
	if err != nil {
		return fmt.Errorf("index: upsert entry: %w", err)
	}

	// No-op when the FTS5 tag is absent.
	if err := ftsUpsert(tx, r.ID, r.Label, r.Note, nuances, tags); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteEntry removes an entry and its FTS row.
func (db *DB) DeleteEntry(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete entry: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for an entry, or empty string if not found.
func (db *DB) GetChecksum(id string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM entries WHERE id = ?`, id).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns id → checksum for every indexed entry.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, checksum FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}

func decodeTags(raw string) []string {
	var tags []string
	_ = json.Unmarshal([]byte(raw), &tags)
	if tags == nil {
		tags = []string{}
	}
	return tags
}
