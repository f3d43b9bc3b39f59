//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE over the entries table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _, _ string, _ []string) error {
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) error { return nil }

// Search performs a LIKE substring search (fallback when FTS5 is not
// compiled in), newest entries first.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	like := likePattern(query)
	rows, err := db.conn.Query(`
		SELECT id, timestamp, mood, substr(note, 1, 200), tags
		FROM entries
		WHERE note LIKE ?1 ESCAPE '\'
		   OR tags LIKE ?1 ESCAPE '\'
		   OR nuances LIKE ?1 ESCAPE '\'
		   OR label LIKE ?1 ESCAPE '\'
		ORDER BY timestamp DESC
		LIMIT ?2
	`, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var tags string
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Mood, &r.Snippet, &tags); err != nil {
			return nil, err
		}
		r.Tags = decodeTags(tags)
		out = append(out, r)
	}
	return out, rows.Err()
}
