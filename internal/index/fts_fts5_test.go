//go:build sqlite_fts5

package index

import (
	"testing"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM entries_fts`).Scan(&count); err != nil {
		t.Fatalf("entries_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	row := EntryRow{ID: "fts", Timestamp: 1, Mood: "HAPPY", Label: "좋아요", Note: "a powerful walk by the river", Tags: []string{"walk"}, Checksum: "f1"}
	if err := db.UpsertEntry(row); err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}

	results, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].ID != "fts" || results[0].Mood != "HAPPY" {
		t.Errorf("result = %+v", results[0])
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertEntry(EntryRow{ID: "gone", Mood: "SAD", Note: "vanishing content", Checksum: "g"})
	_ = db.DeleteEntry("gone")

	results, _ := db.Search("vanishing", 10)
	for _, r := range results {
		if r.ID == "gone" {
			t.Error("deleted entry still in FTS index")
		}
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertEntry(EntryRow{ID: "evo", Mood: "SAD", Note: "original text", Checksum: "1"})
	_ = db.UpsertEntry(EntryRow{ID: "evo", Mood: "FUN", Note: "replacement text", Checksum: "2"})

	results, _ := db.Search("original", 10)
	if len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ = db.Search("replacement", 10)
	if len(results) != 1 || results[0].Mood != "FUN" {
		t.Errorf("FTS not updated: %+v", results)
	}
}

func TestFTS5_PrefixAndPunctuation(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertEntry(EntryRow{ID: "k", Timestamp: 1, Mood: "HAPPY", Note: "아침에 커피를 마셨다", Checksum: "1"})

	for _, q := range []string{"커피", "#커피", `"커피`} {
		results, err := db.Search(q, 10)
		if err != nil {
			t.Fatalf("Search(%q): %v", q, err)
		}
		if len(results) != 1 {
			t.Errorf("Search(%q) = %d hits, want 1", q, len(results))
		}
	}
}
