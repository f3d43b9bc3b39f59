// Package testutil provides shared test helpers for setting up data
// directories, stores and databases.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/maeum/internal/entrystore"
	"github.com/starford/maeum/internal/index"
	"github.com/starford/maeum/internal/storage"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "maeum-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStorage creates a temporary data directory with a file provider.
func TestStorage(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// TestStore creates a loaded, empty entry store on a temporary directory.
func TestStore(t *testing.T, opts ...entrystore.Option) (*entrystore.Store, *storage.FS) {
	t.Helper()
	_, fs := TestStorage(t)
	opts = append([]entrystore.Option{entrystore.WithLogger(Logger())}, opts...)
	s := entrystore.New(fs, opts...)
	s.Load()
	return s, fs
}
