package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestSetAndGet(t *testing.T) {
	s := tempStore(t)
	content := []byte(`[{"id":"1"}]`)
	if err := s.Set(KeyEntries, content); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(KeyEntries)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestSetOverwrites(t *testing.T) {
	s := tempStore(t)
	_ = s.Set(KeyPIN, []byte("1234"))
	_ = s.Set(KeyPIN, []byte("9876"))
	got, _ := s.Get(KeyPIN)
	if string(got) != "9876" {
		t.Errorf("content = %q", got)
	}
	// No temp files left behind.
	matches, _ := filepath.Glob(filepath.Join(s.Root(), ".maeum-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestGetMissing(t *testing.T) {
	s := tempStore(t)
	_, err := s.Get(KeyEntries)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

func TestRemove(t *testing.T) {
	s := tempStore(t)
	_ = s.Set(KeyPIN, []byte("1234"))
	if err := s.Remove(KeyPIN); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Get(KeyPIN); err == nil {
		t.Error("expected error reading removed key")
	}
	if err := s.Remove(KeyPIN); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestInvalidKeyRejected(t *testing.T) {
	s := tempStore(t)
	for _, key := range []string{"../../etc/passwd", "a/b", "", "UPPER"} {
		if err := s.Set(key, []byte("x")); err == nil {
			t.Errorf("Set(%q) should fail", key)
		}
	}
}

func TestPath(t *testing.T) {
	s := tempStore(t)
	p, err := s.Path(KeyEntries)
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join(s.Root(), "mood_entries.json") {
		t.Errorf("path = %q", p)
	}
}

func TestNewFSRejectsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	_ = os.WriteFile(f, []byte("x"), 0o644)
	if _, err := NewFS(f); err == nil {
		t.Error("expected error for non-directory root")
	}
}
