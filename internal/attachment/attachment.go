// Package attachment stores the images journal entries refer to.
//
// Images live under <data root>/attachments with random names. The stored
// extension always follows the sniffed content, never the client's filename.
package attachment

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/maeum/internal/apperr"
)

const (
	// Dir is the attachments directory below the data root.
	Dir = "attachments"
	// URLPrefix is where attachments are served from.
	URLPrefix = "/attachments/"
	// MaxSize bounds a single image.
	MaxSize = 10 << 20 // 10 MB
)

var mimeToExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// servable also admits .jpeg, which older clients may have stored.
var servable = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// ErrTooLarge is returned when an image exceeds MaxSize.
var ErrTooLarge = fmt.Errorf("%w: image exceeds %d bytes", apperr.ErrInvalid, MaxSize)

// Saved describes a stored image.
type Saved struct {
	Name string `json:"filename"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// Store saves and resolves images on disk.
type Store struct {
	dir string
}

// New returns a Store rooted at dataRoot/attachments. The directory is
// created on first save.
func New(dataRoot string) *Store {
	return &Store{dir: filepath.Join(dataRoot, Dir)}
}

// Save reads an image from r, checks its content type and writes it under
// a fresh name.
func (s *Store) Save(r io.Reader) (Saved, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return Saved{}, fmt.Errorf("attachment: read: %w", err)
	}
	return s.SaveBytes(data)
}

// SaveBytes stores data as a new image.
func (s *Store) SaveBytes(data []byte) (Saved, error) {
	if len(data) > MaxSize {
		return Saved{}, ErrTooLarge
	}
	ext, err := Sniff(data)
	if err != nil {
		return Saved{}, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Saved{}, fmt.Errorf("attachment: create dir: %w", err)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Saved{}, fmt.Errorf("attachment: create: %w", err)
	}
	n, err := io.Copy(f, bytes.NewReader(data))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return Saved{}, fmt.Errorf("attachment: write: %w", err)
	}
	return Saved{Name: name, Size: n, URL: URLPrefix + name}, nil
}

// Path resolves a stored image name. Names with directories, traversal or a
// non-image extension are rejected with apperr.ErrInvalid.
func (s *Store) Path(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: filename is required", apperr.ErrInvalid)
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("%w: invalid filename %q", apperr.ErrInvalid, name)
	}
	if !servable[strings.ToLower(filepath.Ext(cleaned))] {
		return "", fmt.Errorf("%w: unsupported image type %q", apperr.ErrInvalid, name)
	}
	abs := filepath.Join(s.dir, cleaned)
	if !strings.HasPrefix(abs, s.dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: path escapes attachments directory", apperr.ErrInvalid)
	}
	return abs, nil
}

// Exists reports whether name refers to a stored image.
func (s *Store) Exists(name string) bool {
	p, err := s.Path(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Sniff returns the extension for supported image content.
func Sniff(data []byte) (string, error) {
	detected, _, _ := strings.Cut(http.DetectContentType(data), ";")
	ext, ok := mimeToExt[detected]
	if !ok {
		return "", fmt.Errorf("%w: content is not a supported image (detected %s)", apperr.ErrInvalid, detected)
	}
	return ext, nil
}

// SupportedMIME reports whether mime is an accepted image type.
func SupportedMIME(mime string) bool {
	return mimeToExt[strings.ToLower(mime)] != ""
}
