// Package storage defines the key-value document store the journal persists to.
package storage

// Well-known document keys.
const (
	KeyEntries = "mood_entries"
	KeyPIN     = "mind_diary_pin"
)

// Provider is the interface for whole-document persistence.
// Documents are read and written in full; there are no partial writes.
type Provider interface {
	// Get returns the document stored under key. A missing key yields an
	// error satisfying errors.Is(err, os.ErrNotExist).
	Get(key string) ([]byte, error)
	// Set atomically replaces the document stored under key.
	Set(key string, value []byte) error
	// Remove deletes the document stored under key. Removing a missing key is not an error.
	Remove(key string) error
}
