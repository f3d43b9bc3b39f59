// Package lock implements the four-digit PIN gate in front of the journal.
package lock

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/starford/maeum/internal/apperr"
	"github.com/starford/maeum/internal/storage"
)

var pinRe = regexp.MustCompile(`^[0-9]{4}$`)

// Gate guards the journal behind an optional PIN. It starts locked when a
// PIN is stored and stays unlocked for the rest of the process once opened.
type Gate struct {
	provider storage.Provider

	mu     sync.RWMutex
	pin    string
	locked bool
}

// Open reads the stored PIN, if any.
func Open(provider storage.Provider) (*Gate, error) {
	g := &Gate{provider: provider}
	data, err := provider.Get(storage.KeyPIN)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return g, nil
	case err != nil:
		return nil, fmt.Errorf("lock: read pin: %w", err)
	}
	pin := strings.TrimSpace(string(data))
	if !pinRe.MatchString(pin) {
		// Damaged PIN documents are ignored.
		return g, nil
	}
	g.pin = pin
	g.locked = true
	return g, nil
}

func validatePIN(pin string) error {
	if err := validation.Validate(pin,
		validation.Required,
		validation.Match(pinRe).Error("must be exactly 4 digits"),
	); err != nil {
		return fmt.Errorf("%w: pin %v", apperr.ErrInvalid, err)
	}
	return nil
}

// Set stores a new PIN. The current session stays unlocked.
func (g *Gate) Set(pin string) error {
	if err := validatePIN(pin); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.locked {
		return apperr.ErrLocked
	}
	if err := g.provider.Set(storage.KeyPIN, []byte(pin)); err != nil {
		return fmt.Errorf("lock: save pin: %w", err)
	}
	g.pin = pin
	return nil
}

// Clear removes the PIN.
func (g *Gate) Clear() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.locked {
		return apperr.ErrLocked
	}
	if err := g.provider.Remove(storage.KeyPIN); err != nil {
		return fmt.Errorf("lock: remove pin: %w", err)
	}
	g.pin = ""
	return nil
}

// Unlock opens the gate when pin matches.
func (g *Gate) Unlock(pin string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.locked {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(pin), []byte(g.pin)) != 1 {
		return apperr.ErrWrongPIN
	}
	g.locked = false
	return nil
}

// Locked reports whether journal access is currently refused.
func (g *Gate) Locked() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.locked
}

// Enabled reports whether a PIN is configured.
func (g *Gate) Enabled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pin != ""
}
