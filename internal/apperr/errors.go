// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalid           = errors.New("invalid input")
	ErrLocked            = errors.New("journal is locked")
	ErrWrongPIN          = errors.New("wrong pin")
	ErrSpeechUnavailable = errors.New("speech unavailable")
)
