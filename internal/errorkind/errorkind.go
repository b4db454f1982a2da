// Package errorkind classifies the errors the fuzzer's outer layers (CLI,
// archive, replay) can return, so callers can decide exit codes without
// string-matching error messages.
package errorkind

import (
	"errors"
	"fmt"
)

// Kind discriminates the broad category of a failure.
type Kind uint8

const (
	// Config covers malformed or missing configuration.
	Config Kind = iota
	// Emulator covers failures starting or driving the target emulator.
	Emulator
	// Archive covers failures reading or writing the corpus archive.
	Archive
	// Corpus covers corrupt or unreadable corpus/input files.
	Corpus
	// Internal covers invariant violations that indicate a bug.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "config"
	case Emulator:
		return "emulator"
	case Archive:
		return "archive"
	case Corpus:
		return "corpus"
	case Internal:
		return "internal"
	}
	return "unknown"
}

// Error wraps an underlying error with a Kind, so it can be unwrapped with
// errors.As while still being inspected cheaply with errors.Is(err, Kind).
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Kind, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Wrap annotates err with a Kind. Wrapping a nil error returns nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Wrapf is Wrap with fmt.Errorf-style formatting of the underlying error.
func Wrapf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Is reports whether err (or any error it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
