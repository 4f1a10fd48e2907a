package scerrors

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a failure surfaced by settings-converter.
type Kind string

const (
	// KindNotFound indicates a governed or cache file is absent.
	KindNotFound Kind = "not_found"
	// KindParse indicates a config file contains a line that cannot be parsed.
	KindParse Kind = "parse"
	// KindRead indicates a config file exists but could not be read.
	KindRead Kind = "read"
	// KindWrite indicates a config file could not be written back.
	KindWrite Kind = "write"
	// KindUsage indicates invalid command line input.
	KindUsage Kind = "usage"
	// KindConfig indicates an invalid tool config or rule table.
	KindConfig Kind = "config"
	// KindInternal is used for anything else.
	KindInternal Kind = "internal"
)

// Error wraps an underlying error with a Kind so callers can branch on it.
type Error struct {
	Kind Kind
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap lets errors.Is/As reach the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, err error) error {
	if err == nil {
		err = errors.New(string(kind))
	}
	return &Error{Kind: kind, Err: err}
}

// Errorf formats a message and wraps it with kind.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
