// Package apperr defines the error taxonomy shared by the engine and its transports.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	ErrIO       = errors.New("io error")
	ErrInvalid  = errors.New("invalid input")
)

// NotFoundError reports a lookup for an id that has no corresponding entity.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "spec"
	}
	return fmt.Sprintf("%s %q: %v", kind, e.ID, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NotFound returns a *NotFoundError for a spec id.
func NotFound(id string) error {
	return &NotFoundError{Kind: "spec", ID: id}
}

// IOError wraps a filesystem failure. errors.Is matches both ErrIO and the cause.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() []error {
	return []error{ErrIO, e.Err}
}

// ParseWarning is a non-fatal issue found while reading a single document.
// The document is still part of the graph.
type ParseWarning struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (w ParseWarning) String() string {
	return w.Path + ": " + w.Reason
}

// Invalid wraps a validation failure so callers can match ErrInvalid.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInvalid, err)
}
