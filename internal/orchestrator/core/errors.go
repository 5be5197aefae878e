// Package core defines the domain error taxonomy and the repository ports
// the orchestrator's components program against.
package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a caller-facing failure. All kinds are recoverable at
// the call boundary; none of them crash the process.
type ErrorKind string

const (
	// ErrorKindDuplicate is an identifier collision on create.
	ErrorKindDuplicate ErrorKind = "duplicate"

	// ErrorKindNotFound is a reference to an unknown entity.
	ErrorKindNotFound ErrorKind = "not_found"

	// ErrorKindValidation covers malformed geometry, out-of-range
	// parameters and failed geofence checks.
	ErrorKindValidation ErrorKind = "validation"

	// ErrorKindInvalidState is an operation illegal for the current
	// mission or vehicle state.
	ErrorKindInvalidState ErrorKind = "invalid_state"

	// ErrorKindPlanning is degenerate mission-generation input.
	ErrorKindPlanning ErrorKind = "planning"
)

// Error is a classified domain error carrying enough structure for the
// caller to correct its input: kind, the offending entity and a reason.
type Error struct {
	Kind ErrorKind

	// Entity names the entity type involved ("vehicle", "mission", ...).
	Entity string

	// ID is the offending entity identifier, when known.
	ID string

	// Reason is a human-readable explanation.
	Reason string

	// Err is the wrapped cause, if any.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.ID != "" && e.Entity != "":
		return fmt.Sprintf("%s: %s %q: %s", e.Kind, e.Entity, e.ID, e.Reason)
	case e.Entity != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Entity, e.Reason)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same kind, so callers can compare against
// sentinel-style values with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the classification of err, or "" for unclassified errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

func NewDuplicate(entity, id string) *Error {
	return &Error{Kind: ErrorKindDuplicate, Entity: entity, ID: id, Reason: "already exists"}
}

func NewNotFound(entity, id string) *Error {
	return &Error{Kind: ErrorKindNotFound, Entity: entity, ID: id, Reason: "not found"}
}

func NewValidation(entity, id, reason string) *Error {
	return &Error{Kind: ErrorKindValidation, Entity: entity, ID: id, Reason: reason}
}

func NewInvalidState(entity, id, reason string) *Error {
	return &Error{Kind: ErrorKindInvalidState, Entity: entity, ID: id, Reason: reason}
}

func NewPlanning(reason string) *Error {
	return &Error{Kind: ErrorKindPlanning, Entity: "mission", Reason: reason}
}
