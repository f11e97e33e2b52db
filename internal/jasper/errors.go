package jasper

import (
	"errors"
	"fmt"
)

// Caller-facing error taxonomy. Every error returned by the store, the
// coordinator, or the lifecycle manager matches at most one of these via
// errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateContent   = errors.New("duplicate content")
	ErrLastLocation       = errors.New("cannot remove the last location of a resource")
	ErrInvalidInput       = errors.New("invalid input")
	ErrArchivalTransport  = errors.New("archival transport failed")
	ErrConcurrentArchival = errors.New("archival already in progress")
)

// NotFoundError names the missing entity.
type NotFoundError struct {
	Kind string // "resource", "location", "property"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.ID, ErrNotFound)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DuplicateContentError is returned when a create would duplicate an existing
// resource's content hash.
type DuplicateContentError struct {
	ContentHash string
	ExistingID  string
}

func (e *DuplicateContentError) Error() string {
	return fmt.Sprintf("content %s already stored as resource %s: %v", e.ContentHash, e.ExistingID, ErrDuplicateContent)
}

func (e *DuplicateContentError) Is(target error) bool { return target == ErrDuplicateContent }

// InvalidInputError reports a rejected argument.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrInvalidInput, e.Field, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// invalid is shorthand for building an InvalidInputError.
func invalid(field, format string, args ...any) error {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ArchivalTransportError wraps a failure from the transport or fetch
// collaborator with the resource it concerned. The resource is unchanged.
type ArchivalTransportError struct {
	ResourceID string
	Transport  string
	Err        error
}

func (e *ArchivalTransportError) Error() string {
	return fmt.Sprintf("archiving resource %s via %s: %v", e.ResourceID, e.Transport, e.Err)
}

func (e *ArchivalTransportError) Unwrap() error { return e.Err }

func (e *ArchivalTransportError) Is(target error) bool { return target == ErrArchivalTransport }

// ConcurrentArchivalError is returned to the second caller archiving the same resource.
type ConcurrentArchivalError struct {
	ResourceID string
}

func (e *ConcurrentArchivalError) Error() string {
	return fmt.Sprintf("resource %s: %v", e.ResourceID, ErrConcurrentArchival)
}

func (e *ConcurrentArchivalError) Is(target error) bool { return target == ErrConcurrentArchival }

// LastLocationError is returned when removing a resource's only location.
type LastLocationError struct {
	ResourceID string
	LocationID string
}

func (e *LastLocationError) Error() string {
	return fmt.Sprintf("resource %s location %s: %v", e.ResourceID, e.LocationID, ErrLastLocation)
}

func (e *LastLocationError) Is(target error) bool { return target == ErrLastLocation }
