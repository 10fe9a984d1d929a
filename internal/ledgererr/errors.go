// Package ledgererr defines the typed errors returned by the ledger engine.
// Every error type matches a package sentinel through errors.Is so callers can
// branch on the failure class without type assertions.
package ledgererr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateName   = errors.New("duplicate name")
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownPath     = errors.New("unknown taxonomy path")
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidRecord   = errors.New("invalid record")
	ErrInvalidRate     = errors.New("invalid conversion rate")
	ErrSave            = errors.New("snapshot save failed")
)

// DuplicateNameError is returned when a taxonomy node would collide with a sibling.
type DuplicateNameError struct {
	Parent []string
	Name   string
}

func (e *DuplicateNameError) Error() string {
	if len(e.Parent) == 0 {
		return fmt.Sprintf("category %q already exists", e.Name)
	}
	return fmt.Sprintf("%q already exists under %s", e.Name, strings.Join(e.Parent, " > "))
}

func (e *DuplicateNameError) Is(target error) bool { return target == ErrDuplicateName }

// UnknownCategoryError is returned when a top-level category does not exist.
type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q", e.Category)
}

func (e *UnknownCategoryError) Is(target error) bool { return target == ErrUnknownCategory }

// UnknownPathError is returned when a taxonomy path does not resolve.
type UnknownPathError struct {
	Path []string
}

func (e *UnknownPathError) Error() string {
	return fmt.Sprintf("unknown taxonomy path %q", strings.Join(e.Path, " > "))
}

func (e *UnknownPathError) Is(target error) bool { return target == ErrUnknownPath }

// InvalidNameError is returned for empty or whitespace-only node names.
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid name %q: %s", e.Name, e.Reason)
}

func (e *InvalidNameError) Is(target error) bool { return target == ErrInvalidName }

// InvalidRecordError represents a record rejected at append or import time.
type InvalidRecordError struct {
	Collection string
	Field      string
	Reason     string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid %s record: field %s %s", e.Collection, e.Field, e.Reason)
}

func (e *InvalidRecordError) Is(target error) bool { return target == ErrInvalidRecord }

// InvalidRateError is returned for non-positive conversion rates.
type InvalidRateError struct {
	Rate string
}

func (e *InvalidRateError) Error() string {
	return fmt.Sprintf("conversion rate must be positive, got %s", e.Rate)
}

func (e *InvalidRateError) Is(target error) bool { return target == ErrInvalidRate }

// SaveError wraps a persistence failure. The in-memory session is untouched
// when it is returned.
type SaveError struct {
	Backend  string
	Attempts int
	Err      error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("saving snapshot to %s failed after %d attempt(s): %v", e.Backend, e.Attempts, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

func (e *SaveError) Is(target error) bool { return target == ErrSave }
