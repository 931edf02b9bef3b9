package domain

import (
	"errors"
	"sort"
	"strings"
)

// Sentinel errors returned by the cart and booking workflow. Callers compare with errors.Is.
var (
	ErrNotFound                 = errors.New("not found")
	ErrInvalidBookingReference  = errors.New("invalid booking reference")
	ErrMissingDelegateID        = errors.New("missing delegate id")
	ErrDelegateCapacityExceeded = errors.New("maximum number of delegates per booking exceeded")
	ErrPackageEventMismatch     = errors.New("package does not belong to the cart event")
	ErrInvalidIndex             = errors.New("invalid delegate index")
	ErrValidation               = errors.New("validation failed")
	ErrEmptyCartOnCommit        = errors.New("no delegates in cart at commit")
	// ErrStaleBookingVersion means the booking changed since the cart was built; reload and retry.
	ErrStaleBookingVersion = errors.New("booking was modified by another session")
	ErrIncompleteForms     = errors.New("some delegates need to complete their data")
)

// ValidationError carries field-level messages for a booking that cannot be saved.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string][]string
}

// Add records a message against a field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty reports whether no field messages were recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+strings.Join(e.Fields[k], ", "))
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
