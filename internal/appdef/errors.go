package appdef

import (
	"errors"
	"fmt"
)

// ErrMalformed matches every fatal conversion error.
var ErrMalformed = errors.New("malformed application definition")

// MissingError reports a required element or attribute that is absent.
type MissingError struct {
	Section string // e.g. "fonts", "books[C01]"
	Field   string // e.g. "<font-name>", "@family"
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("appdef: %s: missing %s", e.Section, e.Field)
}

// Is lets errors.Is(err, ErrMalformed) match.
func (e *MissingError) Is(target error) bool {
	return target == ErrMalformed
}

// InvalidValueError reports a value that cannot be read as the required type.
type InvalidValueError struct {
	Section string
	Field   string
	Value   string
	Err     error
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("appdef: %s: invalid %s %q: %v", e.Section, e.Field, e.Value, e.Err)
}

func (e *InvalidValueError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrMalformed) match.
func (e *InvalidValueError) Is(target error) bool {
	return target == ErrMalformed
}

func missing(section, field string) error {
	return &MissingError{Section: section, Field: field}
}
