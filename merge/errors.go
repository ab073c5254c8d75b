package merge

import (
	"errors"
	"fmt"
	"reflect"
)

// FieldError is returned when a key does not resolve to a settable field.
type FieldError struct {
	Type   reflect.Type // Struct type the key was resolved against
	Key    string       // Key as written in the override
	Path   string       // Dotted path from the root
	Reason string       // Optional detail
}

// Error returns the error string.
func (e *FieldError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("merge: field %q on %s: %s", e.Path, e.Type, e.Reason)
	}
	return fmt.Sprintf("merge: unknown field %q on %s", e.Path, e.Type)
}

// IsFieldError returns true if the error is a FieldError.
func IsFieldError(err error) bool {
	if err == nil {
		return false
	}
	var e *FieldError
	return errors.As(err, &e)
}

// TypeError is returned when an override value cannot be assigned to its
// target.
type TypeError struct {
	Path string       // Dotted path from the root
	Want reflect.Type // Target type
	Got  any          // Override value
}

// Error returns the error string.
func (e *TypeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("merge: cannot merge %T into %s", e.Got, e.Want)
	}
	return fmt.Sprintf("merge: cannot merge %T into %s at %q", e.Got, e.Want, e.Path)
}

// IsTypeError returns true if the error is a TypeError.
func IsTypeError(err error) bool {
	if err == nil {
		return false
	}
	var e *TypeError
	return errors.As(err, &e)
}
