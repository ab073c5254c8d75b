package fixture

import (
	"errors"
	"fmt"
)

// Standard sentinel errors.
var (
	// ErrUnregistered is returned when a generator reaches for a sibling
	// factory before its factory was passed to Register.
	ErrUnregistered = errors.New("fixture: factory has not been registered")

	// ErrFactoryNotFound is returned when a registered view has no factory
	// under the requested name.
	ErrFactoryNotFound = errors.New("fixture: factory not found")

	// ErrFactoryType is returned when a registered factory builds a different
	// type than the one requested.
	ErrFactoryType = errors.New("fixture: factory type mismatch")

	// ErrInvalidHook is returned when a hook chain reaches a nil hook.
	ErrInvalidHook = errors.New("fixture: hook must be a function")

	// ErrNoOnCreate is returned by Create when no onCreate hook was set,
	// neither by the generator nor on the factory.
	ErrNoOnCreate = errors.New("fixture: onCreate is not defined")

	// ErrNoOnBulkCreate is returned by a bulk CreateList when no onBulkCreate
	// hook was set on the factory.
	ErrNoOnBulkCreate = errors.New("fixture: onBulkCreate is not defined")

	// ErrBulkCount is returned when onBulkCreate returns a different number of
	// objects than it was given.
	ErrBulkCount = errors.New("fixture: onBulkCreate returned a different number of objects")
)

// UnregisteredError is returned when a generator resolves a sibling factory
// through the injected view of an unregistered factory.
type UnregisteredError struct {
	Factory string // Name of the factory whose generator made the lookup
	Lookup  string // Sibling name that was requested
}

// Error returns the error string.
func (e *UnregisteredError) Error() string {
	return fmt.Sprintf("fixture: cannot resolve factories.%s: factory %q has not been registered; call Register before using sibling factories", e.Lookup, e.Factory)
}

// Is reports whether the target error matches UnregisteredError.
// This allows errors.Is(err, ErrUnregistered) to return true.
func (e *UnregisteredError) Is(err error) bool {
	return err == ErrUnregistered
}

// IsUnregistered returns true if the error is an UnregisteredError.
func IsUnregistered(err error) bool {
	if err == nil {
		return false
	}
	var e *UnregisteredError
	return errors.As(err, &e) || errors.Is(err, ErrUnregistered)
}

// LookupError is returned when a registered view cannot satisfy a lookup.
type LookupError struct {
	Name string // Requested name
	Want string // Requested factory type, for type mismatches
	Got  string // Registered factory type, for type mismatches
	Err  error  // ErrFactoryNotFound or ErrFactoryType
}

// Error returns the error string.
func (e *LookupError) Error() string {
	if errors.Is(e.Err, ErrFactoryType) {
		return fmt.Sprintf("fixture: factories.%s builds %s, not %s", e.Name, e.Got, e.Want)
	}
	return fmt.Sprintf("fixture: factories.%s is not registered", e.Name)
}

// Unwrap returns the underlying error.
func (e *LookupError) Unwrap() error {
	return e.Err
}

// HookError is returned when a hook chain reaches a nil hook.
type HookError struct {
	Hook string // afterBuild, onCreate, afterCreate or onBulkCreate
}

// Error returns the error string.
func (e *HookError) Error() string {
	return fmt.Sprintf("fixture: %q must be a function", e.Hook)
}

// Is reports whether the target error matches HookError.
func (e *HookError) Is(err error) bool {
	return err == ErrInvalidHook
}

// NewHookError returns a new HookError for the given hook slot.
func NewHookError(hook string) *HookError {
	return &HookError{Hook: hook}
}

// IsHookError returns true if the error is a HookError.
func IsHookError(err error) bool {
	if err == nil {
		return false
	}
	var e *HookError
	return errors.As(err, &e)
}

// MissingHookError is returned when a create path needs a hook that was
// never set.
type MissingHookError struct {
	Factory string // Factory name
	Hook    string // onCreate or onBulkCreate
}

// Error returns the error string.
func (e *MissingHookError) Error() string {
	if e.Hook == "onBulkCreate" {
		return fmt.Sprintf("fixture: tried to bulk create %q but onBulkCreate is not defined; set one with OnBulkCreate", e.Factory)
	}
	return fmt.Sprintf("fixture: tried to create %q but onCreate is not defined; set one with OnCreate or from the generator", e.Factory)
}

// Is reports whether the target error is the sentinel of the missing hook.
func (e *MissingHookError) Is(err error) bool {
	if e.Hook == "onBulkCreate" {
		return err == ErrNoOnBulkCreate
	}
	return err == ErrNoOnCreate
}

// MergeError wraps a failure to apply overrides onto generator output.
type MergeError struct {
	Factory string // Factory name
	Stage   string // params or associations
	Err     error  // Underlying merge error
}

// Error returns the error string.
func (e *MergeError) Error() string {
	return fmt.Sprintf("fixture: merging %s into %s: %v", e.Stage, e.Factory, e.Err)
}

// Unwrap returns the underlying error.
func (e *MergeError) Unwrap() error {
	return e.Err
}

// IsMergeError returns true if the error is a MergeError.
func IsMergeError(err error) bool {
	if err == nil {
		return false
	}
	var e *MergeError
	return errors.As(err, &e)
}

// BulkCountError is returned when onBulkCreate returns the wrong number of
// objects.
type BulkCountError struct {
	Want int
	Got  int
}

// Error returns the error string.
func (e *BulkCountError) Error() string {
	return fmt.Sprintf("fixture: onBulkCreate returned %d objects, expected %d", e.Got, e.Want)
}

// Is reports whether the target error matches BulkCountError.
func (e *BulkCountError) Is(err error) bool {
	return err == ErrBulkCount
}
