// Package mixin provides common field mixins for fixture factories.
//
// A mixin fills columns shared by many entities, such as timestamps or
// tenant identifiers, on every object a factory builds. Fields that the
// generator or the call-time params already set are left untouched.
//
// These mixins are OPTIONAL and provided as convenient starting points.
// Users are encouraged to create their own mixins tailored to their needs.
//
// Available mixins:
//   - CreateTime: Fills created_at
//   - UpdateTime: Fills updated_at
//   - Time: Combines CreateTime and UpdateTime
//   - ID: Fills id with a random UUID
//   - SoftDelete: Fills deleted_at
//   - TenantID: Fills tenant_id
//   - TimeSoftDelete: Combines Time and SoftDelete
//
// Usage:
//
//	import "github.com/syssam/fixture/contrib/mixin"
//
//	users := mixin.Apply(userFactory,
//	    mixin.Time{},
//	    mixin.TenantID{ID: "acme"},
//	)
//
// Objects must be pointers or string-keyed maps so that mixins can fill
// them in place.
//
// Custom mixins:
//
// For project-specific needs, define your own mixins:
//
//	type AuditMixin struct {
//	    mixin.Schema
//	}
//
//	func (AuditMixin) Fields() []mixin.Field {
//	    return []mixin.Field{
//	        mixin.Value("created_by", "system"),
//	    }
//	}
package mixin

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/fixture"
	"github.com/syssam/fixture/merge"
)

// ErrNotAddressable is returned by Fill when the object is held by value and
// cannot be filled in place.
var ErrNotAddressable = errors.New("mixin: object must be a pointer or a map")

// Field is a value a mixin fills when the built object leaves it zero.
type Field struct {
	// Name is the key the value is filled under. It resolves like a
	// params key.
	Name string

	// Default returns the value. It is called once per built object.
	Default func() any
}

// Value returns a field that always fills v.
func Value(name string, v any) Field {
	return Field{Name: name, Default: func() any { return v }}
}

// Mixin provides fields filled on every built object.
type Mixin interface {
	Fields() []Field
}

// Schema is the default implementation for Mixin. It can be embedded in
// custom mixins to satisfy the interface.
type Schema struct{}

// Fields of the schema.
func (Schema) Fields() []Field { return nil }

// schema must implement `Mixin` interface.
var _ Mixin = (*Schema)(nil)

// Apply returns a factory that fills the fields of every mixin after each
// build.
func Apply[T any](f *fixture.Factory[T], mixins ...Mixin) *fixture.Factory[T] {
	return f.AfterBuild(func(obj T) error {
		return Fill(obj, mixins...)
	})
}

// Trait returns Apply as a trait, for use with Factory.With.
func Trait[T any](mixins ...Mixin) fixture.Trait[T] {
	return func(f *fixture.Factory[T]) *fixture.Factory[T] {
		return Apply(f, mixins...)
	}
}

// Fill fills the fields of every mixin on obj, skipping fields that are
// already set. obj must be a pointer or a string-keyed map.
func Fill(obj any, mixins ...Mixin) error {
	if t := reflect.TypeOf(obj); t == nil || (t.Kind() != reflect.Pointer && t.Kind() != reflect.Map) {
		return fmt.Errorf("%w, got %T", ErrNotAddressable, obj)
	}
	for _, m := range mixins {
		if m == nil {
			continue
		}
		for _, f := range m.Fields() {
			if f.Default == nil {
				continue
			}
			if _, err := merge.Default(&obj, f.Name, f.Default()); err != nil {
				return err
			}
		}
	}
	return nil
}

func clock(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}

// CreateTime fills created_at.
// The value defaults to time.Now.
type CreateTime struct {
	Schema
	Now func() time.Time
}

// Fields of the create time mixin.
func (m CreateTime) Fields() []Field {
	now := clock(m.Now)
	return []Field{
		{Name: "created_at", Default: func() any { return now() }},
	}
}

// create time mixin must implement `Mixin` interface.
var _ Mixin = (*CreateTime)(nil)

// UpdateTime fills updated_at.
// The value defaults to time.Now.
type UpdateTime struct {
	Schema
	Now func() time.Time
}

// Fields of the update time mixin.
func (m UpdateTime) Fields() []Field {
	now := clock(m.Now)
	return []Field{
		{Name: "updated_at", Default: func() any { return now() }},
	}
}

// update time mixin must implement `Mixin` interface.
var _ Mixin = (*UpdateTime)(nil)

// Time composes CreateTime and UpdateTime mixins.
// Both fields get the same instant.
//
// This is the most common mixin for entity timestamps.
type Time struct {
	Schema
	Now func() time.Time
}

// Fields of the time mixin.
func (m Time) Fields() []Field {
	t := clock(m.Now)()
	at := func() time.Time { return t }
	return append(
		CreateTime{Now: at}.Fields(),
		UpdateTime{Now: at}.Fields()...,
	)
}

// time mixin must implement `Mixin` interface.
var _ Mixin = (*Time)(nil)

// ID fills id with a random UUID.
// Uses github.com/google/uuid for UUID generation.
//
// For deterministic identifiers, set the id from Options.UUID in the
// generator instead.
type ID struct{ Schema }

// Fields of the ID mixin.
func (ID) Fields() []Field {
	return []Field{
		{Name: "id", Default: func() any { return uuid.New() }},
	}
}

// id mixin must implement `Mixin` interface.
var _ Mixin = (*ID)(nil)

// SoftDelete fills deleted_at with At, marking objects as soft deleted.
// A zero At fills nothing.
type SoftDelete struct {
	Schema
	At time.Time
}

// Fields of the SoftDelete mixin.
func (m SoftDelete) Fields() []Field {
	if m.At.IsZero() {
		return nil
	}
	return []Field{
		Value("deleted_at", m.At),
	}
}

// soft delete mixin must implement `Mixin` interface.
var _ Mixin = (*SoftDelete)(nil)

// TenantID fills tenant_id for multi-tenant entities.
//
// For different naming conventions, create your own mixin:
//
//	type WorkspaceID struct{ mixin.Schema }
//
//	func (WorkspaceID) Fields() []mixin.Field {
//	    return []mixin.Field{mixin.Value("workspace_id", "ws-1")}
//	}
type TenantID struct {
	Schema
	ID string
}

// Fields of the TenantID mixin.
func (m TenantID) Fields() []Field {
	return []Field{
		Value("tenant_id", m.ID),
	}
}

// tenant id mixin must implement `Mixin` interface.
var _ Mixin = (*TenantID)(nil)

// TimeSoftDelete composes Time and SoftDelete mixins.
// Fills created_at, updated_at, and deleted_at.
type TimeSoftDelete struct {
	Schema
	Now       func() time.Time
	DeletedAt time.Time
}

// Fields of the TimeSoftDelete mixin.
func (m TimeSoftDelete) Fields() []Field {
	return append(
		Time{Now: m.Now}.Fields(),
		SoftDelete{At: m.DeletedAt}.Fields()...,
	)
}

// time soft delete mixin must implement `Mixin` interface.
var _ Mixin = (*TimeSoftDelete)(nil)
