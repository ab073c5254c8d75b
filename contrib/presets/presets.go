// Package presets loads named params presets from YAML or MessagePack files
// and applies them to fixture factories.
//
// A preset file maps preset names to params trees:
//
//	admin:
//	  role: admin
//	  address:
//	    city: Springfield
//	anonymous:
//	  name: !unset
//
// The !unset tag stands for fixture.Undefined and clears the field.
//
//	set, err := presets.LoadFile("testdata/users.yaml")
//	admins, err := presets.Apply(userFactory, set, "admin")
package presets

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/syssam/fixture"
	"github.com/syssam/fixture/merge"
)

// ErrUnknownFormat is returned by LoadFile for unsupported file extensions.
var ErrUnknownFormat = errors.New("presets: unknown file format")

// ErrNotFound is returned when a set has no preset under the requested name.
var ErrNotFound = errors.New("presets: preset not found")

// NotFoundError is returned when a set has no preset under the requested
// name.
type NotFoundError struct {
	Name string
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("presets: preset %q not found", e.Name)
}

// Is reports whether the target error matches NotFoundError.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Set maps preset names to params trees.
type Set map[string]fixture.Params

// Names returns the preset names in sorted order.
func (s Set) Names() []string {
	return slices.Sorted(maps.Keys(s))
}

// Params returns a copy of the named preset.
func (s Set) Params(name string) (fixture.Params, error) {
	p, ok := s[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return merge.Trees(p), nil
}

// Merge returns the named presets deep-merged in order.
func (s Set) Merge(names ...string) (fixture.Params, error) {
	out := fixture.Params{}
	for _, name := range names {
		p, ok := s[name]
		if !ok {
			return nil, &NotFoundError{Name: name}
		}
		out = merge.Trees(out, p)
	}
	return out, nil
}

// Trait returns a trait binding the named preset as params.
func Trait[T any](s Set, name string) (fixture.Trait[T], error) {
	p, err := s.Params(name)
	if err != nil {
		return nil, err
	}
	return func(f *fixture.Factory[T]) *fixture.Factory[T] {
		return f.Params(p)
	}, nil
}

// MustTrait is like Trait but panics if the preset does not exist.
func MustTrait[T any](s Set, name string) fixture.Trait[T] {
	t, err := Trait[T](s, name)
	if err != nil {
		panic(err)
	}
	return t
}

// Apply returns f with the named presets bound as params, in order.
func Apply[T any](f *fixture.Factory[T], s Set, names ...string) (*fixture.Factory[T], error) {
	p, err := s.Merge(names...)
	if err != nil {
		return nil, err
	}
	return f.Params(p), nil
}

// LoadFile reads a preset file. The format is chosen by extension: .yaml and
// .yml for YAML, .msgpack and .mp for MessagePack.
func LoadFile(path string) (Set, error) {
	var parse func([]byte) (Set, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parse = ParseYAML
	case ".msgpack", ".mp":
		parse = DecodeMsgpack
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("presets: reading %s: %w", path, err)
	}
	s, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("presets: parsing %s: %w", path, err)
	}
	return s, nil
}
