package fixture

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// AnyFactory is a factory with its built type erased. Every *Factory[T]
// implements it.
type AnyFactory interface {
	Name() string
	BuildAny(params Params, opts ...BuildOption) (any, error)
	CreateAny(ctx context.Context, params Params, opts ...BuildOption) (any, error)
	RewindSequence()

	bind(*registry)
}

// registry is an immutable snapshot of registered factories.
type registry struct {
	factories map[string]AnyFactory
}

// Register binds every factory to a snapshot of named, so that generators
// can resolve their siblings through Options.Factories, and returns named.
// Factories derived before or after registration see the binding too.
// Registering a factory again replaces its binding.
//
//	factories := fixture.Register(map[string]fixture.AnyFactory{
//		"user": userFactory,
//		"post": postFactory,
//	})
func Register(named map[string]AnyFactory) map[string]AnyFactory {
	r := &registry{factories: maps.Clone(named)}
	for name, f := range r.factories {
		switch {
		case name == "":
			panic("fixture: Register called with an empty factory name")
		case f == nil:
			panic(fmt.Sprintf("fixture: Register called with a nil factory for %q", name))
		}
	}
	for _, f := range r.factories {
		f.bind(r)
	}
	return named
}

// Factories is the registered view a generator receives. The zero value
// belongs to no registration and fails every lookup.
type Factories struct {
	owner string
	reg   *registry
}

// Registered reports whether the owning factory was registered.
func (fs Factories) Registered() bool {
	return fs.reg != nil
}

// Lookup returns the factory registered under name.
func (fs Factories) Lookup(name string) (AnyFactory, error) {
	if fs.reg == nil {
		return nil, &UnregisteredError{Factory: fs.owner, Lookup: name}
	}
	f, ok := fs.reg.factories[name]
	if !ok {
		return nil, &LookupError{Name: name, Err: ErrFactoryNotFound}
	}
	return f, nil
}

// Names returns the registered names in sorted order.
func (fs Factories) Names() []string {
	if fs.reg == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(fs.reg.factories))
}

// RewindSequences rewinds the sequence of every registered factory.
func (fs Factories) RewindSequences() {
	if fs.reg == nil {
		return
	}
	for _, f := range fs.reg.factories {
		f.RewindSequence()
	}
}

// Lookup returns the factory registered under name as a *Factory[T].
//
//	posts, err := fixture.Lookup[*Post](o.Factories, "post")
func Lookup[T any](fs Factories, name string) (*Factory[T], error) {
	af, err := fs.Lookup(name)
	if err != nil {
		return nil, err
	}
	f, ok := af.(*Factory[T])
	if !ok {
		return nil, &LookupError{
			Name: name,
			Want: reflect.TypeFor[*Factory[T]]().String(),
			Got:  reflect.TypeOf(af).String(),
			Err:  ErrFactoryType,
		}
	}
	return f, nil
}
