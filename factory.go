package fixture

import (
	"context"
	"maps"
	"reflect"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/fixture/merge"
)

// Factory builds objects of type T from a generator, overrides and hooks.
//
// A Factory is immutable: Params, Associations, Transient and the hook
// methods return a derived factory and leave the receiver untouched. Derived
// factories share the sequence counter, configuration and registry binding
// of the factory they were derived from.
type Factory[T any] struct {
	generator    GeneratorFunc[T]
	lineage      *lineage
	params       Params
	associations Associations
	transient    Transient
	hooks        hooks[T]
}

// Trait derives a factory preset from a factory. Traits compose with With.
//
//	func Admin(f *fixture.Factory[*User]) *fixture.Factory[*User] {
//		return f.Params(fixture.Params{"role": "admin"})
//	}
type Trait[T any] func(*Factory[T]) *Factory[T]

// Define returns a factory for the generator. It panics if the generator is
// nil.
func Define[T any](generator GeneratorFunc[T], opts ...Option) *Factory[T] {
	if generator == nil {
		panic("fixture: Define called with a nil generator")
	}
	return &Factory[T]{
		generator:    generator,
		lineage:      newLineage(newConfig(reflect.TypeFor[T]().String(), opts)),
		params:       Params{},
		associations: Associations{},
		transient:    Transient{},
	}
}

// Name returns the factory name.
func (f *Factory[T]) Name() string {
	return f.lineage.config.name
}

func (f *Factory[T]) clone() *Factory[T] {
	c := *f
	c.params = merge.Trees(f.params)
	c.associations = maps.Clone(f.associations)
	c.transient = maps.Clone(f.transient)
	c.hooks = f.hooks.clone()
	return &c
}

// Params returns a factory whose bound params are the receiver's deep-merged
// with p.
func (f *Factory[T]) Params(p Params) *Factory[T] {
	c := f.clone()
	c.params = merge.Trees(f.params, p)
	return c
}

// Associations returns a factory whose bound associations are the receiver's
// overlaid with a.
func (f *Factory[T]) Associations(a Associations) *Factory[T] {
	c := f.clone()
	maps.Copy(c.associations, a)
	return c
}

// Transient returns a factory whose bound transient data is the receiver's
// overlaid with t.
func (f *Factory[T]) Transient(t Transient) *Factory[T] {
	c := f.clone()
	maps.Copy(c.transient, t)
	return c
}

// AfterBuild returns a factory with fn appended to its after-build hooks.
func (f *Factory[T]) AfterBuild(fn AfterBuildFunc[T]) *Factory[T] {
	c := f.clone()
	c.hooks.afterBuild = append(c.hooks.afterBuild, fn)
	return c
}

// OnCreate returns a factory whose onCreate hook is fn. It replaces any
// onCreate set earlier or by the generator.
func (f *Factory[T]) OnCreate(fn OnCreateFunc[T]) *Factory[T] {
	c := f.clone()
	c.hooks.onCreate = fn
	c.hooks.onCreateSet = true
	return c
}

// AfterCreate returns a factory with fn appended to its after-create hooks.
func (f *Factory[T]) AfterCreate(fn AfterCreateFunc[T]) *Factory[T] {
	c := f.clone()
	c.hooks.afterCreate = append(c.hooks.afterCreate, fn)
	return c
}

// OnBulkCreate returns a factory whose onBulkCreate hook is fn, used by
// CreateList with WithBulkCreate.
func (f *Factory[T]) OnBulkCreate(fn OnBulkCreateFunc[T]) *Factory[T] {
	c := f.clone()
	c.hooks.onBulkCreate = fn
	c.hooks.onBulkSet = true
	return c
}

// With applies traits in order and returns the result.
func (f *Factory[T]) With(traits ...Trait[T]) *Factory[T] {
	for _, t := range traits {
		if t != nil {
			f = t(f)
		}
	}
	return f
}

// RewindSequence resets the counter shared with every related factory, so
// the next build gets sequence 1.
func (f *Factory[T]) RewindSequence() {
	f.lineage.rewind()
}

// NextSequence consumes and returns the next sequence number.
func (f *Factory[T]) NextSequence() int {
	return f.lineage.next()
}

// builder resolves the inputs of a single build.
func (f *Factory[T]) builder(params Params, o buildOptions) *builder[T] {
	b := &builder[T]{
		generator:    f.generator,
		lineage:      f.lineage,
		sequence:     f.lineage.next(),
		params:       merge.Trees(f.params, params),
		associations: maps.Clone(f.associations),
		transient:    maps.Clone(f.transient),
		bound:        f.hooks.clone(),
	}
	maps.Copy(b.associations, o.associations)
	maps.Copy(b.transient, o.transient)
	return b
}

// Build returns a new object. params are deep-merged over the factory's
// bound params.
func (f *Factory[T]) Build(params Params, opts ...BuildOption) (T, error) {
	return f.builder(params, newBuildOptions(opts)).build()
}

// MustBuild is like Build but panics on error.
func (f *Factory[T]) MustBuild(params Params, opts ...BuildOption) T {
	obj, err := f.Build(params, opts...)
	if err != nil {
		panic(err)
	}
	return obj
}

// BuildList builds n objects in order. Each one gets its own sequence
// number and generator run; the override values are shared.
func (f *Factory[T]) BuildList(n int, params Params, opts ...BuildOption) ([]T, error) {
	o := newBuildOptions(opts)
	list := make([]T, 0, max(n, 0))
	for range n {
		obj, err := f.builder(params, o).build()
		if err != nil {
			return nil, err
		}
		list = append(list, obj)
	}
	return list, nil
}

// MustBuildList is like BuildList but panics on error.
func (f *Factory[T]) MustBuildList(n int, params Params, opts ...BuildOption) []T {
	list, err := f.BuildList(n, params, opts...)
	if err != nil {
		panic(err)
	}
	return list
}

// Create builds an object, passes it to onCreate and threads the result
// through the after-create hooks.
func (f *Factory[T]) Create(ctx context.Context, params Params, opts ...BuildOption) (T, error) {
	return f.builder(params, newBuildOptions(opts)).create(ctx)
}

// CreateList creates n objects. Objects are built in order, so sequence
// numbers follow list positions, then persisted concurrently; the result
// keeps the build order. The first failure is returned and no list.
//
// Without WithConcurrency the onCreate and after-create hooks of all items
// run at once, so hooks that share state must synchronize it. WithConcurrency(1)
// runs them one at a time in list order.
//
// With WithBulkCreate, the built objects are passed to the factory's
// OnBulkCreate hook in one call instead of onCreate, and the after-create
// hooks then run for each returned object.
func (f *Factory[T]) CreateList(ctx context.Context, n int, params Params, opts ...BuildOption) ([]T, error) {
	if n <= 0 {
		return []T{}, nil
	}
	o := newBuildOptions(opts)
	f.lineage.logger().DebugContext(ctx, "fixture: create list", "factory", f.Name(), "count", n, "bulk", o.bulk)
	if o.bulk {
		return f.createBulk(ctx, n, params, o)
	}
	builders, list, err := f.buildAll(n, params, o)
	if err != nil {
		return nil, err
	}
	eg, ctx := errgroup.WithContext(ctx)
	if c := f.lineage.config.concurrency; c > 0 {
		eg.SetLimit(c)
	}
	for i, b := range builders {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			obj, err := b.persist(ctx, list[i])
			if err != nil {
				return err
			}
			list[i] = obj
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return list, nil
}

func (f *Factory[T]) buildAll(n int, params Params, o buildOptions) ([]*builder[T], []T, error) {
	builders := make([]*builder[T], n)
	list := make([]T, n)
	for i := range n {
		b := f.builder(params, o)
		obj, err := b.build()
		if err != nil {
			return nil, nil, err
		}
		builders[i], list[i] = b, obj
	}
	return builders, list, nil
}

func (f *Factory[T]) createBulk(ctx context.Context, n int, params Params, o buildOptions) ([]T, error) {
	if !f.hooks.onBulkSet {
		return nil, &MissingHookError{Factory: f.Name(), Hook: "onBulkCreate"}
	}
	if f.hooks.onBulkCreate == nil {
		return nil, NewHookError("onBulkCreate")
	}
	builders, list, err := f.buildAll(n, params, o)
	if err != nil {
		return nil, err
	}
	created, err := f.hooks.onBulkCreate(ctx, list)
	if err != nil {
		return nil, err
	}
	if len(created) != n {
		return nil, &BulkCountError{Want: n, Got: len(created)}
	}
	for i, b := range builders {
		if created[i], err = b.afterCreate(ctx, created[i]); err != nil {
			return nil, err
		}
	}
	return created, nil
}

// BuildAny is Build for callers that only know the factory by name.
func (f *Factory[T]) BuildAny(params Params, opts ...BuildOption) (any, error) {
	return f.Build(params, opts...)
}

// CreateAny is Create for callers that only know the factory by name.
func (f *Factory[T]) CreateAny(ctx context.Context, params Params, opts ...BuildOption) (any, error) {
	return f.Create(ctx, params, opts...)
}

func (f *Factory[T]) bind(r *registry) {
	f.lineage.registry.Store(r)
}
