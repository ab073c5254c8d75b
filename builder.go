package fixture

import (
	"context"

	"github.com/syssam/fixture/merge"
)

// builder carries out a single build, and optionally its create, with the
// inputs resolved at call time.
type builder[T any] struct {
	generator    GeneratorFunc[T]
	lineage      *lineage
	sequence     int
	params       Params
	associations Associations
	transient    Transient

	// bound holds the factory's hooks, generated the ones registered by the
	// generator during this build.
	bound     hooks[T]
	generated hooks[T]
}

func (b *builder[T]) name() string {
	return b.lineage.config.name
}

// build runs the generator, merges the overrides and runs the after-build
// hooks.
func (b *builder[T]) build() (T, error) {
	var zero T
	obj, err := b.generator(&Options[T]{
		Sequence:     b.sequence,
		Params:       b.params,
		Associations: b.associations,
		Transient:    b.transient,
		Factories:    b.lineage.factories(),
		b:            b,
	})
	if err != nil {
		return zero, b.fail("fixture: build failed", err)
	}
	if err := merge.Into(&obj, b.params); err != nil {
		return zero, b.fail("fixture: build failed", &MergeError{Factory: b.name(), Stage: "params", Err: err})
	}
	if err := merge.Assign(&obj, b.associations); err != nil {
		return zero, b.fail("fixture: build failed", &MergeError{Factory: b.name(), Stage: "associations", Err: err})
	}
	if err := runAfterBuild(obj, b.generated.afterBuild, b.bound.afterBuild); err != nil {
		return zero, b.fail("fixture: build failed", err)
	}
	b.lineage.logger().Debug("fixture: built", "factory", b.name(), "sequence", b.sequence)
	return obj, nil
}

// fail logs err at debug level and returns it unchanged.
func (b *builder[T]) fail(msg string, err error) error {
	b.lineage.logger().Debug(msg, "factory", b.name(), "sequence", b.sequence, "error", err)
	return err
}

// create builds the object and persists it.
func (b *builder[T]) create(ctx context.Context) (T, error) {
	obj, err := b.build()
	if err != nil {
		return obj, err
	}
	return b.persist(ctx, obj)
}

// persist runs onCreate and the after-create chain on a built object.
func (b *builder[T]) persist(ctx context.Context, obj T) (T, error) {
	var zero T
	onCreate, err := b.onCreate()
	if err != nil {
		return zero, b.fail("fixture: create failed", err)
	}
	if obj, err = onCreate(ctx, obj); err != nil {
		return zero, b.fail("fixture: create failed", err)
	}
	if obj, err = b.afterCreate(ctx, obj); err != nil {
		return zero, b.fail("fixture: create failed", err)
	}
	b.lineage.logger().DebugContext(ctx, "fixture: created", "factory", b.name(), "sequence", b.sequence)
	return obj, nil
}

// onCreate resolves the single onCreate slot. The factory's hook wins over
// the generator's.
func (b *builder[T]) onCreate() (OnCreateFunc[T], error) {
	var fn OnCreateFunc[T]
	switch {
	case b.bound.onCreateSet:
		fn = b.bound.onCreate
	case b.generated.onCreateSet:
		fn = b.generated.onCreate
	default:
		return nil, &MissingHookError{Factory: b.name(), Hook: "onCreate"}
	}
	if fn == nil {
		return nil, NewHookError("onCreate")
	}
	return fn, nil
}

func (b *builder[T]) afterCreate(ctx context.Context, obj T) (T, error) {
	return runAfterCreate(ctx, obj, b.generated.afterCreate, b.bound.afterCreate)
}
