package fixture

import (
	"context"
	"slices"
)

type (
	// AfterBuildFunc runs synchronously after an object was built and its
	// overrides were merged. Hooks mutate the object in place.
	AfterBuildFunc[T any] func(T) error

	// OnCreateFunc persists a built object and returns the persisted form.
	OnCreateFunc[T any] func(context.Context, T) (T, error)

	// AfterCreateFunc runs after onCreate. Its result replaces the object
	// passed to the next hook in the chain.
	AfterCreateFunc[T any] func(context.Context, T) (T, error)

	// OnBulkCreateFunc persists a batch of built objects at once. It must
	// return as many objects as it was given, in the same order.
	OnBulkCreateFunc[T any] func(context.Context, []T) ([]T, error)
)

// hooks is one source of hooks: either the factory or a single generator
// invocation.
type hooks[T any] struct {
	afterBuild   []AfterBuildFunc[T]
	afterCreate  []AfterCreateFunc[T]
	onCreate     OnCreateFunc[T]
	onCreateSet  bool
	onBulkCreate OnBulkCreateFunc[T]
	onBulkSet    bool
}

func (h hooks[T]) clone() hooks[T] {
	h.afterBuild = slices.Clone(h.afterBuild)
	h.afterCreate = slices.Clone(h.afterCreate)
	return h
}

// runAfterBuild runs the chains in order, stopping at the first error.
func runAfterBuild[T any](obj T, chains ...[]AfterBuildFunc[T]) error {
	for _, chain := range chains {
		for _, hook := range chain {
			if hook == nil {
				return NewHookError("afterBuild")
			}
			if err := hook(obj); err != nil {
				return err
			}
		}
	}
	return nil
}

// runAfterCreate threads obj through the chains in order, stopping at the
// first error.
func runAfterCreate[T any](ctx context.Context, obj T, chains ...[]AfterCreateFunc[T]) (T, error) {
	for _, chain := range chains {
		for _, hook := range chain {
			if hook == nil {
				var zero T
				return zero, NewHookError("afterCreate")
			}
			var err error
			if obj, err = hook(ctx, obj); err != nil {
				var zero T
				return zero, err
			}
		}
	}
	return obj, nil
}
