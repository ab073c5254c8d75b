package fixture

import "github.com/google/uuid"

// GeneratorFunc produces a fresh object for every build. Overrides in
// Options.Params and Options.Associations are merged onto its result after
// it returns, so a generator only needs to produce defaults.
type GeneratorFunc[T any] func(o *Options[T]) (T, error)

// Options is the context handed to a generator for a single build.
//
// Hooks registered through Options apply to this build only. After-build and
// after-create hooks registered here run before the ones bound on the
// factory, and an onCreate bound on the factory replaces the one set here.
type Options[T any] struct {
	// Sequence is this build's number from the counter shared by the factory
	// and everything derived from it. The first number is 1.
	Sequence int

	// Params is the merged override tree for this build.
	Params Params

	// Associations is the merged association map for this build.
	Associations Associations

	// Transient is the merged transient data for this build.
	Transient Transient

	// Factories resolves sibling factories once the factory was passed to
	// Register. Lookups fail with an UnregisteredError before that.
	Factories Factories

	b *builder[T]
}

// AfterBuild registers an after-build hook for this build.
func (o *Options[T]) AfterBuild(fn AfterBuildFunc[T]) {
	o.b.generated.afterBuild = append(o.b.generated.afterBuild, fn)
}

// OnCreate sets the onCreate hook for this build, unless the factory has its
// own.
func (o *Options[T]) OnCreate(fn OnCreateFunc[T]) {
	o.b.generated.onCreate = fn
	o.b.generated.onCreateSet = true
}

// AfterCreate registers an after-create hook for this build.
func (o *Options[T]) AfterCreate(fn AfterCreateFunc[T]) {
	o.b.generated.afterCreate = append(o.b.generated.afterCreate, fn)
}

// UUID returns a UUID derived from the factory name and Sequence, so that
// rewinding the sequence reproduces the same identifiers.
func (o *Options[T]) UUID() uuid.UUID {
	return o.b.lineage.uuid(o.Sequence)
}
