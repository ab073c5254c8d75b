package fixture

import (
	"log/slog"
	"maps"

	"github.com/google/uuid"
)

// DefaultNamespace is the namespace of the UUIDs returned by Options.UUID
// unless a factory sets its own with WithNamespace.
var DefaultNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/syssam/fixture"))

// config is fixed at Define time and shared by every derived factory.
type config struct {
	name        string
	logger      *slog.Logger
	concurrency int
	namespace   uuid.UUID
}

// Option configures a factory at Define time.
type Option func(*config)

// WithName sets the factory name used in log records, error messages and
// generated UUIDs. It defaults to the name of the built type.
func WithName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
	}
}

// WithLogger sets the logger receiving debug records of builds and creates.
// It defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithConcurrency bounds how many create hook chains CreateList runs at once.
// Zero or less means no limit.
func WithConcurrency(n int) Option {
	return func(c *config) {
		c.concurrency = n
	}
}

// WithNamespace sets the namespace of the UUIDs returned by Options.UUID.
func WithNamespace(ns uuid.UUID) Option {
	return func(c *config) {
		c.namespace = ns
	}
}

func newConfig(name string, opts []Option) config {
	c := config{
		name:      name,
		logger:    slog.Default(),
		namespace: DefaultNamespace,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	return c
}

// BuildOption configures a single Build, Create or list call.
type BuildOption func(*buildOptions)

type buildOptions struct {
	associations Associations
	transient    Transient
	bulk         bool
}

// WithAssociations sets call-time associations. They override associations
// bound on the factory, key by key.
func WithAssociations(a Associations) BuildOption {
	return func(o *buildOptions) {
		if o.associations == nil {
			o.associations = make(Associations, len(a))
		}
		maps.Copy(o.associations, a)
	}
}

// WithTransient sets call-time transient data. It overrides transient data
// bound on the factory, key by key.
func WithTransient(t Transient) BuildOption {
	return func(o *buildOptions) {
		if o.transient == nil {
			o.transient = make(Transient, len(t))
		}
		maps.Copy(o.transient, t)
	}
}

// WithBulkCreate makes CreateList persist all items with a single call to
// the factory's OnBulkCreate hook instead of one onCreate call per item.
func WithBulkCreate() BuildOption {
	return func(o *buildOptions) {
		o.bulk = true
	}
}

func newBuildOptions(opts []BuildOption) buildOptions {
	var o buildOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
