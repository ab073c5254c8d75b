// Package fixture builds test data from factories.
//
// A factory wraps a generator that produces a fresh object with defaults.
// Every build merges call-time overrides onto that object and then runs
// after-build hooks. Create additionally persists the built object through an
// onCreate hook and threads it through after-create hooks.
//
//	type User struct {
//		ID    int
//		Name  string
//		Email string
//	}
//
//	var users = fixture.Define(func(o *fixture.Options[*User]) (*User, error) {
//		return &User{
//			ID:    o.Sequence,
//			Name:  "Ada",
//			Email: fmt.Sprintf("user%d@example.com", o.Sequence),
//		}, nil
//	})
//
//	u, err := users.Build(fixture.Params{"name": "Grace"})
//
// Overrides come in three kinds:
//
//   - Params are deep-merged into the object. Nested maps merge into nested
//     structs, pointers and maps; any other value replaces the target.
//     Undefined clears a field to its zero value.
//   - Associations are assigned by reference after Params.
//   - Transient data is only visible to the generator.
//
// Factories are immutable. Params, Associations, Transient and the hook
// methods derive a new factory that shares the sequence counter of its
// parent:
//
//	admins := users.Params(fixture.Params{"role": "admin"})
//
// Generators reach sibling factories through Options.Factories once the
// factories were passed to Register.
package fixture
