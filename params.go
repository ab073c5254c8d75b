package fixture

import "github.com/syssam/fixture/merge"

// Params is a deep-partial override tree. Keys name fields of the built
// object (by Go name, `fixture` or `json` tag, or snake_case name) and nested
// Params merge recursively into nested objects. Slices, arrays and any other
// non-map value replace the target wholesale.
type Params = merge.Tree

// Associations are shallow overrides, typically related objects. Each value
// is assigned by reference, after Params were merged.
type Associations map[string]any

// Transient holds arbitrary per-call data read by generators. Transient
// values are never merged into the built object.
type Transient map[string]any

// Undefined is an override value that clears the target field to its zero
// value. Inside a map the key is kept, holding nil.
var Undefined = merge.Undefined

// Get returns m[key] as a V, or def when the key is missing or holds a
// value of another type.
//
//	admin := fixture.Get(o.Transient, "admin", false)
func Get[V any](m map[string]any, key string, def V) V {
	if v, ok := m[key].(V); ok {
		return v
	}
	return def
}
