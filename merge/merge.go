// Package merge implements the override rules used to resolve factory output.
//
// A Tree is a deep-partial override keyed by field name. Merging a Tree onto
// a Go value walks it key by key:
//
//   - nested Tree (or map[string]any) values merge recursively into structs,
//     string-keyed maps, pointers to either, and interface values holding them;
//   - slices, arrays, byte buffers and every other value replace the target
//     wholesale, never element by element;
//   - Undefined clears the target (zero value, or a present key holding the
//     zero element for maps) instead of being skipped.
//
// The root object is modified in place. Nested pointers and maps reached by a
// merge are copied before they are written, so shared defaults returned by a
// generator are never modified through them.
//
// Usage:
//
//	user := &User{Name: "Ann", Address: Address{City: "Detroit", State: "MI"}}
//	err := merge.Into(&user, merge.Tree{
//	    "Address": merge.Tree{"City": "Ann Arbor"},
//	    "Name":    merge.Undefined,
//	})
//	// user.Name == "", user.Address == Address{City: "Ann Arbor", State: "MI"}
package merge

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"unsafe"
)

// Tree is a deep-partial override. Nested Tree and map[string]any values are
// plain objects and merge recursively; everything else is assigned whole.
type Tree map[string]any

// Unset is the type of Undefined.
type Unset struct{}

// Undefined marks a key whose target value must be erased.
var Undefined = Unset{}

// IsUndefined reports whether v is the Undefined marker.
func IsUndefined(v any) bool {
	_, ok := v.(Unset)
	return ok
}

// DefaultMaxDepth bounds the recursion of Into and Assign on
// self-referential inputs.
const DefaultMaxDepth = 64

var (
	// ErrTooDeep is returned when a merge recurses past the configured depth,
	// which in practice means the override references itself.
	ErrTooDeep = errors.New("merge: maximum depth exceeded")

	// ErrNotPointer is returned when the destination is not a non-nil pointer.
	ErrNotPointer = errors.New("merge: destination must be a non-nil pointer")
)

// Option configures a merge.
type Option func(*merger)

// WithMaxDepth sets the recursion limit. Non-positive values keep the default.
func WithMaxDepth(n int) Option {
	return func(m *merger) {
		if n > 0 {
			m.maxDepth = n
		}
	}
}

type merger struct {
	maxDepth int
}

func newMerger(opts []Option) *merger {
	m := &merger{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Trees deep-merges srcs left to right into a new Tree. Nested trees are
// copied, so neither the sources nor their subtrees are modified. Undefined
// markers are kept so they still erase when the result is merged onto an
// object. A subtree reachable more than once is copied once: shared subtrees
// stay shared in the result and a cycle in a source is a cycle in the result,
// which Into then rejects with ErrTooDeep.
func Trees(srcs ...Tree) Tree {
	out := Tree{}
	c := &copier{
		clones: make(map[unsafe.Pointer]Tree),
		merged: make(map[[2]unsafe.Pointer]bool),
	}
	for _, src := range srcs {
		c.merge(out, src)
	}
	return out
}

// copier remembers the subtrees a Trees call has already visited.
type copier struct {
	clones map[unsafe.Pointer]Tree
	merged map[[2]unsafe.Pointer]bool
}

func (c *copier) merge(dst, src Tree) {
	for k, sv := range src {
		sub, ok := AsTree(sv)
		if !ok {
			dst[k] = sv
			continue
		}
		cur, ok := dst[k].(Tree)
		if !ok {
			dst[k] = c.clone(sub)
			continue
		}
		pair := [2]unsafe.Pointer{mapPointer(cur), mapPointer(sub)}
		if c.merged[pair] {
			continue
		}
		c.merged[pair] = true
		c.merge(cur, sub)
	}
}

func (c *copier) clone(t Tree) Tree {
	if len(t) == 0 {
		return make(Tree)
	}
	ptr := mapPointer(t)
	if out, ok := c.clones[ptr]; ok {
		return out
	}
	out := make(Tree, len(t))
	c.clones[ptr] = out
	for k, v := range t {
		if sub, ok := AsTree(v); ok {
			out[k] = c.clone(sub)
			continue
		}
		out[k] = v
	}
	return out
}

func mapPointer(t Tree) unsafe.Pointer {
	return reflect.ValueOf(t).UnsafePointer()
}

// AsTree reports whether v is a plain object and returns it as a Tree.
func AsTree(v any) (Tree, bool) {
	switch t := v.(type) {
	case Tree:
		return t, true
	case map[string]any:
		return Tree(t), true
	}
	return nil, false
}

// Into deep-merges src onto the value dst points to.
func Into(dst any, src Tree, opts ...Option) error {
	if len(src) == 0 {
		return nil
	}
	v, err := target(dst)
	if err != nil {
		return err
	}
	return newMerger(opts).tree(v, src, "", 0, true)
}

// Assign shallow-merges src onto the value dst points to: each key is
// assigned whole, without recursing into the existing value.
func Assign(dst any, src map[string]any, opts ...Option) error {
	if len(src) == 0 {
		return nil
	}
	v, err := target(dst)
	if err != nil {
		return err
	}
	m := newMerger(opts)
	obj, commit, err := m.object(v, true)
	if err != nil {
		return err
	}
	for _, key := range slices.Sorted(maps.Keys(src)) {
		if err := m.set(obj, key, "", func(f reflect.Value, p string) error {
			if IsUndefined(src[key]) {
				f.SetZero()
				return nil
			}
			return m.assign(f, src[key], p, 1)
		}); err != nil {
			return err
		}
	}
	commit()
	return nil
}

// Default assigns value to key on the object dst points to when the current
// value there is the zero value. It reports whether the value was written.
func Default(dst any, key string, value any) (bool, error) {
	v, err := target(dst)
	if err != nil {
		return false, err
	}
	m := newMerger(nil)
	obj, commit, err := m.object(v, true)
	if err != nil {
		return false, err
	}
	var written bool
	err = m.set(obj, key, "", func(f reflect.Value, p string) error {
		if !f.IsZero() {
			return nil
		}
		written = true
		return m.assign(f, value, p, 1)
	})
	if err != nil {
		return false, err
	}
	if written {
		commit()
	}
	return written, nil
}

func target(dst any) (reflect.Value, error) {
	rv := reflect.ValueOf(dst)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return reflect.Value{}, ErrNotPointer
	}
	return rv.Elem(), nil
}

// object resolves v to a struct or string-keyed map that keys can be set on.
// Writes through nested pointers and maps go to copies unless root is set;
// commit stores the copies back into v.
func (m *merger) object(v reflect.Value, root bool) (reflect.Value, func(), error) {
	noop := func() {}
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			p := reflect.New(v.Type().Elem())
			obj, commit, err := m.object(p.Elem(), true)
			return obj, func() { commit(); v.Set(p) }, err
		}
		if root {
			return m.object(v.Elem(), true)
		}
		p := reflect.New(v.Type().Elem())
		p.Elem().Set(v.Elem())
		obj, commit, err := m.object(p.Elem(), true)
		return obj, func() { commit(); v.Set(p) }, err
	case reflect.Interface:
		if v.IsNil() {
			mp := reflect.ValueOf(map[string]any{})
			if !mp.Type().AssignableTo(v.Type()) {
				return reflect.Value{}, noop, &TypeError{Want: v.Type(), Got: Tree{}}
			}
			return mp, func() { v.Set(mp) }, nil
		}
		cp := reflect.New(v.Elem().Type()).Elem()
		cp.Set(v.Elem())
		obj, commit, err := m.object(cp, root)
		return obj, func() { commit(); v.Set(cp) }, err
	case reflect.Struct:
		return v, noop, nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return reflect.Value{}, noop, &TypeError{Want: v.Type(), Got: Tree{}}
		}
		if root && !v.IsNil() {
			return v, noop, nil
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		return out, func() { v.Set(out) }, nil
	}
	return reflect.Value{}, noop, &TypeError{Want: v.Type(), Got: Tree{}}
}

// set resolves key on obj and hands the settable slot to fn. For maps the
// slot is a temporary that is stored back after fn returns.
func (m *merger) set(obj reflect.Value, key, path string, fn func(reflect.Value, string) error) error {
	p := join(path, key)
	if obj.Kind() == reflect.Struct {
		f, err := field(obj, key, p)
		if err != nil {
			return err
		}
		return fn(f, p)
	}
	kv := reflect.ValueOf(key).Convert(obj.Type().Key())
	elem := reflect.New(obj.Type().Elem()).Elem()
	if cur := obj.MapIndex(kv); cur.IsValid() {
		elem.Set(cur)
	}
	if err := fn(elem, p); err != nil {
		return err
	}
	obj.SetMapIndex(kv, elem)
	return nil
}

func (m *merger) tree(v reflect.Value, src Tree, path string, depth int, root bool) error {
	if depth > m.maxDepth {
		return fmt.Errorf("%w at %q", ErrTooDeep, path)
	}
	obj, commit, err := m.object(v, root)
	if err != nil {
		var te *TypeError
		if errors.As(err, &te) {
			te.Path = path
		}
		return err
	}
	for _, key := range slices.Sorted(maps.Keys(src)) {
		sv := src[key]
		if err := m.set(obj, key, path, func(f reflect.Value, p string) error {
			return m.value(f, sv, p, depth+1)
		}); err != nil {
			return err
		}
	}
	commit()
	return nil
}

func (m *merger) value(v reflect.Value, sv any, path string, depth int) error {
	if depth > m.maxDepth {
		return fmt.Errorf("%w at %q", ErrTooDeep, path)
	}
	if IsUndefined(sv) {
		v.SetZero()
		return nil
	}
	if t, ok := AsTree(sv); ok && mergeable(v) {
		return m.tree(v, t, path, depth, false)
	}
	return m.assign(v, sv, path, depth)
}

// mergeable reports whether a plain object can merge into v rather than
// replace it.
func mergeable(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Struct:
		return true
	case reflect.Map:
		return v.Type().Key().Kind() == reflect.String
	case reflect.Pointer:
		switch v.Type().Elem().Kind() {
		case reflect.Struct:
			return true
		case reflect.Map:
			return v.Type().Elem().Key().Kind() == reflect.String
		}
	case reflect.Interface:
		return !v.IsNil() && mergeable(v.Elem())
	}
	return false
}

// assign replaces v with sv, converting between compatible kinds.
func (m *merger) assign(v reflect.Value, sv any, path string, depth int) error {
	if depth > m.maxDepth {
		return fmt.Errorf("%w at %q", ErrTooDeep, path)
	}
	if sv == nil {
		switch v.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			v.SetZero()
			return nil
		}
		return &TypeError{Path: path, Want: v.Type(), Got: sv}
	}
	if t, ok := AsTree(sv); ok {
		out, err := m.materialize(t, path, depth)
		if err != nil {
			return err
		}
		sv = out
	}
	sr := reflect.ValueOf(sv)
	switch {
	case sr.Type().AssignableTo(v.Type()):
		v.Set(sr)
		return nil
	case v.Kind() == reflect.Pointer && sr.Type().AssignableTo(v.Type().Elem()):
		p := reflect.New(v.Type().Elem())
		p.Elem().Set(sr)
		v.Set(p)
		return nil
	case isList(sr.Kind()) && isList(v.Kind()):
		return m.list(v, sr, path, depth)
	}
	if out, ok := convert(sr, v.Type()); ok {
		v.Set(out)
		return nil
	}
	return &TypeError{Path: path, Want: v.Type(), Got: sv}
}

// list replaces v with a new slice or array built from the elements of sr.
func (m *merger) list(v, sr reflect.Value, path string, depth int) error {
	n := sr.Len()
	var out reflect.Value
	switch v.Kind() {
	case reflect.Slice:
		out = reflect.MakeSlice(v.Type(), n, n)
	default:
		if v.Len() != n {
			return &TypeError{Path: path, Want: v.Type(), Got: sr.Interface()}
		}
		out = reflect.New(v.Type()).Elem()
	}
	for i := range n {
		if err := m.value(out.Index(i), sr.Index(i).Interface(), fmt.Sprintf("%s[%d]", path, i), depth+1); err != nil {
			return err
		}
	}
	v.Set(out)
	return nil
}

// materialize turns a plain object into a map[string]any with Undefined
// markers resolved to present nil keys.
func (m *merger) materialize(t Tree, path string, depth int) (map[string]any, error) {
	if depth > m.maxDepth {
		return nil, fmt.Errorf("%w at %q", ErrTooDeep, path)
	}
	out := make(map[string]any, len(t))
	for k, v := range t {
		switch {
		case IsUndefined(v):
			out[k] = nil
		default:
			if sub, ok := AsTree(v); ok {
				mv, err := m.materialize(sub, join(path, k), depth+1)
				if err != nil {
					return nil, err
				}
				out[k] = mv
				continue
			}
			out[k] = v
		}
	}
	return out, nil
}

func isList(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Array
}

// convert performs lossless conversions between scalar kinds of the same
// family (numbers, strings, bools). It never turns numbers into strings.
func convert(sr reflect.Value, t reflect.Type) (reflect.Value, bool) {
	switch {
	case isInt(sr.Kind()) && isInt(t.Kind()):
		n := sr.Int()
		out := reflect.New(t).Elem()
		if out.OverflowInt(n) {
			return reflect.Value{}, false
		}
		out.SetInt(n)
		return out, true
	case isUint(sr.Kind()) && isUint(t.Kind()):
		n := sr.Uint()
		out := reflect.New(t).Elem()
		if out.OverflowUint(n) {
			return reflect.Value{}, false
		}
		out.SetUint(n)
		return out, true
	case isInt(sr.Kind()) && isUint(t.Kind()):
		n := sr.Int()
		out := reflect.New(t).Elem()
		if n < 0 || out.OverflowUint(uint64(n)) {
			return reflect.Value{}, false
		}
		out.SetUint(uint64(n))
		return out, true
	case isUint(sr.Kind()) && isInt(t.Kind()):
		n := sr.Uint()
		out := reflect.New(t).Elem()
		if n > math.MaxInt64 || out.OverflowInt(int64(n)) {
			return reflect.Value{}, false
		}
		out.SetInt(int64(n))
		return out, true
	case (isInt(sr.Kind()) || isUint(sr.Kind()) || isFloat(sr.Kind())) && isFloat(t.Kind()):
		return sr.Convert(t), true
	case isFloat(sr.Kind()) && isInt(t.Kind()):
		f := sr.Float()
		out := reflect.New(t).Elem()
		if f != math.Trunc(f) || f < math.MinInt64 || f > math.MaxInt64 || out.OverflowInt(int64(f)) {
			return reflect.Value{}, false
		}
		out.SetInt(int64(f))
		return out, true
	case sr.Kind() == reflect.String && t.Kind() == reflect.String,
		sr.Kind() == reflect.Bool && t.Kind() == reflect.Bool:
		return sr.Convert(t), true
	}
	return reflect.Value{}, false
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
