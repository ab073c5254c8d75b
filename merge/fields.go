package merge

import (
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
)

// fieldIndex maps every accepted key of a struct type to its field index.
type fieldIndex struct {
	keys   map[string][]int
	folded map[string][]int
}

// indexes caches fieldIndex values per struct type.
var indexes sync.Map // map[reflect.Type]*fieldIndex

// fieldsOf returns the key index of struct type t. A field is reachable by
// its Go name, its `fixture` tag, its `json` tag and its snake_case name, in
// that order of precedence; a case-folded key is the last resort.
func fieldsOf(t reflect.Type) *fieldIndex {
	if fi, ok := indexes.Load(t); ok {
		return fi.(*fieldIndex)
	}
	fi := &fieldIndex{
		keys:   make(map[string][]int),
		folded: make(map[string][]int),
	}
	var fields []reflect.StructField
	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() || tagName(sf.Tag.Get("fixture")) == "-" {
			continue
		}
		fields = append(fields, sf)
	}
	add := func(key string, index []int) {
		if key == "" || key == "-" {
			return
		}
		if _, ok := fi.keys[key]; !ok {
			fi.keys[key] = index
		}
	}
	for _, sf := range fields {
		add(sf.Name, sf.Index)
	}
	for _, sf := range fields {
		add(tagName(sf.Tag.Get("fixture")), sf.Index)
		add(tagName(sf.Tag.Get("json")), sf.Index)
	}
	for _, sf := range fields {
		add(inflect.Underscore(sf.Name), sf.Index)
	}
	fold := cases.Fold()
	for _, key := range slices.Sorted(maps.Keys(fi.keys)) {
		index := fi.keys[key]
		folded := fold.String(key)
		if cur, ok := fi.folded[folded]; !ok || len(index) < len(cur) {
			fi.folded[folded] = index
		}
	}
	actual, _ := indexes.LoadOrStore(t, fi)
	return actual.(*fieldIndex)
}

func tagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	return name
}

// field returns the settable field of struct v addressed by key, allocating
// nil embedded pointers on the way.
func field(v reflect.Value, key, path string) (reflect.Value, error) {
	st := v.Type()
	fi := fieldsOf(st)
	index, ok := fi.keys[key]
	if !ok {
		index, ok = fi.folded[cases.Fold().String(key)]
	}
	if !ok {
		return reflect.Value{}, &FieldError{Type: st, Key: key, Path: path}
	}
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, &FieldError{Type: st, Key: key, Path: path, Reason: "embedded pointer is nil and unexported"}
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	if !v.CanSet() {
		return reflect.Value{}, &FieldError{Type: st, Key: key, Path: path, Reason: "field cannot be set"}
	}
	return v, nil
}
