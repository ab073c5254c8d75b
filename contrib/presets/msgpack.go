package presets

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/fixture"
	"github.com/syssam/fixture/merge"
)

// unsetExtID is the MessagePack extension type carrying fixture.Undefined.
const unsetExtID = 1

// unset is the wire form of fixture.Undefined.
type unset struct{}

func (*unset) MarshalMsgpack() ([]byte, error) { return nil, nil }

func (*unset) UnmarshalMsgpack([]byte) error { return nil }

func init() {
	msgpack.RegisterExt(unsetExtID, (*unset)(nil))
}

// EncodeMsgpack encodes s as MessagePack. fixture.Undefined values survive
// the round trip.
func EncodeMsgpack(s Set) ([]byte, error) {
	out := make(map[string]any, len(s))
	for name, p := range s {
		out[name] = toWire(p)
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeMsgpack decodes a MessagePack preset document. Integers decode as
// int64 and unsigned integers as uint64.
func DecodeMsgpack(data []byte) (Set, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	s := make(Set, len(raw))
	for name, v := range raw {
		switch p := fromWire(v).(type) {
		case fixture.Params:
			s[name] = p
		case nil:
			s[name] = fixture.Params{}
		default:
			return nil, &NotMappingError{Name: name}
		}
	}
	return s, nil
}

// NotMappingError is returned when a decoded preset is not a mapping.
type NotMappingError struct {
	Name string
}

// Error returns the error string.
func (e *NotMappingError) Error() string {
	return fmt.Sprintf("presets: preset %q must be a mapping", e.Name)
}

func toWire(v any) any {
	if merge.IsUndefined(v) {
		return &unset{}
	}
	if t, ok := merge.AsTree(v); ok {
		out := make(map[string]any, len(t))
		for k, sv := range t {
			out[k] = toWire(sv)
		}
		return out
	}
	if list, ok := v.([]any); ok {
		out := make([]any, len(list))
		for i, sv := range list {
			out[i] = toWire(sv)
		}
		return out
	}
	return v
}

func fromWire(v any) any {
	switch v := v.(type) {
	case *unset, unset:
		return fixture.Undefined
	case map[string]any:
		p := make(fixture.Params, len(v))
		for k, sv := range v {
			p[k] = fromWire(sv)
		}
		return p
	case []any:
		out := make([]any, len(v))
		for i, sv := range v {
			out[i] = fromWire(sv)
		}
		return out
	}
	return v
}
