package presets

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/syssam/fixture"
)

// UnsetTag marks a YAML value as fixture.Undefined.
const UnsetTag = "!unset"

// ParseYAML parses a YAML preset document.
func ParseYAML(data []byte) (Set, error) {
	return LoadYAML(bytes.NewReader(data))
}

// LoadYAML reads a YAML preset document from r.
func LoadYAML(r io.Reader) (Set, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return Set{}, nil
		}
		return nil, err
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return Set{}, nil
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("presets: line %d: expected a mapping of presets", root.Line)
	}
	s := make(Set, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name, node := root.Content[i].Value, root.Content[i+1]
		if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
			s[name] = fixture.Params{}
			continue
		}
		v, err := decodeNode(node)
		if err != nil {
			return nil, err
		}
		p, ok := v.(fixture.Params)
		if !ok {
			return nil, fmt.Errorf("presets: line %d: preset %q must be a mapping", node.Line, name)
		}
		s[name] = p
	}
	return s, nil
}

// decodeNode turns a YAML node into params values: mappings become
// fixture.Params, sequences []any.
func decodeNode(n *yaml.Node) (any, error) {
	if n.Tag == UnsetTag {
		return fixture.Undefined, nil
	}
	switch n.Kind {
	case yaml.AliasNode:
		return decodeNode(n.Alias)
	case yaml.MappingNode:
		p := make(fixture.Params, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("presets: line %d: keys must be scalars", k.Line)
			}
			v, err := decodeNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			p[k.Value] = v
		}
		return p, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := decodeNode(c)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}
