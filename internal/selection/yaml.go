package selection

import (
	"gopkg.in/yaml.v3"

	"github.com/roach88/squint/internal/qerr"
)

// DecodeYAML converts a YAML node into the selection mini-language:
//
//	value                  → "value"
//	[a, [b, c]]            → List{"a", Tuple{"b", "c"}}
//	!!set {a}              → SetOf{"a"}
//	{a: b}                 → Dict{{Key: "a", Value: "b"}}
//	{? [a, b] : c}         → Dict{{Key: Tuple{"a", "b"}, Value: "c"}}
//
// The result still needs Normalize.
func DecodeYAML(node *yaml.Node) (any, error) {
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, qerr.Validation("empty selection document")
		}
		return DecodeYAML(node.Content[0])
	}

	switch node.Kind {
	case yaml.ScalarNode:
		return node.Value, nil

	case yaml.SequenceNode:
		list := make(List, 0, len(node.Content))
		for _, child := range node.Content {
			elem, err := decodeElem(child)
			if err != nil {
				return nil, err
			}
			list = append(list, elem)
		}
		return list, nil

	case yaml.MappingNode:
		if node.Tag == "!!set" {
			set := make(SetOf, 0, len(node.Content)/2)
			for i := 0; i < len(node.Content); i += 2 {
				elem, err := decodeElem(node.Content[i])
				if err != nil {
					return nil, err
				}
				set = append(set, elem)
			}
			return set, nil
		}

		dict := make(Dict, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, err := decodeElem(node.Content[i])
			if err != nil {
				return nil, err
			}
			val, err := DecodeYAML(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			dict = append(dict, Entry{Key: key, Value: val})
		}
		return dict, nil

	case yaml.AliasNode:
		return DecodeYAML(node.Alias)
	}
	return nil, qerr.Validation("unsupported selection node at line %d", node.Line)
}

// decodeElem decodes one element: a field name or a tuple of field names.
func decodeElem(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Value, nil
	case yaml.SequenceNode:
		tuple := make(Tuple, 0, len(node.Content))
		for _, child := range node.Content {
			if child.Kind != yaml.ScalarNode {
				return nil, qerr.Validation("expected field name at line %d", child.Line)
			}
			tuple = append(tuple, child.Value)
		}
		return tuple, nil
	case yaml.AliasNode:
		return decodeElem(node.Alias)
	}
	return nil, qerr.Validation("expected field name or tuple at line %d", node.Line)
}
