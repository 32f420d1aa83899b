package ast

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DecodeError reports a malformed serialized tree.
type DecodeError struct {
	Line   int
	Column int
	Msg    string
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("tree %d:%d: %s", e.Line, e.Column, e.Msg)
	}
	return "tree: " + e.Msg
}

func decodeErr(v *yaml.Node, format string, a ...interface{}) *DecodeError {
	return &DecodeError{Line: v.Line, Column: v.Column, Msg: fmt.Sprintf(format, a...)}
}

// Load reads a serialized tree (YAML or JSON) from path.
func Load(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tree %s: %w", path, err)
	}
	root, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding tree %s: %w", path, err)
	}
	return root, nil
}

// Decode parses a serialized tree. A top-level sequence is read as the
// statements of a program block.
func Decode(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || (doc.Kind == yaml.DocumentNode && len(doc.Content) == 0) {
		return nil, &DecodeError{Msg: "empty document"}
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		root = root.Content[0]
	}
	if root.Kind == yaml.SequenceNode {
		prog := &Node{Kind: Block}
		for _, item := range root.Content {
			child, err := decodeNode(item)
			if err != nil {
				return nil, err
			}
			prog.Children = append(prog.Children, child)
		}
		return prog, nil
	}
	return decodeNode(root)
}

// UnmarshalYAML lets a Node be embedded in larger YAML documents.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	decoded, err := decodeNode(value)
	if err != nil {
		return err
	}
	*n = *decoded
	return nil
}

func decodeNode(v *yaml.Node) (*Node, error) {
	switch v.Kind {
	case yaml.DocumentNode:
		if len(v.Content) == 0 {
			return nil, decodeErr(v, "empty document")
		}
		return decodeNode(v.Content[0])
	case yaml.AliasNode:
		return decodeNode(v.Alias)
	case yaml.ScalarNode:
		switch v.Tag {
		case "!!int", "!!float":
			return &Node{Kind: Number, Text: v.Value}, nil
		case "!!null":
			return &Node{Kind: Null}, nil
		}
		return nil, decodeErr(v, "bare scalar %q: use {str: ...} or {id: ...}", v.Value)
	case yaml.SequenceNode:
		return nil, decodeErr(v, "unexpected sequence; children belong under a node's children key")
	case yaml.MappingNode:
		return decodeMapping(v)
	}
	return nil, decodeErr(v, "unsupported yaml node")
}

func decodeMapping(v *yaml.Node) (*Node, error) {
	if len(v.Content) == 2 {
		key, val := v.Content[0].Value, v.Content[1]
		switch key {
		case "id":
			return &Node{Kind: Identifier, Text: val.Value}, nil
		case "str":
			return &Node{Kind: String, Text: val.Value}, nil
		case "num":
			return &Node{Kind: Number, Text: val.Value}, nil
		}
	}

	n := &Node{}
	sawKind := false
	for i := 0; i+1 < len(v.Content); i += 2 {
		key, val := v.Content[i], v.Content[i+1]
		switch key.Value {
		case "kind":
			k, ok := ParseKind(val.Value)
			if !ok {
				return nil, decodeErr(val, "unknown node kind %q", val.Value)
			}
			n.Kind = k
			sawKind = true
		case "text":
			if val.Kind != yaml.ScalarNode {
				return nil, decodeErr(val, "text must be a scalar")
			}
			n.Text = val.Value
		case "children":
			if val.Kind != yaml.SequenceNode {
				return nil, decodeErr(val, "children must be a sequence")
			}
			for _, item := range val.Content {
				child, err := decodeNode(item)
				if err != nil {
					return nil, err
				}
				n.Children = append(n.Children, child)
			}
		default:
			return nil, decodeErr(key, "unknown field %q", key.Value)
		}
	}
	if !sawKind {
		return nil, decodeErr(v, "node without kind")
	}
	return n, nil
}
