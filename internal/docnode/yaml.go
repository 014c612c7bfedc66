package docnode

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLNode is a node of a parsed YAML document. Documents, mappings and
// sequences are containers; scalars and aliases are leaves. Aliases are
// never followed.
type YAMLNode struct {
	node     *yaml.Node
	path     string
	position []int
}

// ParseYAML parses a single YAML document and returns its document node.
func ParseYAML(data []byte) (*YAMLNode, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if doc.Kind == 0 {
		// Empty input decodes to a zero node.
		doc.Kind = yaml.DocumentNode
	}
	return &YAMLNode{node: &doc, path: "$"}, nil
}

// IsContainer reports whether the node holds other nodes.
func (y *YAMLNode) IsContainer() bool {
	switch y.node.Kind {
	case yaml.DocumentNode, yaml.MappingNode, yaml.SequenceNode:
		return true
	default:
		return false
	}
}

// Children returns the values of a mapping (keyed by their dotted path),
// the items of a sequence, or the content of a document.
func (y *YAMLNode) Children() ([]*YAMLNode, error) {
	var children []*YAMLNode

	switch y.node.Kind {
	case yaml.DocumentNode:
		for i, c := range y.node.Content {
			children = append(children, y.child(c, y.path, i))
		}

	case yaml.SequenceNode:
		for i, c := range y.node.Content {
			children = append(children, y.child(c, fmt.Sprintf("%s[%d]", y.path, i), i))
		}

	case yaml.MappingNode:
		if len(y.node.Content)%2 != 0 {
			return nil, fmt.Errorf("malformed mapping at line %d: odd number of nodes", y.node.Line)
		}
		for i := 0; i+1 < len(y.node.Content); i += 2 {
			key := y.node.Content[i]
			children = append(children, y.child(y.node.Content[i+1], y.path+"."+keyLabel(key), i/2))
		}
	}

	return children, nil
}

func (y *YAMLNode) child(n *yaml.Node, path string, index int) *YAMLNode {
	position := make([]int, len(y.position)+1)
	copy(position, y.position)
	position[len(y.position)] = index
	return &YAMLNode{node: n, path: path, position: position}
}

// Kind returns "document", "mapping", "sequence", "scalar" or "alias".
func (y *YAMLNode) Kind() string {
	switch y.node.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}

// Path returns the dotted path of the node, e.g. "$.server.ports[0]".
func (y *YAMLNode) Path() string {
	return y.path
}

// Value returns the scalar value, or the anchor name for an alias.
func (y *YAMLNode) Value() string {
	return y.node.Value
}

// Line returns the 1-based source line of the node.
func (y *YAMLNode) Line() int {
	return y.node.Line
}

// Depth returns the distance from the document node.
func (y *YAMLNode) Depth() int {
	return len(y.position)
}

// Position returns the child indexes leading from the document to this node.
func (y *YAMLNode) Position() []int {
	return y.position
}

// Label returns a one-line description of the node.
func (y *YAMLNode) Label() string {
	switch y.node.Kind {
	case yaml.ScalarNode:
		return fmt.Sprintf("%s = %s", y.path, truncate(y.node.Value))
	case yaml.AliasNode:
		return fmt.Sprintf("%s -> *%s", y.path, y.node.Value)
	default:
		return fmt.Sprintf("%s (%s)", y.path, y.Kind())
	}
}

// String returns the node's path.
func (y *YAMLNode) String() string {
	return y.path
}

// keyLabel renders a mapping key for use in a dotted path.
func keyLabel(key *yaml.Node) string {
	if key.Kind != yaml.ScalarNode {
		return fmt.Sprintf("<%s@%d>", (&YAMLNode{node: key}).Kind(), key.Line)
	}
	if strings.ContainsAny(key.Value, ".[] ") {
		return fmt.Sprintf("%q", key.Value)
	}
	return key.Value
}
