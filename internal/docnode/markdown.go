package docnode

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// maxLabelText bounds the inline text shown in a node label.
const maxLabelText = 48

// MarkdownNode is a node of a parsed Markdown document.
type MarkdownNode struct {
	node     ast.Node
	source   []byte
	path     string
	position []int
}

// ParseMarkdown parses source with goldmark and returns the document node.
func ParseMarkdown(source []byte) *MarkdownNode {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))
	return &MarkdownNode{
		node:   doc,
		source: source,
		path:   doc.Kind().String(),
	}
}

// IsContainer reports whether the node is the document or has children.
func (m *MarkdownNode) IsContainer() bool {
	return m.node.Kind() == ast.KindDocument || m.node.HasChildren()
}

// Children returns the node's direct children in document order.
func (m *MarkdownNode) Children() ([]*MarkdownNode, error) {
	var children []*MarkdownNode
	i := 0
	for c := m.node.FirstChild(); c != nil; c = c.NextSibling() {
		position := make([]int, len(m.position)+1)
		copy(position, m.position)
		position[len(m.position)] = i

		children = append(children, &MarkdownNode{
			node:     c,
			source:   m.source,
			path:     fmt.Sprintf("%s/%s[%d]", m.path, c.Kind().String(), i),
			position: position,
		})
		i++
	}
	return children, nil
}

// Kind returns the goldmark kind name, e.g. "Heading" or "Paragraph".
func (m *MarkdownNode) Kind() string {
	return m.node.Kind().String()
}

// Depth returns the distance from the document node.
func (m *MarkdownNode) Depth() int {
	return len(m.position)
}

// Position returns the child indexes leading from the document to this node.
func (m *MarkdownNode) Position() []int {
	return m.position
}

// HeadingLevel returns the level of a heading node, or 0.
func (m *MarkdownNode) HeadingLevel() int {
	if h, ok := m.node.(*ast.Heading); ok {
		return h.Level
	}
	return 0
}

// Text returns the concatenated inline text below the node.
func (m *MarkdownNode) Text() string {
	var buf bytes.Buffer
	_ = ast.Walk(m.node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(m.source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// Label returns a one-line description of the node.
func (m *MarkdownNode) Label() string {
	kind := m.Kind()
	if level := m.HeadingLevel(); level > 0 {
		kind = fmt.Sprintf("%s(%d)", kind, level)
	}

	switch m.node.Type() {
	case ast.TypeDocument:
		return kind
	case ast.TypeBlock:
		if s := truncate(m.Text()); s != "" {
			return fmt.Sprintf("%s: %s", kind, s)
		}
	}
	return kind
}

// String returns the node's path from the document, e.g. "Document/Heading[0]".
func (m *MarkdownNode) String() string {
	return m.path
}

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxLabelText {
		return s
	}
	cut := maxLabelText - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
