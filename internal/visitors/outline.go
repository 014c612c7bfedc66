package visitors

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
)

// OutlineNode is a document node that can be printed in an outline.
type OutlineNode interface {
	Depth() int
	Position() []int
	Label() string
}

type outlineLine struct {
	position []int
	depth    int
	label    string
}

// Outliner collects document nodes visited in any order and prints them in
// document order, indented by depth.
type Outliner[N OutlineNode] struct {
	mu    sync.Mutex
	lines []outlineLine
}

// NewOutliner creates an empty Outliner.
func NewOutliner[N OutlineNode]() *Outliner[N] {
	return &Outliner[N]{}
}

// Visit records n.
func (o *Outliner[N]) Visit(ctx context.Context, n N) error {
	line := outlineLine{position: n.Position(), depth: n.Depth(), label: n.Label()}
	o.mu.Lock()
	o.lines = append(o.lines, line)
	o.mu.Unlock()
	return nil
}

// Flush writes the collected outline to w.
func (o *Outliner[N]) Flush(w io.Writer) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	slices.SortFunc(o.lines, func(a, b outlineLine) int {
		return slices.Compare(a.position, b.position)
	})
	for _, line := range o.lines {
		if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", line.depth), line.label); err != nil {
			return err
		}
	}
	return nil
}
