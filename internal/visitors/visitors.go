// Package visitors implements the actions the treewalk CLI can run on every
// node of a filesystem walk.
package visitors

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/harrison/treewalk/internal/fsnode"
	"github.com/harrison/treewalk/internal/walker"
)

// Params carries what the visitors need besides the node itself.
type Params struct {
	Out  io.Writer // Destination for printed output (defaults to os.Stdout)
	Root string    // Root of the walked tree
	Dest string    // Target directory for the copy visitor
}

// Visitor is a named filesystem action. Finish is called once after the walk
// to flush buffered output; it may be nil.
type Visitor struct {
	Name   string
	Visit  walker.Visitor[*fsnode.Entry]
	Finish func() error
}

type factory func(p Params) (*Visitor, error)

var registry = map[string]factory{
	"list": newList,
	"hash": newHash,
	"stat": newStat,
	"copy": newCopy,
}

// Names returns the registered visitor names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the visitor registered under name.
func Lookup(name string, p Params) (*Visitor, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown visitor %q (available: %v)", name, Names())
	}
	if p.Out == nil {
		p.Out = os.Stdout
	}
	return f(p)
}

// lockedWriter serializes writes from concurrent visits so lines never interleave.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) printf(format string, args ...any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := fmt.Fprintf(l.w, format, args...)
	return err
}

func newList(p Params) (*Visitor, error) {
	out := &lockedWriter{w: p.Out}
	return &Visitor{
		Name: "list",
		Visit: func(ctx context.Context, e *fsnode.Entry) error {
			if e.Dir && e.RelPath != "." {
				return out.printf("%s/\n", e.RelPath)
			}
			return out.printf("%s\n", e.RelPath)
		},
	}, nil
}
