package walker

import (
	"context"
	"fmt"
	"reflect"
)

// Node is the capability a tree element must provide to be walked.
// The type parameter is the node type itself, so a concrete type T
// satisfies Node[T] when its Children method returns []T.
type Node[N any] interface {
	// IsContainer reports whether the node may have children. Children is
	// never called on a node that is not a container.
	IsContainer() bool

	// Children returns the direct children of a container. An empty result is
	// valid (e.g. an empty directory). An error is recorded as an expand
	// failure of this node; any children returned alongside it are still walked.
	Children() ([]N, error)
}

// Visitor is invoked exactly once for every node reachable from the root.
// A returned error is collected and reported when the walk completes; it does
// not stop the walk.
type Visitor[N any] func(ctx context.Context, node N) error

// describe returns a human-readable label for a node.
func describe(node any, custom func(node any) string) string {
	if custom != nil {
		return custom(node)
	}
	if s, ok := node.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", node)
}

// isNil reports whether v is nil or a typed nil reference.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
