// Package walker visits every node of a tree with bounded parallelism.
//
// A node is visited before any of its children are scheduled. Children of a
// container are dispatched through a weighted semaphore holding at most
// MaxDegreeOfParallelism slots; visited containers wait in a backlog until an
// expansion loop picks them up. The walk completes when no visit holds a
// slot, the backlog is empty and no expansion loop is running. That state is
// checked under a single mutex by whichever goroutine last changes it, so
// completion is signalled exactly once and never polled for.
package walker
