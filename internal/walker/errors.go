package walker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidArgument is returned when Walk is invoked with a nil root or visitor.
// Nothing is visited in that case.
var ErrInvalidArgument = errors.New("invalid argument")

// Phase identifies where in the processing of a node a failure occurred.
type Phase int

const (
	// PhaseVisit represents a failure returned (or panicked) by the visitor.
	PhaseVisit Phase = iota
	// PhaseExpand represents a failure while enumerating a container's children.
	PhaseExpand
)

// String returns the string representation of Phase.
func (p Phase) String() string {
	switch p {
	case PhaseVisit:
		return "visit"
	case PhaseExpand:
		return "expand"
	default:
		return "unknown"
	}
}

// NodeError represents a failure attributed to a single node.
type NodeError struct {
	Node      any       // The node that failed, as passed to the visitor
	Name      string    // Label of the node (see Options.Describe)
	Phase     Phase     // Visit or expand
	Err       error     // Underlying error
	Timestamp time.Time // When the failure was recorded
}

// NewNodeError creates a new NodeError with the current timestamp.
func NewNodeError(node any, name string, phase Phase, err error) *NodeError {
	return &NodeError{
		Node:      node,
		Name:      name,
		Phase:     phase,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface for NodeError.
func (e *NodeError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("node %s: %s failed", e.Name, e.Phase))
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// WalkError aggregates every node failure of a walk, plus the cancellation
// cause when the walk stopped early.
type WalkError struct {
	NodeErrors []*NodeError // Individual node failures, sorted by node name
	Visited    int          // Number of nodes whose visitor was invoked
	Failed     int          // Number of nodes with at least one failure
	Cause      error        // Cancellation cause (nil when the walk ran to the end)
}

// Error implements the error interface for WalkError.
func (e *WalkError) Error() string {
	var sb strings.Builder

	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf("walk cancelled after %d visits: %v", e.Visited, e.Cause))
		if e.Failed > 0 {
			sb.WriteString(fmt.Sprintf("; %d nodes failed", e.Failed))
		}
	} else {
		sb.WriteString(fmt.Sprintf("walk failed: %d/%d nodes failed", e.Failed, e.Visited))
	}

	if len(e.NodeErrors) > 0 {
		sb.WriteString(":")
		for _, nodeErr := range e.NodeErrors {
			sb.WriteString(fmt.Sprintf("\n  - %s", nodeErr.Error()))
		}
	}

	return sb.String()
}

// Unwrap returns the node errors and the cancellation cause so that
// errors.Is and errors.As can traverse the whole set.
func (e *WalkError) Unwrap() []error {
	errs := make([]error, 0, len(e.NodeErrors)+1)
	for _, nodeErr := range e.NodeErrors {
		errs = append(errs, nodeErr)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// IsNodeError checks if the error is or wraps a NodeError.
func IsNodeError(err error) bool {
	if err == nil {
		return false
	}
	var ne *NodeError
	return errors.As(err, &ne)
}

// IsWalkError checks if the error is or wraps a WalkError.
func IsWalkError(err error) bool {
	if err == nil {
		return false
	}
	var we *WalkError
	return errors.As(err, &we)
}

// IsCancelled reports whether the walk ended because its context was
// cancelled or its deadline passed.
func IsCancelled(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// FailedNodes returns the node failures carried by err, or nil.
func FailedNodes(err error) []*NodeError {
	var we *WalkError
	if errors.As(err, &we) {
		return we.NodeErrors
	}
	var ne *NodeError
	if errors.As(err, &ne) {
		return []*NodeError{ne}
	}
	return nil
}
