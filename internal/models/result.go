package models

import "time"

// VisitStatus describes the outcome of a single node visit.
type VisitStatus string

// Visit status constants
const (
	StatusVisited VisitStatus = "VISITED" // Visitor returned without error
	StatusFailed  VisitStatus = "FAILED"  // Visitor (or child enumeration) failed
)

// VisitResult represents the result of visiting a single node
type VisitResult struct {
	Node      string        // Human-readable node label
	Depth     int           // Distance from the root (root = 0)
	Container bool          // Whether the node may have children
	Status    VisitStatus   // VISITED or FAILED
	Phase     string        // "visit" or "expand" for failures, empty otherwise
	Error     error         // Error if the visit failed
	Duration  time.Duration // Time spent inside the visitor
}

// Failed reports whether the visit ended in a failure.
func (r VisitResult) Failed() bool {
	return r.Status == StatusFailed
}

// WalkSummary represents the aggregate result of walking a tree
type WalkSummary struct {
	Root        string        // Label of the root node
	Parallelism int           // Effective max degree of parallelism
	Visited     int           // Nodes whose visitor was invoked (success or failure)
	Failed      int           // Nodes with at least one recorded failure
	Dispatched  int           // Child visits dispatched through the concurrency gate
	MaxInFlight int           // Highest number of concurrently held gate slots
	Duration    time.Duration // Total walk time
	Cancelled   bool          // Whether the walk stopped because its context ended
	Failures    []VisitResult // Details of failed nodes
}

// Succeeded returns the number of visits that completed without error.
func (s WalkSummary) Succeeded() int {
	ok := s.Visited - s.Failed
	if ok < 0 {
		return 0
	}
	return ok
}

// SuccessRate returns the fraction of visited nodes that succeeded, in [0,1].
// An empty walk reports 0.
func (s WalkSummary) SuccessRate() float64 {
	if s.Visited == 0 {
		return 0
	}
	return float64(s.Succeeded()) / float64(s.Visited)
}
