package walker

import (
	"fmt"
	"strings"

	"github.com/harrison/treewalk/internal/models"
)

// DefaultMaxDegreeOfParallelism is used when Options.MaxDegreeOfParallelism is zero.
const DefaultMaxDegreeOfParallelism = 5

// Order selects which pending container is expanded next.
type Order int

const (
	// OrderLIFO expands the most recently visited container first. This keeps
	// the backlog small on deep trees.
	OrderLIFO Order = iota
	// OrderFIFO expands containers in the order their visits completed.
	OrderFIFO
)

// String returns the string representation of Order.
func (o Order) String() string {
	switch o {
	case OrderLIFO:
		return "lifo"
	case OrderFIFO:
		return "fifo"
	default:
		return "unknown"
	}
}

// ParseOrder converts "lifo" or "fifo" (case-insensitive) into an Order.
// An empty string yields OrderLIFO.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lifo":
		return OrderLIFO, nil
	case "fifo":
		return OrderFIFO, nil
	default:
		return OrderLIFO, fmt.Errorf("%w: unknown order %q (must be lifo or fifo)", ErrInvalidArgument, s)
	}
}

// Logger receives progress events from a walk. All methods may be called
// from multiple goroutines concurrently.
type Logger interface {
	LogWalkStart(root string, parallelism int)
	LogVisit(result models.VisitResult) error
	LogWalkComplete(summary models.WalkSummary)
}

// Options configures a walk. The zero value is valid.
type Options struct {
	// MaxDegreeOfParallelism bounds the number of concurrently running child
	// visits. Zero selects DefaultMaxDegreeOfParallelism; negative values are
	// treated as 1.
	MaxDegreeOfParallelism int

	// Order selects the backlog discipline.
	Order Order

	// AbortSubtreeOnFailure skips the children of a container whose visitor
	// failed. By default such containers are still expanded.
	AbortSubtreeOnFailure bool

	// Logger is optional and can be nil to disable logging.
	Logger Logger

	// Describe labels nodes in errors and log events. Defaults to
	// fmt.Stringer, then %v.
	Describe func(node any) string
}

// Parallelism returns the effective max degree of parallelism.
func (o Options) Parallelism() int {
	switch {
	case o.MaxDegreeOfParallelism == 0:
		return DefaultMaxDegreeOfParallelism
	case o.MaxDegreeOfParallelism < 0:
		return 1
	default:
		return o.MaxDegreeOfParallelism
	}
}
