package walker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/harrison/treewalk/internal/models"
)

var tracer = otel.Tracer("internal/walker")

// ErrVisitorPanic wraps a panic recovered from a visitor or a Children call.
var ErrVisitorPanic = errors.New("panic recovered")

// ErrNilChild is recorded when a container reports a nil child.
var ErrNilChild = errors.New("nil child")

// Walk visits root and every node reachable from it exactly once, invoking
// visit on each. A container's visitor always returns before any of its
// children is visited; beyond that, visits run concurrently, bounded by
// Options.MaxDegreeOfParallelism.
//
// Walk blocks until every visit has finished. Visitor failures do not stop
// the walk; they are returned together as a *WalkError. Cancelling ctx stops
// dispatching new visits, waits for in-flight ones and returns a *WalkError
// wrapping ctx.Err().
func Walk[N Node[N]](ctx context.Context, root N, visit Visitor[N], opts Options) error {
	_, err := Run(ctx, root, visit, opts)
	return err
}

// Run is Walk plus walk statistics.
func Run[N Node[N]](ctx context.Context, root N, visit Visitor[N], opts Options) (models.WalkSummary, error) {
	if isNil(root) {
		return models.WalkSummary{}, fmt.Errorf("%w: root node is nil", ErrInvalidArgument)
	}
	if visit == nil {
		return models.WalkSummary{}, fmt.Errorf("%w: visitor is nil", ErrInvalidArgument)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	e := newEngine(visit, opts)
	start := time.Now()
	rootName := e.describe(root)

	if e.logger != nil {
		e.logger.LogWalkStart(rootName, e.limit)
	}

	if err := ctx.Err(); err != nil {
		e.mu.Lock()
		e.cancelLocked(err)
		e.mu.Unlock()
	} else {
		// The root is visited on the caller's goroutine and holds no slot.
		it := item[N]{node: root}
		it.failed = !e.visitNode(ctx, &it)
		if e.shouldExpand(it) {
			e.mu.Lock()
			e.expanding++
			e.mu.Unlock()
			e.expand(ctx, it)
		}
	}

	e.finishIfIdle()
	<-e.done
	e.wg.Wait()

	summary, err := e.outcome(rootName, time.Since(start))
	if e.logger != nil {
		e.logger.LogWalkComplete(summary)
	}
	return summary, err
}

// item is a node plus what the engine knows about it.
type item[N any] struct {
	node      N
	depth     int
	container bool
	failed    bool
}

type engine[N Node[N]] struct {
	visit  Visitor[N]
	opts   Options
	logger Logger
	limit  int
	gate   *semaphore.Weighted

	mu         sync.Mutex
	backlog    *backlog[item[N]]
	held       int // gate slots held by dispatched child visits
	expanding  int // running expansion loops
	maxHeld    int
	dispatched int
	visited    int
	failed     int
	cancelled  bool
	cause      error
	nodeErrors []*NodeError
	failures   []models.VisitResult

	done     chan struct{}
	doneOnce sync.Once
	wg       sync.WaitGroup
}

func newEngine[N Node[N]](visit Visitor[N], opts Options) *engine[N] {
	limit := opts.Parallelism()
	return &engine[N]{
		visit:   visit,
		opts:    opts,
		logger:  opts.Logger,
		limit:   limit,
		gate:    semaphore.NewWeighted(int64(limit)),
		backlog: newBacklog[item[N]](opts.Order),
		done:    make(chan struct{}),
	}
}

func (e *engine[N]) describe(node N) string {
	return describe(node, e.opts.Describe)
}

func (e *engine[N]) shouldExpand(it item[N]) bool {
	return it.container && (!it.failed || !e.opts.AbortSubtreeOnFailure)
}

// expand dispatches the children of it, then keeps expanding backlog entries
// until the backlog is empty or the walk is cancelled.
func (e *engine[N]) expand(ctx context.Context, it item[N]) {
	for {
		e.dispatchChildren(ctx, it)

		next, ok := e.nextContainer()
		if !ok {
			return
		}
		it = next
	}
}

// nextContainer pops the next container for the calling expansion loop. When
// there is none the loop is retired and completion is checked.
func (e *engine[N]) nextContainer() (item[N], bool) {
	e.mu.Lock()
	if !e.cancelled {
		if next, ok := e.backlog.pop(); ok {
			e.mu.Unlock()
			return next, true
		}
	}
	e.expanding--
	finished := e.idleLocked()
	e.mu.Unlock()

	if finished {
		e.finish()
	}
	var zero item[N]
	return zero, false
}

func (e *engine[N]) dispatchChildren(ctx context.Context, parent item[N]) {
	var (
		children []N
		err      error
	)
	if recovered := panics.Try(func() {
		children, err = parent.node.Children()
	}); recovered != nil {
		err = fmt.Errorf("%w: %w", ErrVisitorPanic, recovered.AsError())
	}
	if err != nil {
		e.recordExpandFailure(&parent, err)
	}

	for _, child := range children {
		if isNil(child) {
			e.recordExpandFailure(&parent, ErrNilChild)
			continue
		}
		if err := ctx.Err(); err != nil {
			e.cancel(err)
			return
		}
		if err := e.gate.Acquire(ctx, 1); err != nil {
			e.cancel(err)
			return
		}

		e.mu.Lock()
		if e.cancelled {
			e.mu.Unlock()
			e.gate.Release(1)
			return
		}
		e.held++
		e.dispatched++
		if e.held > e.maxHeld {
			e.maxHeld = e.held
		}
		e.mu.Unlock()

		e.wg.Add(1)
		go e.processChild(ctx, item[N]{node: child, depth: parent.depth + 1})
	}
}

// processChild runs on its own goroutine while holding one gate slot.
func (e *engine[N]) processChild(ctx context.Context, it item[N]) {
	defer e.wg.Done()

	it.failed = !e.visitNode(ctx, &it)

	var (
		next   item[N]
		popped bool
	)

	e.mu.Lock()
	if err := ctx.Err(); err != nil {
		e.cancelLocked(err)
	}
	if !e.cancelled && e.shouldExpand(it) {
		e.backlog.push(it)
	}
	e.held--
	e.gate.Release(1)
	if !e.cancelled && e.expanding < e.limit {
		if next, popped = e.backlog.pop(); popped {
			e.expanding++
		}
	}
	finished := !popped && e.idleLocked()
	e.mu.Unlock()

	if popped {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.expand(ctx, next)
		}()
	}
	if finished {
		e.finish()
	}
}

// visitNode invokes the visitor on it and records the result. It reports
// whether the visit succeeded.
func (e *engine[N]) visitNode(ctx context.Context, it *item[N]) bool {
	name := e.describe(it.node)
	it.container = it.node.IsContainer()

	ctx, span := tracer.Start(ctx, "walker.visit", trace.WithAttributes(
		attribute.String("node", name),
		attribute.Int("depth", it.depth),
		attribute.Bool("container", it.container),
	))
	defer span.End()

	start := time.Now()
	var err error
	if recovered := panics.Try(func() {
		err = e.visit(ctx, it.node)
	}); recovered != nil {
		err = fmt.Errorf("%w: %w", ErrVisitorPanic, recovered.AsError())
	}

	result := models.VisitResult{
		Node:      name,
		Depth:     it.depth,
		Container: it.container,
		Status:    models.StatusVisited,
		Duration:  time.Since(start),
	}
	if err != nil {
		result.Status = models.StatusFailed
		result.Phase = PhaseVisit.String()
		result.Error = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	e.mu.Lock()
	e.visited++
	if err != nil {
		e.failed++
		e.nodeErrors = append(e.nodeErrors, NewNodeError(it.node, name, PhaseVisit, err))
		e.failures = append(e.failures, result)
	}
	e.mu.Unlock()

	if e.logger != nil {
		// A sink that cannot write must not fail the walk.
		_ = e.logger.LogVisit(result)
	}
	return err == nil
}

// recordExpandFailure attributes a Children failure to parent. A node is
// counted as failed at most once.
func (e *engine[N]) recordExpandFailure(parent *item[N], err error) {
	name := e.describe(parent.node)
	result := models.VisitResult{
		Node:      name,
		Depth:     parent.depth,
		Container: true,
		Status:    models.StatusFailed,
		Phase:     PhaseExpand.String(),
		Error:     err,
	}

	e.mu.Lock()
	if !parent.failed {
		e.failed++
		parent.failed = true
	}
	e.nodeErrors = append(e.nodeErrors, NewNodeError(parent.node, name, PhaseExpand, err))
	e.failures = append(e.failures, result)
	e.mu.Unlock()

	if e.logger != nil {
		_ = e.logger.LogVisit(result)
	}
}

func (e *engine[N]) cancel(err error) {
	e.mu.Lock()
	e.cancelLocked(err)
	e.mu.Unlock()
}

// cancelLocked marks the walk cancelled and drops every pending container.
// Caller must hold e.mu.
func (e *engine[N]) cancelLocked(err error) {
	if e.cancelled {
		return
	}
	e.cancelled = true
	e.cause = err
	e.backlog.reset()
}

// idleLocked is the completion predicate: no visit holds a slot, nothing is
// waiting for expansion, and no expansion loop is still dispatching.
// Caller must hold e.mu.
func (e *engine[N]) idleLocked() bool {
	return e.held == 0 && e.backlog.len() == 0 && e.expanding == 0
}

func (e *engine[N]) finishIfIdle() {
	e.mu.Lock()
	finished := e.idleLocked()
	e.mu.Unlock()
	if finished {
		e.finish()
	}
}

func (e *engine[N]) finish() {
	e.doneOnce.Do(func() {
		close(e.done)
	})
}

func (e *engine[N]) outcome(root string, duration time.Duration) (models.WalkSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sort.SliceStable(e.nodeErrors, func(i, j int) bool {
		return e.nodeErrors[i].Name < e.nodeErrors[j].Name
	})
	sort.SliceStable(e.failures, func(i, j int) bool {
		return e.failures[i].Node < e.failures[j].Node
	})

	summary := models.WalkSummary{
		Root:        root,
		Parallelism: e.limit,
		Visited:     e.visited,
		Failed:      e.failed,
		Dispatched:  e.dispatched,
		MaxInFlight: e.maxHeld,
		Duration:    duration,
		Cancelled:   e.cancelled,
		Failures:    e.failures,
	}

	if len(e.nodeErrors) == 0 && !e.cancelled {
		return summary, nil
	}
	return summary, &WalkError{
		NodeErrors: e.nodeErrors,
		Visited:    e.visited,
		Failed:     e.failed,
		Cause:      e.cause,
	}
}
