package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/harrison/treewalk/internal/docnode"
	"github.com/harrison/treewalk/internal/models"
	"github.com/harrison/treewalk/internal/walker"
)

type countingLogger struct {
	mu        sync.Mutex
	starts    int
	visits    int
	completes int
	err       error
}

func (c *countingLogger) LogWalkStart(string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts++
}

func (c *countingLogger) LogVisit(models.VisitResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visits++
	return c.err
}

func (c *countingLogger) LogWalkComplete(models.WalkSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completes++
}

func TestMultiLoggerFansOut(t *testing.T) {
	a := &countingLogger{}
	b := &countingLogger{err: errors.New("disk full")}
	m := NewMultiLogger(a, nil, b)

	m.LogWalkStart("root", 2)
	err := m.LogVisit(models.VisitResult{Node: "x"})
	m.LogWalkComplete(models.WalkSummary{})

	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("LogVisit() error = %v, want disk full", err)
	}
	for _, l := range []*countingLogger{a, b} {
		if l.starts != 1 || l.visits != 1 || l.completes != 1 {
			t.Errorf("logger saw starts=%d visits=%d completes=%d", l.starts, l.visits, l.completes)
		}
	}
}

func TestMultiLoggerDrivenByWalk(t *testing.T) {
	root := docnode.ParseMarkdown([]byte("# Title\n\nIntro.\n\n## Part\n\nBody.\n"))

	var buf bytes.Buffer
	counter := &countingLogger{}
	m := NewMultiLogger(NewConsoleLogger(&buf, "info"), counter, NewNoOpLogger())

	err := walker.Walk(context.Background(), root, func(ctx context.Context, n *docnode.MarkdownNode) error {
		return nil
	}, walker.Options{MaxDegreeOfParallelism: 2, Logger: m})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	if counter.starts != 1 || counter.completes != 1 {
		t.Errorf("starts=%d completes=%d, want 1/1", counter.starts, counter.completes)
	}
	if counter.visits == 0 {
		t.Error("no visits reported")
	}
	if !strings.Contains(buf.String(), "=== Walk Summary ===") {
		t.Errorf("console summary missing:\n%s", buf.String())
	}
}
