package logger

import (
	"errors"

	"github.com/harrison/treewalk/internal/models"
)

// WalkLogger is the set of walk events every logger in this package accepts.
// It matches walker.Logger.
type WalkLogger interface {
	LogWalkStart(root string, parallelism int)
	LogVisit(result models.VisitResult) error
	LogWalkComplete(summary models.WalkSummary)
}

// MultiLogger fans walk events out to several loggers.
type MultiLogger struct {
	loggers []WalkLogger
}

// NewMultiLogger combines loggers. Nil entries are skipped.
func NewMultiLogger(loggers ...WalkLogger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

// LogWalkStart forwards to every logger.
func (m *MultiLogger) LogWalkStart(root string, parallelism int) {
	for _, l := range m.loggers {
		l.LogWalkStart(root, parallelism)
	}
}

// LogVisit forwards to every logger and joins their errors.
func (m *MultiLogger) LogVisit(result models.VisitResult) error {
	var errs []error
	for _, l := range m.loggers {
		if err := l.LogVisit(result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogWalkComplete forwards to every logger.
func (m *MultiLogger) LogWalkComplete(summary models.WalkSummary) {
	for _, l := range m.loggers {
		l.LogWalkComplete(summary)
	}
}

// NoOpLogger discards every event.
type NoOpLogger struct{}

// NewNoOpLogger returns a logger that does nothing.
func NewNoOpLogger() *NoOpLogger { return &NoOpLogger{} }

func (*NoOpLogger) LogWalkStart(string, int) {}

func (*NoOpLogger) LogVisit(models.VisitResult) error { return nil }

func (*NoOpLogger) LogWalkComplete(models.WalkSummary) {}
