// Package logger provides walk loggers for treewalk.
//
// Every logger implements the walker's Logger interface: a line when the
// walk starts, one event per visit, and a summary once the walk completes.
// Implementations are safe for concurrent use since visits are reported from
// many goroutines at once.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/treewalk/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// maxListedFailures caps the failure list printed in the summary.
const maxListedFailures = 20

// ConsoleLogger logs walk progress to a writer with timestamps.
// All output is prefixed with [HH:MM:SS]. Successful visits are logged at
// debug level, failures at warn, walk start and summary at info.
// Color output is enabled automatically when writing to a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal reports whether w is a TTY that should receive colors.
// NO_COLOR and a dumb TERM disable colors through color.NoColor.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

// ValidLogLevel reports whether level names a known log level.
func ValidLogLevel(level string) bool {
	l := strings.ToLower(strings.TrimSpace(level))
	return l == "trace" || l == "debug" || l == "info" || l == "warn" || l == "error"
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogTrace logs a trace-level message.
func (cl *ConsoleLogger) LogTrace(message string) { cl.logWithLevel("TRACE", message) }

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) { cl.logWithLevel("DEBUG", message) }

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) { cl.logWithLevel("INFO", message) }

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) { cl.logWithLevel("WARN", message) }

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) { cl.logWithLevel("ERROR", message) }

// LogWalkStart logs the root and effective parallelism of a new walk.
func (cl *ConsoleLogger) LogWalkStart(root string, parallelism int) {
	cl.logWithLevel("INFO", fmt.Sprintf("Walking %s (parallelism %d)", root, parallelism))
}

// LogVisit logs a single visit. Failures are logged at warn level so they
// remain visible with the default level.
func (cl *ConsoleLogger) LogVisit(result models.VisitResult) error {
	if result.Failed() {
		cl.logWithLevel("WARN", formatFailure(result))
		return nil
	}
	if !cl.shouldLog("debug") {
		return nil
	}
	kind := "leaf"
	if result.Container {
		kind = "container"
	}
	cl.logWithLevel("DEBUG", fmt.Sprintf("Visited %s (depth %d, %s, %s)",
		result.Node, result.Depth, kind, formatDuration(result.Duration)))
	return nil
}

// LogWalkComplete prints the walk summary block.
func (cl *ConsoleLogger) LogWalkComplete(summary models.WalkSummary) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	var sb strings.Builder
	ts := timestamp()
	scheme := newColorScheme(cl.colorOutput)

	header := "=== Walk Summary ==="
	if cl.colorOutput {
		header = color.New(color.Bold).Sprint(header)
	}
	fmt.Fprintf(&sb, "[%s] %s\n", ts, header)
	fmt.Fprintf(&sb, "[%s] %s\n", ts, scheme.metric("Root", summary.Root))

	bar := NewProgressBar(summary.Visited, 20, cl.colorOutput)
	bar.Update(summary.Succeeded())
	bar.SetPrefix("Succeeded: ")
	fmt.Fprintf(&sb, "[%s] %s\n", ts, bar.Render())

	fmt.Fprintf(&sb, "[%s] %s\n", ts, formatCounts(summary, scheme))
	fmt.Fprintf(&sb, "[%s] %s, %s\n", ts,
		scheme.metric("Parallelism", summary.Parallelism),
		scheme.metric("Max in flight", summary.MaxInFlight))
	fmt.Fprintf(&sb, "[%s] %s\n", ts, scheme.metric("Duration", formatDuration(summary.Duration)))

	if summary.Cancelled {
		fmt.Fprintf(&sb, "[%s] %s\n", ts, scheme.warn.Sprint("Walk cancelled before completion"))
	}

	if len(summary.Failures) > 0 {
		fmt.Fprintf(&sb, "[%s] %s\n", ts, scheme.fail.Sprintf("Failures (%d):", len(summary.Failures)))
		for i, f := range summary.Failures {
			if i == maxListedFailures {
				fmt.Fprintf(&sb, "[%s]   ... and %d more\n", ts, len(summary.Failures)-maxListedFailures)
				break
			}
			fmt.Fprintf(&sb, "[%s]   - %s\n", ts, formatFailure(f))
		}
	}

	cl.writer.Write([]byte(sb.String()))
}

// logWithLevel logs a message at the specified level if filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = cl.formatWithColor(ts, level, message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}
	cl.writer.Write([]byte(formatted))
}

// formatWithColor formats a log message with ANSI color codes.
func (cl *ConsoleLogger) formatWithColor(ts, level, message string) string {
	var coloredLevel string
	switch strings.ToUpper(level) {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}
	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

// formatFailure renders a failed visit as "node: phase failed: err".
func formatFailure(r models.VisitResult) string {
	phase := r.Phase
	if phase == "" {
		phase = "visit"
	}
	if r.Error == nil {
		return fmt.Sprintf("%s: %s failed", r.Node, phase)
	}
	return fmt.Sprintf("%s: %s failed: %v", r.Node, phase, r.Error)
}

// timestamp returns the current time formatted as HH:MM:SS.
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration renders a duration compactly: 350ms, 1.2s, 2m5s.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}
