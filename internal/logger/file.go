package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/harrison/treewalk/internal/models"
)

// Rotation controls when a run log is rotated. Zero values fall back to
// lumberjack's defaults (100 MB, keep every backup).
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// FileLogger writes walk events to a timestamped run log in a log directory
// and keeps a latest.log symlink pointing at the most recent run.
// Large runs are rotated by size. It is safe for concurrent use.
type FileLogger struct {
	logDir   string
	runFile  string
	runLog   *lumberjack.Logger
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger writing to .treewalk/logs in the
// current directory at info level.
func NewFileLogger() (*FileLogger, error) {
	return NewFileLoggerWithDir(filepath.Join(".treewalk", "logs"))
}

// NewFileLoggerWithDir creates a FileLogger with a custom log directory.
func NewFileLoggerWithDir(logDir string) (*FileLogger, error) {
	return NewFileLoggerWithDirAndLevel(logDir, "info", Rotation{})
}

// NewFileLoggerWithDirAndLevel creates a FileLogger with a custom log
// directory, level and rotation policy.
func NewFileLoggerWithDirAndLevel(logDir string, logLevel string, rotation Rotation) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// run-YYYYMMDD-HHMMSS.log
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", time.Now().Format("20060102-150405")))

	runLog := &lumberjack.Logger{
		Filename:   runFile,
		MaxSize:    rotation.MaxSizeMB,
		MaxBackups: rotation.MaxBackups,
		MaxAge:     rotation.MaxAgeDays,
		Compress:   rotation.Compress,
	}

	fl := &FileLogger{
		logDir:   logDir,
		runFile:  runFile,
		runLog:   runLog,
		logLevel: normalizeLogLevel(logLevel),
	}

	// lumberjack opens lazily; the header write creates the file before the
	// symlink is pointed at it.
	if err := fl.write(fmt.Sprintf("=== Treewalk Run Log ===\nStarted at: %s\n\n", time.Now().Format(time.RFC3339))); err != nil {
		runLog.Close()
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			runLog.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		runLog.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	return fl, nil
}

// Path returns the run log file path.
func (fl *FileLogger) Path() string {
	return fl.runFile
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) { fl.logWithLevel("INFO", message) }

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) { fl.logWithLevel("WARN", message) }

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) { fl.logWithLevel("ERROR", message) }

// LogWalkStart records the walk root and parallelism.
func (fl *FileLogger) LogWalkStart(root string, parallelism int) {
	fl.logWithLevel("INFO", fmt.Sprintf("Walk started: root=%s parallelism=%d", root, parallelism))
}

// LogVisit records one visit. Unlike the console, a write failure is
// returned to the caller.
func (fl *FileLogger) LogVisit(result models.VisitResult) error {
	level := "DEBUG"
	var msg string
	if result.Failed() {
		level = "WARN"
		msg = "FAILED " + formatFailure(result)
	} else {
		msg = fmt.Sprintf("VISITED %s depth=%d container=%t duration=%s",
			result.Node, result.Depth, result.Container, result.Duration)
	}
	if !fl.shouldLog(strings.ToLower(level)) {
		return nil
	}
	return fl.write(fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format(time.RFC3339), level, msg))
}

// LogWalkComplete writes the summary block.
func (fl *FileLogger) LogWalkComplete(summary models.WalkSummary) {
	var sb strings.Builder
	sb.WriteString("\n=== Walk Summary ===\n")
	fmt.Fprintf(&sb, "Root: %s\n", summary.Root)
	fmt.Fprintf(&sb, "Visited: %d\n", summary.Visited)
	fmt.Fprintf(&sb, "Succeeded: %d\n", summary.Succeeded())
	fmt.Fprintf(&sb, "Failed: %d\n", summary.Failed)
	fmt.Fprintf(&sb, "Dispatched: %d\n", summary.Dispatched)
	fmt.Fprintf(&sb, "Parallelism: %d (max in flight %d)\n", summary.Parallelism, summary.MaxInFlight)
	fmt.Fprintf(&sb, "Duration: %s\n", summary.Duration)
	fmt.Fprintf(&sb, "Cancelled: %t\n", summary.Cancelled)
	if len(summary.Failures) > 0 {
		sb.WriteString("Failures:\n")
		for _, f := range summary.Failures {
			fmt.Fprintf(&sb, "  - %s\n", formatFailure(f))
		}
	}
	fmt.Fprintf(&sb, "Completed at: %s\n", time.Now().Format(time.RFC3339))
	fl.write(sb.String())
}

// Close closes the run log.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}
	return nil
}

func (fl *FileLogger) logWithLevel(level, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.write(fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format(time.RFC3339), level, message))
}

// write appends message to the run log under the lock.
func (fl *FileLogger) write(message string) error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog == nil {
		return os.ErrClosed
	}
	_, err := fl.runLog.Write([]byte(message))
	return err
}
