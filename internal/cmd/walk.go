package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/treewalk/internal/config"
	"github.com/harrison/treewalk/internal/filelock"
	"github.com/harrison/treewalk/internal/fsnode"
	"github.com/harrison/treewalk/internal/history"
	"github.com/harrison/treewalk/internal/logger"
	"github.com/harrison/treewalk/internal/metrics"
	"github.com/harrison/treewalk/internal/models"
	"github.com/harrison/treewalk/internal/visitors"
	"github.com/harrison/treewalk/internal/walker"
)

// Tree sources accepted by --source.
const (
	sourceFS       = "fs"
	sourceMarkdown = "markdown"
	sourceYAML     = "yaml"
)

// NewWalkCommand creates the 'treewalk walk' command
func NewWalkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "walk <path>",
		Short: "Walk a tree in parallel",
		Long: `Walk a directory, Markdown file or YAML file, visiting every node once.

Filesystem walks run one of the built-in visitors on every entry:
  list   print each relative path
  hash   print the xxhash64 digest of every regular file
  stat   count directories, files, symlinks and bytes
  copy   mirror the tree into --dest

Markdown and YAML walks print an outline of the document.

Configuration is loaded from .treewalk/config.yaml if present.
CLI flags override configuration file settings. Interrupting the walk
(Ctrl-C) stops scheduling new nodes and waits for visits in flight.

Examples:
  treewalk walk .                                # list every entry
  treewalk walk --visitor hash --include '**/*.go' src
  treewalk walk --visitor copy --dest /tmp/mirror docs
  treewalk walk --source markdown README.md
  treewalk walk --max-parallelism 16 --order fifo --report walk.json /data`,
		Args: cobra.ExactArgs(1),
		RunE: runWalk,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .treewalk/config.yaml)")
	cmd.Flags().Int("max-parallelism", 0, "Maximum number of concurrent visits (default 5)")
	cmd.Flags().String("timeout", "", "Maximum walk time (e.g., 30s, 5m); 0 disables")
	cmd.Flags().String("order", "", "Expansion order of pending containers: lifo or fifo")
	cmd.Flags().Bool("abort-subtree", false, "Do not expand containers whose visit failed")
	cmd.Flags().String("visitor", "list", "Visitor for filesystem walks: "+strings.Join(visitors.Names(), ", "))
	cmd.Flags().String("dest", "", "Destination directory for the copy visitor")
	cmd.Flags().String("source", sourceFS, "Tree source: fs, markdown or yaml")
	cmd.Flags().StringSlice("include", nil, "Only visit files matching these globs (repeatable)")
	cmd.Flags().StringSlice("exclude", nil, "Skip files matching these globs (repeatable); use exclude_dirs in the config for directories")
	cmd.Flags().Bool("verbose", false, "Log every visit")
	cmd.Flags().String("log-dir", "", "Directory for run logs")
	cmd.Flags().String("report", "", "Write a JSON summary of the walk to this file")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics in textfile format to this file")
	cmd.Flags().Bool("no-history", false, "Do not record this walk in the history database")

	return cmd
}

// runWalk implements the walk command logic
func runWalk(cmd *cobra.Command, args []string) error {
	cfg, err := loadWalkConfig(cmd)
	if err != nil {
		return err
	}

	source, _ := cmd.Flags().GetString("source")
	source = strings.ToLower(source)
	visitorName, _ := cmd.Flags().GetString("visitor")
	dest, _ := cmd.Flags().GetString("dest")
	reportPath, _ := cmd.Flags().GetString("report")

	switch source {
	case sourceFS:
	case sourceMarkdown, sourceYAML:
		if cmd.Flags().Changed("visitor") {
			return fmt.Errorf("--visitor applies to filesystem walks only")
		}
		visitorName = "outline"
	default:
		return fmt.Errorf("invalid source %q, must be fs, markdown or yaml", source)
	}

	order, err := walker.ParseOrder(cfg.Order)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Determine log level: verbose flag overrides config
	logLevel := cfg.LogLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logLevel = "debug"
	}

	// Console logs go to stderr so visitor output stays pipeable.
	consoleLog := logger.NewConsoleLogger(cmd.ErrOrStderr(), logLevel)
	recorder := metrics.NewRecorder()
	walkLoggers := []logger.WalkLogger{consoleLog, recorder}

	if cfg.LogDir != "" {
		fileLog, err := logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, logLevel, logger.Rotation{
			MaxSizeMB:  cfg.LogRotation.MaxSizeMB,
			MaxBackups: cfg.LogRotation.MaxBackups,
			Compress:   cfg.LogRotation.Compress,
		})
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		defer fileLog.Close()
		walkLoggers = append(walkLoggers, fileLog)
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	opts := walker.Options{
		MaxDegreeOfParallelism: cfg.MaxParallelism,
		Order:                  order,
		AbortSubtreeOnFailure:  cfg.AbortSubtreeOnFailure,
		Logger:                 logger.NewMultiLogger(walkLoggers...),
	}

	startedAt := time.Now()
	var (
		summary models.WalkSummary
		walkErr error
	)
	switch source {
	case sourceFS:
		summary, walkErr = walkFileSystem(ctx, args[0], fsnode.Options{
			Include:     cfg.Filesystem.Include,
			Exclude:     cfg.Filesystem.Exclude,
			ExcludeDirs: cfg.Filesystem.ExcludeDirs,
			SkipHidden:  cfg.Filesystem.SkipHidden,
			MaxDepth:    cfg.Filesystem.MaxDepth,
		}, visitorName, visitors.Params{Out: cmd.OutOrStdout(), Dest: dest}, opts)
	default:
		summary, walkErr = walkDocument(ctx, source, args[0], cmd.OutOrStdout(), opts)
	}

	// A walk that never started (bad root, unknown visitor) has nothing to record.
	if walkErr != nil && !walker.IsWalkError(walkErr) {
		return walkErr
	}
	if abs, err := filepath.Abs(args[0]); err == nil {
		summary.Root = abs
	}

	if cfg.Metrics.Textfile != "" {
		if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		}
	}

	if reportPath != "" {
		report := newWalkReport(summary, source, visitorName, order.String(), startedAt)
		if err := writeReport(reportPath, report); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		}
	}

	if cfg.History.Enabled {
		run := history.NewRun(summary, source, visitorName, order.String(), startedAt, walkErr)
		if err := recordHistory(cmdContext(cmd), cfg, run); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to record walk history: %v\n", err)
		}
	}

	return walkErr
}

// loadWalkConfig loads the config file and applies explicitly set flags.
func loadWalkConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var flags config.Flags
	if cmd.Flags().Changed("max-parallelism") {
		v, _ := cmd.Flags().GetInt("max-parallelism")
		flags.MaxParallelism = &v
	}
	if cmd.Flags().Changed("timeout") {
		s, _ := cmd.Flags().GetString("timeout")
		timeout, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout format %q: %w", s, err)
		}
		flags.Timeout = &timeout
	}
	if cmd.Flags().Changed("order") {
		v, _ := cmd.Flags().GetString("order")
		flags.Order = &v
	}
	if cmd.Flags().Changed("abort-subtree") {
		v, _ := cmd.Flags().GetBool("abort-subtree")
		flags.AbortSubtree = &v
	}
	if cmd.Flags().Changed("log-dir") {
		v, _ := cmd.Flags().GetString("log-dir")
		flags.LogDir = &v
	}
	if cmd.Flags().Changed("no-history") {
		v, _ := cmd.Flags().GetBool("no-history")
		flags.NoHistory = &v
	}
	if cmd.Flags().Changed("metrics-file") {
		v, _ := cmd.Flags().GetString("metrics-file")
		flags.MetricsFile = &v
	}
	flags.Include, _ = cmd.Flags().GetStringSlice("include")
	flags.Exclude, _ = cmd.Flags().GetStringSlice("exclude")

	cfg.MergeWithFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// cmdContext returns the command's context, or Background when run outside Execute.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// recordHistory stores run and prunes old runs when keep_days is set.
func recordHistory(ctx context.Context, cfg *config.Config, run *history.Run) error {
	dbPath, err := cfg.HistoryDBPath()
	if err != nil {
		return err
	}
	store, err := history.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.RecordRun(ctx, run); err != nil {
		return err
	}
	if cfg.History.KeepDays > 0 {
		if _, err := store.CleanupOldRuns(ctx, cfg.History.KeepDays); err != nil {
			return err
		}
	}
	return nil
}

// walkReport is the JSON document written by --report.
type walkReport struct {
	Root        string          `json:"root"`
	Source      string          `json:"source"`
	Visitor     string          `json:"visitor"`
	Order       string          `json:"order"`
	Parallelism int             `json:"parallelism"`
	Visited     int             `json:"visited"`
	Succeeded   int             `json:"succeeded"`
	Failed      int             `json:"failed"`
	Dispatched  int             `json:"dispatched"`
	MaxInFlight int             `json:"max_in_flight"`
	Cancelled   bool            `json:"cancelled"`
	DurationMs  int64           `json:"duration_ms"`
	StartedAt   time.Time       `json:"started_at"`
	Failures    []reportFailure `json:"failures"`
}

type reportFailure struct {
	Node  string `json:"node"`
	Phase string `json:"phase"`
	Error string `json:"error"`
}

func newWalkReport(summary models.WalkSummary, source, visitor, order string, startedAt time.Time) walkReport {
	report := walkReport{
		Root:        summary.Root,
		Source:      source,
		Visitor:     visitor,
		Order:       order,
		Parallelism: summary.Parallelism,
		Visited:     summary.Visited,
		Succeeded:   summary.Succeeded(),
		Failed:      summary.Failed,
		Dispatched:  summary.Dispatched,
		MaxInFlight: summary.MaxInFlight,
		Cancelled:   summary.Cancelled,
		DurationMs:  summary.Duration.Milliseconds(),
		StartedAt:   startedAt.UTC(),
		Failures:    []reportFailure{},
	}
	for _, f := range summary.Failures {
		rf := reportFailure{Node: f.Node, Phase: f.Phase}
		if f.Error != nil {
			rf.Error = f.Error.Error()
		}
		report.Failures = append(report.Failures, rf)
	}
	return report
}

// writeReport writes report as indented JSON, holding a lock on the file so
// concurrent walks sharing a report path never interleave.
func writeReport(path string, report walkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := filelock.LockAndWrite(path, append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

