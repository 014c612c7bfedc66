package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/treewalk/internal/config"
	"github.com/harrison/treewalk/internal/history"
)

// NewHistoryCommand creates the 'treewalk history' command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded walks",
		Long: `List recent walks recorded in the history database, newest first.

With a run ID, show that run and every node that failed during it.
The database lives at $TREEWALK_HOME/history.db unless history.db_path
is set in the config file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .treewalk/config.yaml)")
	cmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 = all)")
	cmd.Flags().Int("cleanup-days", 0, "Delete runs older than this many days before listing")

	return cmd
}

// runHistory executes the history command
func runHistory(cmd *cobra.Command, args []string) error {
	output := cmd.OutOrStdout()

	configPath, _ := cmd.Flags().GetString("config")
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
	} else {
		cfg, err = config.LoadConfigFromDir(".")
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbPath, err := cfg.HistoryDBPath()
	if err != nil {
		return fmt.Errorf("failed to get history database path: %w", err)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintf(output, "No walks recorded yet.\n")
		fmt.Fprintf(output, "Database path: %s\n", dbPath)
		return nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer store.Close()

	ctx := cmdContext(cmd)

	if days, _ := cmd.Flags().GetInt("cleanup-days"); days > 0 {
		n, err := store.CleanupOldRuns(ctx, days)
		if err != nil {
			return fmt.Errorf("failed to clean up history: %w", err)
		}
		fmt.Fprintf(output, "Removed %d run(s) older than %d days.\n\n", n, days)
	}

	if len(args) == 1 {
		run, err := store.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		printRun(output, run)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	printRuns(output, runs)
	return nil
}

// printRuns prints one line per run.
func printRuns(w io.Writer, runs []*history.Run) {
	if len(runs) == 0 {
		fmt.Fprintf(w, "No walks recorded yet.\n")
		return
	}

	header := color.New(color.Bold)
	header.Fprintf(w, "%-36s  %-19s  %-8s  %-7s  %7s  %6s  %8s  %s\n",
		"ID", "STARTED", "SOURCE", "VISITOR", "VISITED", "FAILED", "DURATION", "ROOT")

	for _, run := range runs {
		fmt.Fprintf(w, "%-36s  %-19s  %-8s  %-7s  %7d  %s  %8s  %s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Source,
			run.Visitor,
			run.Visited,
			failedColumn(run),
			run.Duration.Round(time.Millisecond),
			run.Root,
		)
	}
}

// failedColumn renders the failed count, red when nonzero and marked when cancelled.
func failedColumn(run *history.Run) string {
	s := fmt.Sprintf("%6d", run.Failed)
	switch {
	case run.Cancelled:
		return color.YellowString("%s", s)
	case run.Failed > 0:
		return color.RedString("%s", s)
	default:
		return color.GreenString("%s", s)
	}
}

// printRun prints the details of a single run.
func printRun(w io.Writer, run *history.Run) {
	color.New(color.Bold).Fprintf(w, "=== Walk %s ===\n", run.ID)
	fmt.Fprintf(w, "Root:          %s\n", run.Root)
	fmt.Fprintf(w, "Source:        %s\n", run.Source)
	fmt.Fprintf(w, "Visitor:       %s\n", run.Visitor)
	fmt.Fprintf(w, "Started:       %s\n", run.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(w, "Duration:      %s\n", run.Duration)
	fmt.Fprintf(w, "Parallelism:   %d (max in flight %d, order %s)\n", run.Parallelism, run.MaxInFlight, run.Order)
	fmt.Fprintf(w, "Visited:       %d\n", run.Visited)
	fmt.Fprintf(w, "Failed:        %d\n", run.Failed)
	fmt.Fprintf(w, "Dispatched:    %d\n", run.Dispatched)
	fmt.Fprintf(w, "Cancelled:     %t\n", run.Cancelled)
	if run.ErrorMessage != "" {
		fmt.Fprintf(w, "Outcome:       %s\n", run.ErrorMessage)
	}

	if len(run.Failures) == 0 {
		return
	}
	fmt.Fprintf(w, "\nFailures:\n")
	for _, f := range run.Failures {
		fmt.Fprintf(w, "  - %s [%s]: %s\n", f.Node, f.Phase, f.Message)
	}
}
