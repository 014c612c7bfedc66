package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for treewalk
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "treewalk",
		Short: "Parallel tree walker",
		Long: `Treewalk visits every node of a tree exactly once, running a bounded
number of visits in parallel. A node is always visited before any of its
children are scheduled.

Trees can be directories on disk, Markdown documents or YAML documents.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewWalkCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
