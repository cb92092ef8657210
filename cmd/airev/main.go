package main

import (
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "airev",
		Short: "Terminal review tool for AI-generated changesets",
		Long: "airev computes diffs against a git repository, attaches structured\n" +
			"review comments to lines, persists review rounds, and exports\n" +
			"unresolved feedback for the next round.",
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(reviewCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(commentCmd())
	rootCmd.AddCommand(sessionsCmd())
	rootCmd.AddCommand(closeCmd())
	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(reopenCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(updateCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
