package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dbdelta/dbdelta/internal/color"
	"github.com/dbdelta/dbdelta/internal/logger"
	"github.com/dbdelta/dbdelta/internal/version"
	"github.com/spf13/cobra"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "dbdelta",
	Short: "Schema comparison and migration script generator",
	Long: fmt.Sprintf(`dbdelta compares two live database schemas (PostgreSQL or MariaDB)
and generates a reviewable migration script.

Version: %s@%s %s %s

Commands:
  compare   Compare two schemas and print the diff
  generate  Generate migration DDL from a comparison
  prompt    Build a Markdown review prompt for a comparison
  version   Show version information

Use "dbdelta [command] --help" for more information about a command.`,
		version.Version(), version.GitCommit, version.Platform(), version.BuildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(versionCmd)
}

func setupLogger() {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger.SetGlobal(slog.New(handler), debug)
}

// Execute runs the CLI. Errors are painted red on stderr and exit with 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		c := color.New(true)
		fmt.Fprintln(os.Stderr, c.Error("Error: "+err.Error()))
		os.Exit(1)
	}
}
