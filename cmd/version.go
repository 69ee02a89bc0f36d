package cmd

import (
	"fmt"

	"github.com/dbdelta/dbdelta/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display the version number of dbdelta",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dbdelta v%s@%s %s %s\n",
			version.Version(), version.GitCommit, version.Platform(), version.BuildDate)
	},
}
