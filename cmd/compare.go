package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dbdelta/dbdelta/internal/color"
	"github.com/dbdelta/dbdelta/internal/diff"
	"github.com/dbdelta/dbdelta/internal/fingerprint"
	"github.com/spf13/cobra"
)

var (
	compareFlags endpointFlags
	compareJSON  bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two schemas and print the diff",
	Long: `Compare loads both schemas, normalizes them and prints what differs.
Added means present in B only, removed means present in A only.`,
	RunE: runCompare,
}

func init() {
	compareFlags.register(compareCmd)
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "Print the full diff and summary as JSON")
}

func runCompare(cmd *cobra.Command, args []string) error {
	from, to, err := compareFlags.resolve(os.Getenv)
	if err != nil {
		return err
	}

	c, err := compare(cmd.Context(), from, to)
	if err != nil {
		return err
	}

	if compareJSON {
		payload := struct {
			Diff         *diff.Result                        `json:"diff"`
			Summary      diff.Summary                        `json:"summary"`
			Fingerprints map[string]*fingerprint.Fingerprint `json:"fingerprints"`
		}{c.result, c.result.Summary(), map[string]*fingerprint.Fingerprint{
			"a": c.fromFingerprint,
			"b": c.toFingerprint,
		}}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	printSummary(cmd, c.result)
	return nil
}

func printSummary(cmd *cobra.Command, result *diff.Result) {
	out := cmd.OutOrStdout()
	s := result.Summary()

	if result.Empty() {
		fmt.Fprintln(out, "Schemas are identical.")
		return
	}

	c := color.New(true)
	added := s.Tables.Added + s.Views.Added + s.Routines.Added + s.Triggers.Added
	changed := s.Tables.Changed + s.Views.Changed + s.Routines.Changed + s.Triggers.Changed
	removed := s.Tables.Removed + s.Views.Removed + s.Routines.Removed + s.Triggers.Removed

	fmt.Fprintln(out, c.FormatHeader(added, changed, removed))
	fmt.Fprintln(out)
	fmt.Fprintln(out, c.FormatSummaryLine("tables", s.Tables.Added, s.Tables.Changed, s.Tables.Removed))
	fmt.Fprintln(out, c.FormatSummaryLine("views", s.Views.Added, s.Views.Changed, s.Views.Removed))
	fmt.Fprintln(out, c.FormatSummaryLine("routines", s.Routines.Added, s.Routines.Changed, s.Routines.Removed))
	fmt.Fprintln(out, c.FormatSummaryLine("triggers", s.Triggers.Added, s.Triggers.Changed, s.Triggers.Removed))
}
