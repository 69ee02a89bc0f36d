package cmd

import (
	"fmt"
	"os"

	"github.com/dbdelta/dbdelta/internal/diff"
	"github.com/dbdelta/dbdelta/internal/fault"
	"github.com/dbdelta/dbdelta/internal/gen"
	"github.com/spf13/cobra"
)

var (
	generateFlags     endpointFlags
	generateTarget    string
	generateDirection string
	generateWithTx    bool
	generateSafe      bool
	generateCascade   bool
	generateIfExists  bool
	generateOut       string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate migration DDL from a comparison",
	Long: `Generate compares both schemas and renders a migration script for the
target dialect. Under --direction AtoB, schema A is the desired end state;
BtoA is the mirror. The script is a proposal for review, not an applied
migration.`,
	RunE: runGenerate,
}

func init() {
	generateFlags.register(generateCmd)
	generateCmd.Flags().StringVar(&generateTarget, "target", "", "Target dialect: postgres or mariadb (defaults to the --to engine)")
	generateCmd.Flags().StringVar(&generateDirection, "direction", string(gen.AtoB), "Migration direction: AtoB or BtoA")
	generateCmd.Flags().BoolVar(&generateWithTx, "with-transaction", true, "Wrap the script in a transaction")
	generateCmd.Flags().BoolVar(&generateSafe, "safe", false, "Comment out destructive statements")
	generateCmd.Flags().BoolVar(&generateCascade, "cascade", false, "Append CASCADE to drops where the dialect supports it")
	generateCmd.Flags().BoolVar(&generateIfExists, "if-exists", false, "Use IF EXISTS on drops")
	generateCmd.Flags().StringVar(&generateOut, "out", "", "Write the script to FILE instead of stdout")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	from, to, err := generateFlags.resolve(os.Getenv)
	if err != nil {
		return err
	}

	direction, err := gen.ParseDirection(generateDirection)
	if err != nil {
		return err
	}

	target := generateTarget
	if target == "" {
		target = string(to.Kind)
	}

	c, err := compare(cmd.Context(), from, to)
	if err != nil {
		return err
	}

	sql, err := renderScript(c.result, target, gen.Options{
		Direction:       direction,
		WithTransaction: generateWithTx,
		SafeMode:        generateSafe,
		Cascade:         generateCascade,
		IfExists:        generateIfExists,
	})
	if err != nil {
		return err
	}

	if generateOut != "" {
		if err := os.WriteFile(generateOut, []byte(sql), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", generateOut, err)
		}
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), sql)
	return nil
}

func renderScript(d *diff.Result, target string, opts gen.Options) (string, error) {
	switch target {
	case "postgres":
		return gen.ToPostgres(d, opts)
	case "mariadb":
		return gen.ToMariaDB(d, opts)
	default:
		return "", fault.Config("unsupported target %q (want postgres or mariadb)", target)
	}
}
