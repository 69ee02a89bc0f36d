package cmd

import (
	"fmt"
	"os"

	"github.com/dbdelta/dbdelta/internal/gen"
	"github.com/dbdelta/dbdelta/internal/prompt"
	"github.com/spf13/cobra"
)

var (
	promptFlags     endpointFlags
	promptTarget    string
	promptDirection string
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Build a Markdown review prompt for a comparison",
	Long: `Prompt compares both schemas, generates the migration script in safe
mode and wraps both in a Markdown document suitable for a review thread.`,
	RunE: runPrompt,
}

func init() {
	promptFlags.register(promptCmd)
	promptCmd.Flags().StringVar(&promptTarget, "target", "", "Target dialect: postgres or mariadb (defaults to the --to engine)")
	promptCmd.Flags().StringVar(&promptDirection, "direction", string(gen.AtoB), "Migration direction: AtoB or BtoA")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	from, to, err := promptFlags.resolve(os.Getenv)
	if err != nil {
		return err
	}

	direction, err := gen.ParseDirection(promptDirection)
	if err != nil {
		return err
	}

	target := promptTarget
	if target == "" {
		target = string(to.Kind)
	}

	c, err := compare(cmd.Context(), from, to)
	if err != nil {
		return err
	}

	sql, err := renderScript(c.result, target, gen.Options{
		Direction:       direction,
		WithTransaction: true,
		SafeMode:        true,
	})
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), prompt.Build(c.result, sql, prompt.Meta{
		From:      from.Redacted(),
		To:        to.Redacted(),
		Schema:    from.Schema,
		Target:    target,
		Direction: string(direction),
	}))
	return nil
}
