package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/gridsql/internal/checks"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <name> <table>",
		Short: "Run a data-quality check",
		Long: fmt.Sprintf(`Run one of the fixed data-quality checks against a table.

Available checks: %v

Each check returns at most %d offending rows.`, checks.Names(), checks.ResultLimit),
		Example: `  gridsql check duplicates ledger
  gridsql check invalid-debit-credit ledger -o json
  gridsql check category-mismatch ledger`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return checks.Names(), cobra.ShellCompDirectiveNoFileComp
			}
			return completeTables(cmd, args[1:], toComplete)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := cc.Engine.RunCheck(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if err := cc.Renderer.Result(res); err != nil {
				return err
			}

			if res.Len() == 0 {
				cc.Renderer.Success(fmt.Sprintf("%s: no issues found in %s", args[0], args[1]))
			} else {
				cc.Renderer.Warning(fmt.Sprintf("%s: %d rows flagged in %s", args[0], res.Len(), args[1]))
			}
			return nil
		},
	}
}
