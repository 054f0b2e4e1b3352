package commands

import (
	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "tables",
		Aliases: []string{"ls"},
		Short:   "List tables in the data source",
		Long:    `List the tables reflected from the configured target, in name order.`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			tables := cc.Engine.ListTables()
			rows := make([][]any, len(tables))
			for i, t := range tables {
				rows[i] = []any{t}
			}
			return cc.Renderer.Table([]string{"table"}, rows, map[string]any{"tables": tables})
		},
	}
}

// NewColumnsCommand creates the columns command.
func NewColumnsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "columns <table>",
		Short: "Describe the columns of a table",
		Example: `  gridsql columns ledger
  gridsql columns ledger -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			cols, err := cc.Engine.GetColumns(args[0])
			if err != nil {
				return err
			}
			rows := make([][]any, len(cols))
			for i, c := range cols {
				rows[i] = []any{c.Position, c.Name, c.Type, string(c.Kind), c.Nullable, c.PrimaryKey}
			}
			return cc.Renderer.Table(
				[]string{"#", "name", "type", "kind", "nullable", "primary key"},
				rows,
				map[string]any{"table": args[0], "columns": cols},
			)
		},
	}
}
