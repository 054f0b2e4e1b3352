package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/gridsql/internal/state"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var (
		edits bool
		table string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent queries or edits",
		Long: `Show statements recorded in the local history database.

By default lists recent queries and checks. --edits lists the edit log,
optionally narrowed to one table.`,
		Example: `  gridsql history
  gridsql history --limit 10 -o json
  gridsql history --edits --table ledger`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContextWithoutEngine(cmd)

			if _, err := os.Stat(cc.Cfg.StatePath); errors.Is(err, fs.ErrNotExist) {
				cc.Renderer.Warning(fmt.Sprintf("no history at %s", cc.Cfg.StatePath))
				return nil
			}

			store := state.NewSQLiteStore()
			if err := store.Open(cc.Cfg.StatePath); err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if edits {
				entries, err := store.ListEdits(cmd.Context(), table, limit)
				if err != nil {
					return err
				}
				rows := make([][]any, len(entries))
				for i, e := range entries {
					rows[i] = []any{e.CreatedAt.Local().Format(time.DateTime), e.Table, e.RowID, e.Column, e.Value, e.Status, e.RowsAffected, e.Error}
				}
				return cc.Renderer.Table(
					[]string{"at", "table", "row id", "column", "value", "status", "rows", "error"},
					rows,
					map[string]any{"edits": entries},
				)
			}

			records, err := store.ListQueries(cmd.Context(), limit)
			if err != nil {
				return err
			}
			rows := make([][]any, len(records))
			for i, r := range records {
				subject := r.Table
				if r.CheckName != "" {
					subject = r.CheckName + " " + r.Table
				}
				rows[i] = []any{r.CreatedAt.Local().Format(time.DateTime), r.Kind, subject, r.Rows, r.Duration.Round(time.Millisecond).String(), r.Error, r.SQL}
			}
			return cc.Renderer.Table(
				[]string{"at", "kind", "subject", "rows", "duration", "error", "sql"},
				rows,
				map[string]any{"queries": records},
			)
		},
	}

	cmd.Flags().BoolVar(&edits, "edits", false, "List the edit log instead of queries")
	cmd.Flags().StringVar(&table, "table", "", "Only edits for this table (with --edits)")
	cmd.Flags().IntVar(&limit, "limit", state.DefaultListLimit, "Maximum entries to list")

	return cmd
}
