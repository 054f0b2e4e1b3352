package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/gridsql/internal/cli/config"
	"github.com/leapstack-labs/gridsql/internal/query"
)

// DefaultQueryLimit is the page size when --limit is not given.
const DefaultQueryLimit = 100

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	var (
		flags       queryFlags
		optionsFile string
	)

	cmd := &cobra.Command{
		Use:   "query <table>",
		Short: "Read a page of rows from a table",
		Long: `Read rows from a table with the same options the grid API accepts.

Filters take the form column<op>value:
  =   text equals (case-insensitive)    ~   text contains
  ^   text starts with                  $   text ends with
  >   number greater than               <   number less than
  ==  number equals

--options reads a JSON request body ("-" for stdin) and ignores the other
selection flags.`,
		Example: `  gridsql query ledger --limit 20 --sort amount --desc
  gridsql query ledger --filter region=EU --filter "memo~office"
  gridsql query ledger --group-by region --agg SUM:amount --agg COUNT:transaction_id
  echo '{"limit":5,"filterModel":{"amount":{"filter":50,"filterType":"number","type":"greaterThan"}}}' | gridsql query ledger --options -`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeTables,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				opts query.Options
				err  error
			)
			if optionsFile != "" {
				opts, err = readOptions(cmd.InOrStdin(), optionsFile)
			} else {
				opts, err = flags.options()
			}
			if err != nil {
				return err
			}

			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := cc.Engine.RunQuery(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			return cc.Renderer.Result(res)
		},
	}

	f := cmd.Flags()
	f.IntVar(&flags.limit, "limit", DefaultQueryLimit, "Maximum rows to return")
	f.IntVar(&flags.offset, "offset", 0, "Rows to skip")
	f.StringVar(&flags.sort, "sort", "", "Column or aggregate label to sort by")
	f.BoolVar(&flags.desc, "desc", false, "Sort descending")
	f.StringSliceVar(&flags.groupBy, "group-by", nil, "Columns to group by")
	f.StringArrayVar(&flags.aggregates, "agg", nil, "Aggregate as FUNC:column (SUM, AVG, COUNT, MIN, MAX)")
	f.StringArrayVar(&flags.filters, "filter", nil, "Filter as column<op>value")
	f.StringVar(&optionsFile, "options", "", "Read JSON query options from file (- for stdin)")

	return cmd
}

// readOptions decodes query options from path, or from stdin when path is "-".
func readOptions(stdin io.Reader, path string) (query.Options, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return query.Options{}, fmt.Errorf("failed to read options: %w", err)
	}
	return query.DecodeOptions(data)
}

// completeTables completes the first argument with table names. Completion
// bypasses the root pre-run hook, so configuration is loaded here.
func completeTables(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if config.FromContext(ctx) == nil {
		cfgFile, _ := cmd.Flags().GetString("config")
		target, _ := cmd.Flags().GetString("target")
		cfg, err := config.Load(cfgFile, target, cmd.Flags())
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		ctx = config.WithConfig(ctx, cfg)
	}
	cmd.SetContext(ctx)

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer cleanup()
	return cc.Engine.ListTables(), cobra.ShellCompDirectiveNoFileComp
}
