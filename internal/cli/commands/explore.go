package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/gridsql/internal/checks"
	"github.com/leapstack-labs/gridsql/internal/engine"
)

const explorePrompt = "gridsql> "

// NewExploreCommand creates the explore command.
func NewExploreCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "explore [table]",
		Aliases: []string{"repl"},
		Short:   "Browse tables interactively",
		Long: `Start an interactive session against the configured target.

A line is a read:
  <table> [filter ...] [limit N] [offset N] [sort col [asc|desc]] [group col,...] [agg FUNC:col]

Filters use the same column<op>value form as 'gridsql query'. After .use <table>
the table name may be omitted. Type .help for the dot-commands.`,
		Example: `  gridsql explore
  gridsql explore ledger`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ex := &explorer{cc: cc, out: cmd.OutOrStdout(), limit: limit}
			if len(args) == 1 {
				if _, err := cc.Engine.GetColumns(args[0]); err != nil {
					return err
				}
				ex.table = args[0]
			}
			return ex.loop(cmd)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Default page size for reads")
	return cmd
}

// explorer evaluates explore lines against an engine.
type explorer struct {
	cc    *CommandContext
	out   io.Writer
	table string
	limit int
}

func (ex *explorer) engine() *engine.Engine { return ex.cc.Engine }

func (ex *explorer) prompt() string {
	if ex.table == "" {
		return explorePrompt
	}
	return fmt.Sprintf("gridsql:%s> ", ex.table)
}

func (ex *explorer) loop(cmd *cobra.Command) error {
	historyFile := ""
	if ex.cc.Cfg.StatePath != "" && ex.cc.Cfg.StatePath != ":memory:" {
		historyFile = filepath.Join(filepath.Dir(ex.cc.Cfg.StatePath), "explore_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ex.prompt(),
		HistoryFile:     historyFile,
		AutoComplete:    ex.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize explorer: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(ex.out, "gridsql explorer (%s, %d tables)\n", ex.engine().Dialect().Name, len(ex.engine().ListTables()))
	_, _ = fmt.Fprintln(ex.out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(ex.out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		quit, err := ex.exec(cmd.Context(), line)
		if err != nil {
			ex.cc.Renderer.Error(err.Error())
		}
		if quit {
			return nil
		}
		rl.SetPrompt(ex.prompt())
		_, _ = fmt.Fprintln(ex.out)
	}
}

// exec evaluates one line and reports whether the session should end.
func (ex *explorer) exec(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if strings.HasPrefix(line, ".") {
		return ex.dotCommand(ctx, strings.Fields(line))
	}

	if ex.table != "" && !ex.isTable(strings.Fields(line)[0]) {
		line = ex.table + " " + line
	}
	table, opts, err := parseStatement(line, ex.limit)
	if err != nil {
		return false, err
	}
	res, err := ex.engine().RunQuery(ctx, table, opts)
	if err != nil {
		return false, err
	}
	return false, ex.cc.Renderer.Result(res)
}

func (ex *explorer) dotCommand(ctx context.Context, parts []string) (bool, error) {
	arg := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true, nil

	case ".help":
		printExploreHelp(ex.out)

	case ".tables":
		for _, t := range ex.engine().ListTables() {
			_, _ = fmt.Fprintln(ex.out, t)
		}

	case ".columns", ".schema":
		table := ex.tableArg(arg(1))
		if table == "" {
			return false, errors.New("usage: .columns <table>")
		}
		cols, err := ex.engine().GetColumns(table)
		if err != nil {
			return false, err
		}
		rows := make([][]any, len(cols))
		for i, c := range cols {
			rows[i] = []any{c.Name, c.Type, string(c.Kind), c.Nullable}
		}
		return false, ex.cc.Renderer.Table([]string{"name", "type", "kind", "nullable"}, rows, cols)

	case ".use":
		table := arg(1)
		if _, err := ex.engine().GetColumns(table); err != nil {
			return false, err
		}
		ex.table = table

	case ".limit":
		n, err := strconv.Atoi(arg(1))
		if err != nil || n <= 0 {
			return false, errors.New("usage: .limit <positive integer>")
		}
		ex.limit = n

	case ".check":
		name, table := arg(1), ex.tableArg(arg(2))
		if name == "" || table == "" {
			return false, fmt.Errorf("usage: .check <%s> <table>", strings.Join(checks.Names(), "|"))
		}
		res, err := ex.engine().RunCheck(ctx, name, table)
		if err != nil {
			return false, err
		}
		return false, ex.cc.Renderer.Result(res)

	case ".history":
		records, err := ex.engine().History(ctx, 10)
		if err != nil {
			return false, err
		}
		for _, r := range records {
			_, _ = fmt.Fprintf(ex.out, "%s  %-5s  %-8s  %4d rows  %s\n",
				r.CreatedAt.Local().Format(time.TimeOnly), r.Kind, r.Table, r.Rows, r.SQL)
		}

	case ".reload":
		if err := ex.engine().Reload(ctx); err != nil {
			return false, err
		}
		_, _ = fmt.Fprintf(ex.out, "reloaded %d tables\n", len(ex.engine().ListTables()))

	default:
		return false, fmt.Errorf("unknown command: %s (type .help for commands)", parts[0])
	}
	return false, nil
}

func (ex *explorer) tableArg(s string) string {
	if s != "" {
		return s
	}
	return ex.table
}

func (ex *explorer) isTable(name string) bool {
	for _, t := range ex.engine().ListTables() {
		if t == name {
			return true
		}
	}
	return false
}

func (ex *explorer) completer() *readline.PrefixCompleter {
	tables := ex.engine().ListTables()
	tableItems := func() []readline.PrefixCompleterInterface {
		items := make([]readline.PrefixCompleterInterface, len(tables))
		for i, t := range tables {
			items[i] = readline.PcItem(t)
		}
		return items
	}

	checkItems := make([]readline.PrefixCompleterInterface, 0, len(checks.Names()))
	for _, name := range checks.Names() {
		checkItems = append(checkItems, readline.PcItem(name, tableItems()...))
	}

	items := append(tableItems(),
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".columns", tableItems()...),
		readline.PcItem(".use", tableItems()...),
		readline.PcItem(".check", checkItems...),
		readline.PcItem(".limit"),
		readline.PcItem(".history"),
		readline.PcItem(".reload"),
		readline.PcItem(".quit"),
	)
	return readline.NewPrefixCompleter(items...)
}

func printExploreHelp(w io.Writer) {
	help := `
Commands:
  .help                 Show this help message
  .tables               List tables
  .columns [table]      Describe a table
  .use <table>          Read from table when a line omits it
  .limit <n>            Set the default page size
  .check <name> [table] Run a data-quality check
  .history              Show the last recorded statements
  .reload               Re-read tables and columns from the data source
  .quit / .exit         Leave the explorer

Reads:
  ledger region=EU amount>100 sort amount desc limit 10
  ledger group region agg SUM:amount agg COUNT:transaction_id
`
	_, _ = fmt.Fprintln(w, help)
}
