// Package cli provides the command-line interface for gridsql.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/gridsql/internal/cli/commands"
	"github.com/leapstack-labs/gridsql/internal/cli/config"
	"github.com/leapstack-labs/gridsql/internal/cli/output"
	"github.com/leapstack-labs/gridsql/internal/logger"
	"github.com/leapstack-labs/gridsql/pkg/adapter"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// skipConfig lists commands that run without loading configuration.
var skipConfig = map[string]bool{
	"help":       true,
	"completion": true,
	"__complete": true,
	"init":       true,
	"version":    true,
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile    string
		targetFlag string
	)

	info := commands.BuildInfo{Version: Version, Commit: GitCommit, Date: BuildDate}

	rootCmd := &cobra.Command{
		Use:   "gridsql",
		Short: "gridsql - a spreadsheet-style grid over SQL tables",
		Long: `gridsql serves paged, filtered and aggregated reads over the tables of one
data source, applies single-cell edits and runs data-quality checks.

Every identifier is checked against the reflected catalog and every value
is sent as a bound parameter. Targets: sqlite, duckdb, postgres,
clickhouse and databricks.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipConfig[cmd.Name()] {
				return nil
			}

			cfg, err := config.Load(cfgFile, targetFlag, cmd.Flags())
			if err != nil {
				return err
			}
			if _, err := output.ParseMode(cfg.OutputFormat); err != nil {
				return err
			}

			log := logger.New(cfg.Verbose)
			ctx := config.WithConfig(cmd.Context(), cfg)
			ctx = config.WithLogger(ctx, log)
			cmd.SetContext(ctx)

			if cfg.ConfigFile != "" {
				log.Debug("using config file", "path", cfg.ConfigFile)
			}
			if targetFlag != "" {
				log.Debug("using environment", "name", targetFlag)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./gridsql.yaml)")
	pf.StringVarP(&targetFlag, "target", "t", "", "Environment from the environments section to use (e.g., dev, prod)")
	pf.String("type", "", "Target type (sqlite|duckdb|postgres|clickhouse|databricks)")
	pf.String("database", "", "Target database file or name")
	pf.String("state", "", "Path to the history database")
	pf.String("row-id-column", "", "Column that identifies rows for edits")
	pf.BoolP("verbose", "v", false, "Verbose output")
	pf.StringP("output", "o", "", "Output format (auto|table|markdown|json|csv)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return output.Modes, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return adapter.ListAdapters(), cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(info))
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(commands.NewTablesCommand())
	rootCmd.AddCommand(commands.NewColumnsCommand())
	rootCmd.AddCommand(commands.NewQueryCommand())
	rootCmd.AddCommand(commands.NewEditCommand())
	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewExploreCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewServeCommand(info))
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for gridsql.

To load completions:

Bash:
  $ source <(gridsql completion bash)
  
  # To load completions for each session, execute once:
  # Linux:
  $ gridsql completion bash > /etc/bash_completion.d/gridsql
  # macOS:
  $ gridsql completion bash > $(brew --prefix)/etc/bash_completion.d/gridsql

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc
  
  # To load completions for each session, execute once:
  $ gridsql completion zsh > "${fpath[1]}/_gridsql"
  
  # You will need to start a new shell for this setup to take effect.

Fish:
  $ gridsql completion fish | source
  
  # To load completions for each session, execute once:
  $ gridsql completion fish > ~/.config/fish/completions/gridsql.fish

PowerShell:
  PS> gridsql completion powershell | Out-String | Invoke-Expression
  
  # To load completions for every new session, run:
  PS> gridsql completion powershell > gridsql.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}
	return cmd
}
