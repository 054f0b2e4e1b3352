package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/gridsql/internal/cli/config"
	sharedcfg "github.com/leapstack-labs/gridsql/internal/config"
	"github.com/leapstack-labs/gridsql/pkg/adapter"
)

// projectFile is the layout written by init.
type projectFile struct {
	Target      *config.TargetConfig `yaml:"target"`
	RowIDColumn string               `yaml:"row_id_column"`
	StatePath   string               `yaml:"state_path"`
	Server      serverFile           `yaml:"server"`
}

// serverFile writes durations as strings ("10s") rather than nanoseconds.
type serverFile struct {
	Addr              string  `yaml:"addr"`
	EditRate          float64 `yaml:"edit_rate"`
	EditBurst         int     `yaml:"edit_burst"`
	MaxLimit          int     `yaml:"max_limit"`
	ReadHeaderTimeout string  `yaml:"read_header_timeout"`
	ShutdownTimeout   string  `yaml:"shutdown_timeout"`
}

func newServerFile(sc config.ServerConfig) serverFile {
	return serverFile{
		Addr:              sc.Addr,
		EditRate:          sc.EditRate,
		EditBurst:         sc.EditBurst,
		MaxLimit:          sc.MaxLimit,
		ReadHeaderTimeout: sc.ReadHeaderTimeout.String(),
		ShutdownTimeout:   sc.ShutdownTimeout.String(),
	}
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var (
		force    bool
		sample   bool
		dbType   string
		database string
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a gridsql project",
		Long: `Write a gridsql.yaml for a target.

With --sample a small ledger table is created in the target database so the
grid, edits and checks can be tried immediately (sqlite and duckdb only).`,
		Example: `  # SQLite file next to the config
  gridsql init

  # DuckDB with a sample ledger
  gridsql init demo --type duckdb --sample

  # Overwrite an existing config
  gridsql init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			cc := NewCommandContextWithoutEngine(cmd)

			path, err := writeProjectFile(dir, dbType, database, force)
			if err != nil {
				return err
			}
			cc.Renderer.Success("wrote " + path)

			if sample {
				target := &config.TargetConfig{Type: dbType, Database: filepath.Join(dir, database)}
				if err := seedSample(cmd.Context(), target, cc.Logger); err != nil {
					return err
				}
				cc.Renderer.Success(fmt.Sprintf("created sample table %q in %s", sampleTable, target.Database))
			}

			cc.Renderer.Println()
			cc.Renderer.Println("Next steps:")
			cc.Renderer.Println("  gridsql tables")
			cc.Renderer.Println("  gridsql serve")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing gridsql.yaml")
	cmd.Flags().BoolVar(&sample, "sample", false, "Create a sample ledger table")
	cmd.Flags().StringVar(&dbType, "type", "sqlite", "Target type")
	cmd.Flags().StringVar(&database, "database", "ledger.db", "Database file or name")
	_ = cmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return adapter.ListAdapters(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// writeProjectFile writes dir/gridsql.yaml and returns its path.
func writeProjectFile(dir, dbType, database string, force bool) (string, error) {
	if !adapter.IsRegistered(dbType) {
		return "", &adapter.UnknownAdapterError{Type: dbType, Available: adapter.ListAdapters()}
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	path := filepath.Join(dir, sharedcfg.ConfigFileName)
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	target := &config.TargetConfig{Type: dbType, Database: database}
	switch dbType {
	case "postgres", "clickhouse":
		target.Host = "localhost"
		target.User = "${USER}"
		target.Password = "${GRIDSQL_PASSWORD}"
	case "databricks":
		// Host, HTTP path and token come from DATABRICKS_* variables.
		target.Database = ""
	}

	data, err := yaml.Marshal(projectFile{
		Target:      target,
		RowIDColumn: config.DefaultRowIDColumn,
		StatePath:   config.DefaultStateFile,
		Server:      newServerFile(sharedcfg.DefaultServerConfig()),
	})
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

const sampleTable = "ledger"

var sampleStatements = []string{
	`CREATE TABLE ledger (
		transaction_id VARCHAR NOT NULL,
		account VARCHAR NOT NULL,
		region VARCHAR,
		country VARCHAR,
		category VARCHAR,
		debit DOUBLE NOT NULL,
		credit DOUBLE NOT NULL,
		amount DOUBLE NOT NULL,
		memo VARCHAR
	)`,
	`INSERT INTO ledger VALUES
		('T-1001', 'Cash',     'EU',   'Germany', 'Rent',     1200, 1200, 1200, 'Office rent'),
		('T-1002', 'Bank',     'APAC', 'India',   'Software', 340,  340,  340,  'Cloud subscription'),
		('T-1003', 'Cash',     'AMER', 'USA',     'Travel',   560,  560,  560,  'Conference travel'),
		('T-1003', 'Cash',     'AMER', 'Canada',  'Travel',   560,  560,  560,  'Duplicate posting'),
		('T-1004', 'Payables', 'EU',   'Japan',   'Supplies', 0,    75,   75,   'Region mismatch'),
		('T-1005', 'Bank',     'MEA',  'UAE',     'Services', 900,  0,    900,  'Missing credit')`,
}

// seedSample creates the sample ledger through the target's adapter.
func seedSample(ctx context.Context, target *config.TargetConfig, logger *slog.Logger) error {
	if target.Type != "sqlite" && target.Type != "duckdb" {
		return fmt.Errorf("--sample supports sqlite and duckdb targets, not %s", target.Type)
	}

	cfg := target.ToAdapterConfig()
	db, err := adapter.NewAdapter(cfg, logger)
	if err != nil {
		return err
	}
	if err := db.Connect(ctx, cfg); err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	for _, stmt := range sampleStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create sample data: %w", err)
		}
	}
	return nil
}
