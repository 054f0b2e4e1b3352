// Package clickhouse provides a ClickHouse adapter for gridsql using the
// database/sql interface of clickhouse-go.
package clickhouse

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/leapstack-labs/gridsql/pkg/adapter"
	"github.com/leapstack-labs/gridsql/pkg/core"
	"github.com/leapstack-labs/gridsql/pkg/dialect"
	chdialect "github.com/leapstack-labs/gridsql/pkg/dialects/clickhouse"
)

const (
	defaultPort     = 9000
	defaultDatabase = "default"
)

// Adapter implements the adapter.Adapter interface for ClickHouse.
type Adapter struct {
	adapter.BaseSQLAdapter
	database string
}

// New creates a new ClickHouse adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Dialect returns the ClickHouse dialect.
func (a *Adapter) Dialect() *dialect.Dialect {
	return chdialect.ClickHouse
}

// buildOptions maps the target config onto driver options.
// Options["secure"] = "true" enables TLS (ClickHouse Cloud, port 9440).
func buildOptions(cfg adapter.Config) *clickhouse.Options {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	database := cfg.Database
	if database == "" {
		database = defaultDatabase
	}

	opts := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", host, port)},
		Auth: clickhouse.Auth{
			Database: database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
			// Edits are mutations; wait for them so the next read sees the change.
			"mutations_sync": 1,
		},
		DialTimeout: 5 * time.Second,
	}

	if secure, _ := strconv.ParseBool(cfg.Options["secure"]); secure {
		opts.TLS = &tls.Config{}
	}
	return opts
}

// Connect opens a database/sql pool through clickhouse.OpenDB.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	opts := buildOptions(cfg)

	a.Logger.Debug("connecting to clickhouse",
		slog.String("addr", opts.Addr[0]),
		slog.String("database", opts.Auth.Database),
		slog.Bool("secure", opts.TLS != nil))

	db := clickhouse.OpenDB(opts)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	a.database = opts.Auth.Database
	return nil
}

// Exec runs a statement. Mutations do not report affected rows, so an
// ALTER TABLE statement reports -1 (unknown) on success.
func (a *Adapter) Exec(ctx context.Context, sqlStr string, args ...any) (int64, error) {
	n, err := a.BaseSQLAdapter.Exec(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	if isMutation(sqlStr) {
		return -1, nil
	}
	return n, nil
}

func isMutation(sqlStr string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(sqlStr)), "ALTER TABLE")
}

// ListTables returns the tables of the connected database from system.tables.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	if a.DB == nil {
		return nil, adapter.ErrNotConnected
	}

	rows, err := a.DB.QueryContext(ctx,
		`SELECT name FROM system.tables WHERE database = ? AND NOT is_temporary ORDER BY name`,
		a.database)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table names: %w", err)
	}
	return tables, nil
}

// GetTableMetadata reflects columns from system.columns.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	if a.DB == nil {
		return nil, adapter.ErrNotConnected
	}

	database, name := a.database, table
	if parts := strings.SplitN(table, ".", 2); len(parts) == 2 {
		database, name = parts[0], parts[1]
	}

	rows, err := a.DB.QueryContext(ctx, `
		SELECT name, type, position, is_in_primary_key
		FROM system.columns
		WHERE database = ? AND table = ?
		ORDER BY position
	`, database, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var (
			col      core.Column
			position uint64
			inPK     uint8
		)
		if err := rows.Scan(&col.Name, &col.Type, &position, &inPK); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Position = int(position)
		col.PrimaryKey = inPK == 1
		col.Nullable = strings.HasPrefix(col.Type, "Nullable(")
		col.Kind = core.InferKind(col.Type)
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	return &core.TableMetadata{
		Schema:  database,
		Name:    name,
		Columns: columns,
	}, nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
