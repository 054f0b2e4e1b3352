// Package databricks provides the Databricks SQL warehouse adapter for gridsql.
package databricks

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	dbsql "github.com/databricks/databricks-sql-go"
	"github.com/leapstack-labs/gridsql/pkg/adapter"
	"github.com/leapstack-labs/gridsql/pkg/dialect"
	dbxdialect "github.com/leapstack-labs/gridsql/pkg/dialects/databricks"
)

const defaultPort = 443

// Adapter implements the adapter.Adapter interface for Databricks SQL warehouses.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new Databricks adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Dialect returns the Databricks dialect.
func (a *Adapter) Dialect() *dialect.Dialect {
	return dbxdialect.Databricks
}

// validateConfig checks the settings the warehouse connector cannot default.
func validateConfig(cfg adapter.Config) error {
	var missing []string
	if cfg.Host == "" {
		missing = append(missing, "host")
	}
	if cfg.HTTPPath == "" {
		missing = append(missing, "http_path")
	}
	if cfg.Token == "" {
		missing = append(missing, "token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("databricks target missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// normalizeHost strips a scheme and trailing slash from a workspace URL.
func normalizeHost(host string) string {
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	return strings.TrimSuffix(host, "/")
}

// Connect opens a connector-based pool against the configured SQL warehouse.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	host := normalizeHost(cfg.Host)

	a.Logger.Debug("connecting to databricks",
		slog.String("host", host),
		slog.String("http_path", cfg.HTTPPath),
		slog.String("catalog", cfg.Catalog),
		slog.String("schema", cfg.Schema))

	connector, err := dbsql.NewConnector(
		dbsql.WithServerHostname(host),
		dbsql.WithPort(port),
		dbsql.WithHTTPPath(cfg.HTTPPath),
		dbsql.WithAccessToken(cfg.Token),
		dbsql.WithInitialNamespace(cfg.Catalog, cfg.Schema),
		dbsql.WithUserAgentEntry("gridsql"),
	)
	if err != nil {
		return fmt.Errorf("failed to create databricks connector: %w", err)
	}

	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping databricks: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// ListTables returns the tables of the configured schema.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	return a.ListTablesCommon(ctx, a.Dialect())
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	return a.GetTableMetadataCommon(ctx, table, a.Dialect())
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
