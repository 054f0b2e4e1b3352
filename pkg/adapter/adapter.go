// Package adapter provides the database adapter contract used by gridsql.
//
// An adapter owns one connection pool to one data source. It reflects tables
// and columns, and runs parameterized statements that the query builder and
// the row mutator render for its dialect. Concrete adapter implementations
// are in pkg/adapters/ subdirectories.
package adapter

import (
	"context"

	"github.com/leapstack-labs/gridsql/pkg/core"
	"github.com/leapstack-labs/gridsql/pkg/dialect"
)

type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error

	// Exec executes a statement that doesn't return rows and reports the
	// number of rows affected.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)

	// Query executes a statement that returns rows. The caller closes the rows.
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)

	// ListTables returns the base tables visible in the configured schema.
	ListTables(ctx context.Context) ([]string, error)

	// GetTableMetadata retrieves the ordered columns of a table.
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)

	// Dialect returns the SQL dialect used to render statements for this adapter.
	Dialect() *dialect.Dialect
}
