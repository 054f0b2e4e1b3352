// Package engine wires the catalog, query builder, mutator, checks and
// history store behind one facade used by the CLI and the HTTP server.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/gridsql/internal/catalog"
	"github.com/leapstack-labs/gridsql/internal/checks"
	"github.com/leapstack-labs/gridsql/internal/mutate"
	"github.com/leapstack-labs/gridsql/internal/query"
	"github.com/leapstack-labs/gridsql/internal/state"
	"github.com/leapstack-labs/gridsql/pkg/adapter"
	"github.com/leapstack-labs/gridsql/pkg/dialect"

	// Adapters register themselves by target type.
	_ "github.com/leapstack-labs/gridsql/pkg/adapters/clickhouse"
	_ "github.com/leapstack-labs/gridsql/pkg/adapters/databricks"
	_ "github.com/leapstack-labs/gridsql/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/gridsql/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/gridsql/pkg/adapters/sqlite"
)

// Config holds engine configuration.
type Config struct {
	// Adapter is the data-source target.
	Adapter adapter.Config
	// RowIDColumn identifies rows for edits and duplicate checks.
	RowIDColumn string
	// StatePath is the SQLite history database. Empty disables history.
	StatePath string
	// CatalogConcurrency bounds parallel table reflection.
	CatalogConcurrency int
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine serves grid reads, edits and checks for one data source.
type Engine struct {
	db     adapter.Adapter
	cfg    Config
	logger *slog.Logger
	store  state.Store

	mu      sync.RWMutex
	catalog *catalog.Catalog
	runner  *query.Runner
	mutator *mutate.Mutator
	checker *checks.Checker
}

// Open creates the adapter for cfg.Adapter.Type, connects it and reflects
// the catalog.
func Open(ctx context.Context, cfg Config) (*Engine, error) {
	logger := loggerOrDiscard(cfg.Logger)

	db, err := adapter.NewAdapter(cfg.Adapter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database adapter: %w", err)
	}

	logger.Debug("connecting to database", "adapter_type", cfg.Adapter.Type)
	if err := db.Connect(ctx, cfg.Adapter); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	e, err := New(ctx, db, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return e, nil
}

// New builds an engine over an already connected adapter. The engine owns
// db from here on and closes it in Close.
func New(ctx context.Context, db adapter.Adapter, cfg Config) (*Engine, error) {
	if db.Dialect() == nil {
		return nil, dialect.ErrDialectRequired
	}
	if cfg.RowIDColumn == "" {
		cfg.RowIDColumn = mutate.DefaultRowIDColumn
	}

	e := &Engine{
		db:     db,
		cfg:    cfg,
		logger: loggerOrDiscard(cfg.Logger),
	}

	if cfg.StatePath != "" {
		store := state.NewSQLiteStore()
		if err := store.Open(cfg.StatePath); err != nil {
			return nil, fmt.Errorf("failed to open history store: %w", err)
		}
		e.store = store
	}

	if err := e.Reload(ctx); err != nil {
		_ = e.closeStore()
		return nil, err
	}
	return e, nil
}

// Reload re-reflects the data source and swaps in a fresh catalog.
func (e *Engine) Reload(ctx context.Context) error {
	d := e.db.Dialect()
	cat, err := catalog.Load(ctx, e.db, catalog.Options{
		Concurrency: e.cfg.CatalogConcurrency,
		Logger:      e.logger,
		Normalize:   d.NormalizeName,
	})
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	runner := query.NewRunner(query.NewBuilder(cat, d, e.logger), e.db, e.logger)
	mutator := mutate.New(cat, e.db, mutate.Config{RowIDColumn: e.cfg.RowIDColumn, Logger: e.logger})
	checker := checks.New(cat, e.db, e.cfg.RowIDColumn, e.logger)

	e.mu.Lock()
	e.catalog, e.runner, e.mutator, e.checker = cat, runner, mutator, checker
	e.mu.Unlock()

	e.logger.Debug("catalog loaded", "tables", len(cat.ListTables()), "dialect", d.GetName())
	return nil
}

// Close releases all resources.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")

	var errs []error
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := e.closeStore(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (e *Engine) closeStore() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Ping checks the data source is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	return e.db.Ping(ctx)
}

// Dialect returns the data source dialect.
func (e *Engine) Dialect() *dialect.Dialect {
	return e.db.Dialect()
}

// RowIDColumn returns the configured row identifier column.
func (e *Engine) RowIDColumn() string {
	return e.cfg.RowIDColumn
}

// HistoryEnabled reports whether a history store is attached.
func (e *Engine) HistoryEnabled() bool {
	return e.store != nil
}

func (e *Engine) components() (*catalog.Catalog, *query.Runner, *mutate.Mutator, *checks.Checker) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog, e.runner, e.mutator, e.checker
}

func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
