// Package catalog holds the reflected schema of the connected data source.
//
// The catalog is built once by Load and is read-only afterwards; it is the
// whitelist every table and column name is checked against before a
// statement is rendered.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/gridsql/pkg/core"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel column reflection.
const DefaultConcurrency = 8

// Reflector is the part of an adapter the catalog needs.
type Reflector interface {
	ListTables(ctx context.Context) ([]string, error)
	GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error)
}

// Table is a reflected table with its ordered columns.
type Table struct {
	Schema  string
	Name    string
	Columns []core.Column

	index      map[string]int
	normalize  func(string) string
	normalized map[string]int
}

func newTable(meta *core.TableMetadata, name string, normalize func(string) string) *Table {
	t := &Table{
		Schema:    meta.Schema,
		Name:      name,
		Columns:   meta.Columns,
		index:     make(map[string]int, len(meta.Columns)),
		normalize: normalize,
	}
	keys := make([]string, len(meta.Columns))
	for i, c := range meta.Columns {
		t.index[c.Name] = i
		keys[i] = c.Name
	}
	if normalize != nil {
		t.normalized = uniqueKeys(keys, normalize)
	}
	return t
}

// uniqueKeys maps normalized names to their position. Names that collide
// after normalization are left out so they only resolve exactly.
func uniqueKeys(names []string, normalize func(string) string) map[string]int {
	out := make(map[string]int, len(names))
	dup := make(map[string]bool)
	for i, n := range names {
		k := normalize(n)
		if _, seen := out[k]; seen {
			dup[k] = true
			continue
		}
		out[k] = i
	}
	for k := range dup {
		delete(out, k)
	}
	return out
}

// Column returns the named column. An exact match wins; otherwise the
// name is resolved through the dialect's normalization, if any.
func (t *Table) Column(name string) (core.Column, bool) {
	i, ok := t.index[name]
	if !ok && t.normalize != nil {
		i, ok = t.normalized[t.normalize(name)]
	}
	if !ok {
		return core.Column{}, false
	}
	return t.Columns[i], true
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// RequireColumn returns the named column or an UnknownColumnError.
func (t *Table) RequireColumn(name string) (core.Column, error) {
	col, ok := t.Column(name)
	if !ok {
		return core.Column{}, &core.UnknownColumnError{Table: t.Name, Column: name}
	}
	return col, nil
}

// ColumnNames returns column names in natural order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Catalog is an immutable snapshot of the data source schema.
type Catalog struct {
	tables     map[string]*Table
	names      []string
	normalize  func(string) string
	normalized map[string]int
}

// Options configures Load.
type Options struct {
	Concurrency int
	Logger      *slog.Logger

	// Normalize folds table and column names for lookups that miss an
	// exact match. Typically dialect.Dialect.NormalizeName.
	Normalize func(string) string
}

// Load reflects every table and its columns. Column reflection runs
// concurrently, bounded by opts.Concurrency. Any failure aborts the load.
func Load(ctx context.Context, r Reflector, opts Options) (*Catalog, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	names, err := r.ListTables(ctx)
	if err != nil {
		return nil, core.WrapDataSource("list tables", err)
	}

	tables := make([]*Table, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, name := range names {
		g.Go(func() error {
			meta, err := r.GetTableMetadata(gctx, name)
			if err != nil {
				return core.WrapDataSource(fmt.Sprintf("reflect table %s", name), err)
			}
			tables[i] = newTable(meta, name, opts.Normalize)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := build(opts.Normalize, tables)
	logger.Debug("catalog loaded", slog.Int("tables", len(c.names)))
	return c, nil
}

// New builds a catalog from already reflected tables. Lookups are exact.
func New(tables ...*Table) *Catalog {
	return build(nil, tables)
}

// NewNormalized builds a catalog whose lookups fall back to normalize.
func NewNormalized(normalize func(string) string, tables ...*Table) *Catalog {
	return build(normalize, tables)
}

func build(normalize func(string) string, tables []*Table) *Catalog {
	c := &Catalog{tables: make(map[string]*Table, len(tables)), normalize: normalize}
	for _, t := range tables {
		if t.index == nil || (t.normalize == nil && normalize != nil) {
			t = newTable(&core.TableMetadata{Schema: t.Schema, Name: t.Name, Columns: t.Columns}, t.Name, normalize)
		}
		c.tables[t.Name] = t
		c.names = append(c.names, t.Name)
	}
	sort.Strings(c.names)
	if normalize != nil {
		c.normalized = uniqueKeys(c.names, normalize)
	}
	return c
}

// ListTables returns all table names sorted.
func (c *Catalog) ListTables() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Table returns the named table or an UnknownTableError.
func (c *Catalog) Table(name string) (*Table, error) {
	if t, ok := c.tables[name]; ok {
		return t, nil
	}
	if c.normalize != nil {
		if i, ok := c.normalized[c.normalize(name)]; ok {
			return c.tables[c.names[i]], nil
		}
	}
	return nil, &core.UnknownTableError{Table: name}
}

// GetColumns returns the ordered columns of the named table.
func (c *Catalog) GetColumns(name string) ([]core.Column, error) {
	t, err := c.Table(name)
	if err != nil {
		return nil, err
	}
	out := make([]core.Column, len(t.Columns))
	copy(out, t.Columns)
	return out, nil
}
