// Package checks implements the fixed data-quality checks. Each check is
// parameterized only by table name and returns at most ResultLimit rows.
package checks

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/gridsql/internal/catalog"
	"github.com/leapstack-labs/gridsql/internal/query"
	"github.com/leapstack-labs/gridsql/internal/sqlbuild"
	"github.com/leapstack-labs/gridsql/pkg/core"
)

// ResultLimit caps the rows any check returns.
const ResultLimit = 100

// Check names as addressed by the CLI and the HTTP API.
const (
	NameDuplicates         = "duplicates"
	NameInvalidDebitCredit = "invalid-debit-credit"
	NameCategoryMismatch   = "category-mismatch"
)

// DuplicateCountLabel is the output label of the duplicate counter.
const DuplicateCountLabel = "duplicate_count"

// RegionCountries maps each known region to its allowed countries.
// Regions absent from the map are never flagged.
var RegionCountries = []RegionRule{
	{Region: "EU", Countries: []string{"Germany", "France", "Spain"}},
	{Region: "APAC", Countries: []string{"India", "China", "Japan"}},
	{Region: "AMER", Countries: []string{"USA", "Canada", "Mexico"}},
	{Region: "MEA", Countries: []string{"South Africa", "Egypt", "UAE"}},
}

// RegionRule lists the countries allowed for one region.
type RegionRule struct {
	Region    string
	Countries []string
}

// Checker runs checks against one catalog and data source.
type Checker struct {
	catalog *catalog.Catalog
	db      query.Querier
	rowID   string
	logger  *slog.Logger
}

// New creates a Checker. rowID names the column duplicates are counted on.
func New(cat *catalog.Catalog, db query.Querier, rowID string, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Checker{catalog: cat, db: db, rowID: rowID, logger: logger}
}

type checkFunc func(c *Checker, t *catalog.Table) (*sqlbuild.Select, error)

var registry = map[string]checkFunc{
	NameDuplicates:         (*Checker).duplicates,
	NameInvalidDebitCredit: (*Checker).invalidDebitCredit,
	NameCategoryMismatch:   (*Checker).categoryMismatch,
}

// Names returns the registered check names sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the named check on table.
func (c *Checker) Run(ctx context.Context, name, table string) (*core.QueryResult, *query.Executed, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, nil, &core.UnknownCheckError{Name: name, Available: Names()}
	}

	t, err := c.catalog.Table(table)
	if err != nil {
		return nil, nil, err
	}

	sel, err := fn(c, t)
	if err != nil {
		return nil, nil, err
	}

	sqlStr, args, err := sel.Render(c.db.Dialect())
	if err != nil {
		return nil, nil, fmt.Errorf("render check %s: %w", name, err)
	}

	res, exec, err := query.Execute(ctx, c.db, sqlStr, args...)
	if err != nil {
		return nil, exec, err
	}

	c.logger.Info("check executed",
		slog.String("check", name),
		slog.String("table", table),
		slog.Int("rows", res.Len()))
	return res, exec, nil
}

// Duplicates returns row identifiers that occur more than once with their count.
func (c *Checker) Duplicates(ctx context.Context, table string) (*core.QueryResult, error) {
	res, _, err := c.Run(ctx, NameDuplicates, table)
	return res, err
}

// InvalidDebitCredit returns rows where debit or credit is zero.
func (c *Checker) InvalidDebitCredit(ctx context.Context, table string) (*core.QueryResult, error) {
	res, _, err := c.Run(ctx, NameInvalidDebitCredit, table)
	return res, err
}

// CategoryMismatch returns rows whose country is not allowed for their region.
func (c *Checker) CategoryMismatch(ctx context.Context, table string) (*core.QueryResult, error) {
	res, _, err := c.Run(ctx, NameCategoryMismatch, table)
	return res, err
}

func (c *Checker) duplicates(t *catalog.Table) (*sqlbuild.Select, error) {
	if _, err := t.RequireColumn(c.rowID); err != nil {
		return nil, err
	}
	return &sqlbuild.Select{
		From: tableRef(t),
		Items: []sqlbuild.SelectItem{
			{Expr: sqlbuild.Col(c.rowID)},
			{Expr: sqlbuild.CountStar(), Alias: DuplicateCountLabel},
		},
		GroupBy: []string{c.rowID},
		Having: []sqlbuild.Predicate{
			sqlbuild.Compare{Left: sqlbuild.CountStar(), Op: sqlbuild.OpGt, Right: sqlbuild.Val(1)},
		},
		OrderBy: []sqlbuild.OrderItem{{Label: c.rowID}},
		Limit:   ResultLimit,
	}, nil
}

func (c *Checker) invalidDebitCredit(t *catalog.Table) (*sqlbuild.Select, error) {
	for _, col := range []string{"debit", "credit"} {
		if _, err := t.RequireColumn(col); err != nil {
			return nil, err
		}
	}
	return &sqlbuild.Select{
		From:  tableRef(t),
		Items: allColumns(t),
		Where: []sqlbuild.Predicate{sqlbuild.Or{
			sqlbuild.Eq(sqlbuild.Col("debit"), sqlbuild.Val(0)),
			sqlbuild.Eq(sqlbuild.Col("credit"), sqlbuild.Val(0)),
		}},
		Limit: ResultLimit,
	}, nil
}

func (c *Checker) categoryMismatch(t *catalog.Table) (*sqlbuild.Select, error) {
	for _, col := range []string{"region", "country"} {
		if _, err := t.RequireColumn(col); err != nil {
			return nil, err
		}
	}

	var mismatch sqlbuild.Or
	for _, rule := range RegionCountries {
		allowed := make([]any, len(rule.Countries))
		for i, country := range rule.Countries {
			allowed[i] = country
		}
		mismatch = append(mismatch, sqlbuild.And{
			sqlbuild.Eq(sqlbuild.Col("region"), sqlbuild.Val(rule.Region)),
			sqlbuild.In{Expr: sqlbuild.Col("country"), Values: allowed, Not: true},
		})
	}

	return &sqlbuild.Select{
		From:  tableRef(t),
		Items: allColumns(t),
		Where: []sqlbuild.Predicate{mismatch},
		Limit: ResultLimit,
	}, nil
}

func tableRef(t *catalog.Table) sqlbuild.Table {
	return sqlbuild.Table{Schema: t.Schema, Name: t.Name}
}

func allColumns(t *catalog.Table) []sqlbuild.SelectItem {
	items := make([]sqlbuild.SelectItem, len(t.Columns))
	for i, col := range t.Columns {
		items[i] = sqlbuild.SelectItem{Expr: sqlbuild.Col(col.Name)}
	}
	return items
}
