package query

import (
	"log/slog"
	"strings"

	"github.com/leapstack-labs/gridsql/internal/catalog"
	"github.com/leapstack-labs/gridsql/internal/sqlbuild"
	"github.com/leapstack-labs/gridsql/pkg/core"
	"github.com/leapstack-labs/gridsql/pkg/dialect"
)

// Plan is a validated read statement plus its output labels.
type Plan struct {
	Select *sqlbuild.Select
	Labels []string
}

// Render renders the plan for d.
func (p *Plan) Render(d *dialect.Dialect) (string, []any, error) {
	return p.Select.Render(d)
}

// Builder validates Options against the catalog and produces a Plan.
type Builder struct {
	catalog *catalog.Catalog
	dialect *dialect.Dialect
	logger  *slog.Logger
}

// NewBuilder creates a builder. A nil logger discards output.
func NewBuilder(cat *catalog.Catalog, d *dialect.Dialect, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{catalog: cat, dialect: d, logger: logger}
}

// AggregateLabel is the output label of an aggregate: FUNC_column.
func AggregateLabel(function, column string) string {
	return strings.ToUpper(function) + "_" + column
}

// Build resolves table and opts into a Plan.
func (b *Builder) Build(table string, opts Options) (*Plan, error) {
	t, err := b.catalog.Table(table)
	if err != nil {
		return nil, err
	}
	if opts.Limit <= 0 {
		return nil, core.ErrLimitRequired
	}
	if opts.Offset < 0 {
		return nil, core.ErrNegativeOffset
	}

	sel := &sqlbuild.Select{
		From:   sqlbuild.Table{Schema: t.Schema, Name: t.Name},
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}

	groupBy := make([]string, 0, len(opts.GroupBy))
	for _, name := range opts.GroupBy {
		col, err := t.RequireColumn(name)
		if err != nil {
			return nil, err
		}
		groupBy = append(groupBy, col.Name)
	}

	var labels []string
	if len(opts.Aggregates) == 0 {
		for _, c := range t.Columns {
			sel.Items = append(sel.Items, sqlbuild.SelectItem{Expr: sqlbuild.Col(c.Name)})
			labels = append(labels, c.Name)
		}
	} else {
		for _, col := range groupBy {
			sel.Items = append(sel.Items, sqlbuild.SelectItem{Expr: sqlbuild.Col(col)})
			labels = append(labels, col)
		}
		for _, agg := range opts.Aggregates {
			item, label, err := b.aggregateItem(t, agg)
			if err != nil {
				return nil, err
			}
			sel.Items = append(sel.Items, item)
			labels = append(labels, label)
		}
	}
	sel.GroupBy = groupBy

	where, err := filterPredicates(t, opts.FilterModel)
	if err != nil {
		return nil, err
	}
	sel.Where = where

	if order, ok := b.orderBy(t, opts, labels); ok {
		sel.OrderBy = []sqlbuild.OrderItem{order}
	}

	return &Plan{Select: sel, Labels: labels}, nil
}

func (b *Builder) aggregateItem(t *catalog.Table, agg AggregateSpec) (sqlbuild.SelectItem, string, error) {
	col, err := t.RequireColumn(agg.Column)
	if err != nil {
		return sqlbuild.SelectItem{}, "", err
	}

	fn := strings.ToUpper(strings.TrimSpace(agg.Function))
	if !isSupportedAggregate(fn) || !b.dialect.IsAggregate(fn) {
		return sqlbuild.SelectItem{}, "", &core.InvalidAggregateError{
			Column:    agg.Column,
			Function:  agg.Function,
			Supported: dialect.StandardAggregates,
		}
	}

	label := AggregateLabel(fn, col.Name)
	return sqlbuild.SelectItem{
		Expr:  sqlbuild.Func{Name: fn, Arg: sqlbuild.Col(col.Name)},
		Alias: label,
	}, label, nil
}

func isSupportedAggregate(fn string) bool {
	for _, f := range dialect.StandardAggregates {
		if f == fn {
			return true
		}
	}
	return false
}

// orderBy resolves the sort. Unknown columns are ignored and logged: a stale
// grid sort must not fail the read. In aggregate mode only output labels sort.
func (b *Builder) orderBy(t *catalog.Table, opts Options, labels []string) (sqlbuild.OrderItem, bool) {
	if opts.Sort == nil || opts.Sort.Column == "" {
		return sqlbuild.OrderItem{}, false
	}
	col := opts.Sort.Column
	desc := strings.EqualFold(opts.Sort.Direction, "desc")

	if len(opts.Aggregates) > 0 {
		for _, l := range labels {
			if l == col {
				return sqlbuild.OrderItem{Label: col, Desc: desc}, true
			}
		}
	} else if c, ok := t.Column(col); ok {
		return sqlbuild.OrderItem{Label: c.Name, Desc: desc}, true
	}

	b.logger.Debug("ignoring sort on unknown column",
		slog.String("table", t.Name),
		slog.String("column", col))
	return sqlbuild.OrderItem{}, false
}

