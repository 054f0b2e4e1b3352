package sqlbuild

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/leapstack-labs/gridsql/pkg/core"
	"github.com/leapstack-labs/gridsql/pkg/dialect"
)

// ErrNoDialect is returned when a statement is rendered without a dialect.
var ErrNoDialect = dialect.ErrDialectRequired

// Table names the statement target. Schema may be empty.
type Table struct {
	Schema string
	Name   string
}

func (t Table) write(w *writer) {
	w.raw(w.d.QuoteQualified(t.Schema, t.Name))
}

// SelectItem is one output column. An empty Alias renders the bare expression.
type SelectItem struct {
	Expr  Expr
	Alias string
}

// OrderItem is one ORDER BY key. Label refers to a column or an output alias.
type OrderItem struct {
	Label string
	Desc  bool
}

// Select is a single-table SELECT.
type Select struct {
	From    Table
	Items   []SelectItem // empty means *
	Where   []Predicate  // ANDed
	GroupBy []string
	Having  []Predicate // ANDed
	OrderBy []OrderItem
	Limit   int // 0 means no LIMIT clause
	Offset  int
}

// Render produces the SQL text and its bound arguments.
func (s *Select) Render(d *dialect.Dialect) (string, []any, error) {
	if d == nil {
		return "", nil, ErrNoDialect
	}
	if s.From.Name == "" {
		return "", nil, errors.New("select requires a table")
	}
	if s.Limit < 0 || s.Offset < 0 {
		return "", nil, fmt.Errorf("invalid limit/offset %d/%d", s.Limit, s.Offset)
	}

	w := newWriter(d)
	w.raw("SELECT ")
	if len(s.Items) == 0 {
		w.raw("*")
	}
	for i, item := range s.Items {
		if i > 0 {
			w.raw(", ")
		}
		item.Expr.writeExpr(w)
		if item.Alias != "" {
			w.raw(" AS ")
			w.ident(item.Alias)
		}
	}

	w.raw(" FROM ")
	s.From.write(w)

	if len(s.Where) > 0 {
		w.raw(" WHERE ")
		writeClause(w, s.Where)
	}

	if len(s.GroupBy) > 0 {
		w.raw(" GROUP BY ")
		for i, col := range s.GroupBy {
			if i > 0 {
				w.raw(", ")
			}
			w.ident(col)
		}
	}

	if len(s.Having) > 0 {
		w.raw(" HAVING ")
		writeClause(w, s.Having)
	}

	if len(s.OrderBy) > 0 {
		w.raw(" ORDER BY ")
		for i, o := range s.OrderBy {
			if i > 0 {
				w.raw(", ")
			}
			w.ident(o.Label)
			if o.Desc {
				w.raw(" DESC")
			} else {
				w.raw(" ASC")
			}
		}
	}

	// Limit and offset are validated ints, rendered inline because not every
	// driver accepts placeholders there.
	if s.Limit > 0 {
		w.raw(" LIMIT " + strconv.Itoa(s.Limit))
	}
	if s.Offset > 0 {
		w.raw(" OFFSET " + strconv.Itoa(s.Offset))
	}

	sql, args := w.result()
	return sql, args, nil
}

// writeClause renders top-level ANDed predicates without outer parentheses.
func writeClause(w *writer, preds []Predicate) {
	for i, p := range preds {
		if i > 0 {
			w.raw(" AND ")
		}
		p.writePredicate(w)
	}
}

// Update sets one column on the rows matching Where.
type Update struct {
	Table  Table
	Column string
	Value  any
	Where  []Predicate // ANDed, required
}

// Render produces the UPDATE in the dialect's form.
func (u *Update) Render(d *dialect.Dialect) (string, []any, error) {
	if d == nil {
		return "", nil, ErrNoDialect
	}
	if u.Table.Name == "" || u.Column == "" {
		return "", nil, errors.New("update requires a table and a column")
	}
	if len(u.Where) == 0 {
		return "", nil, errors.New("update requires a WHERE condition")
	}

	w := newWriter(d)
	switch d.Update {
	case core.UpdateAlterTable:
		w.raw("ALTER TABLE ")
		u.Table.write(w)
		w.raw(" UPDATE ")
	default:
		w.raw("UPDATE ")
		u.Table.write(w)
		w.raw(" SET ")
	}
	w.ident(u.Column)
	w.raw(" = ")
	w.param(u.Value)
	w.raw(" WHERE ")
	writeClause(w, u.Where)

	sql, args := w.result()
	return sql, args, nil
}
