// Package sqlbuild renders small structured SELECT and UPDATE statements into
// dialect-specific SQL with bound parameters.
//
// Callers never pass raw SQL fragments. Identifiers are quoted by the dialect
// and every value becomes a placeholder, so the only text that reaches the
// statement verbatim is produced here.
package sqlbuild

import (
	"strings"
)

// Expr is a value expression: a column, a bound parameter or a function call.
type Expr interface {
	writeExpr(w *writer)
}

// Predicate is a boolean condition usable in WHERE and HAVING.
type Predicate interface {
	writePredicate(w *writer)
}

// ColumnRef references a column by its reflected name.
type ColumnRef struct {
	Name string
}

// Col is shorthand for ColumnRef.
func Col(name string) ColumnRef { return ColumnRef{Name: name} }

func (c ColumnRef) writeExpr(w *writer) {
	w.ident(c.Name)
}

// Param is a bound parameter value.
type Param struct {
	Value any
}

// Val is shorthand for Param.
func Val(v any) Param { return Param{Value: v} }

func (p Param) writeExpr(w *writer) {
	w.param(p.Value)
}

// Star renders a bare * (only meaningful inside COUNT).
type Star struct{}

func (Star) writeExpr(w *writer) { w.raw("*") }

// Func is a function call over one argument, e.g. SUM(col) or LOWER(?).
// Name must come from a fixed vocabulary, never from caller input.
type Func struct {
	Name string
	Arg  Expr
}

func (f Func) writeExpr(w *writer) {
	w.raw(strings.ToUpper(f.Name))
	w.raw("(")
	f.Arg.writeExpr(w)
	w.raw(")")
}

// Lower wraps an expression in LOWER().
func Lower(e Expr) Func { return Func{Name: "LOWER", Arg: e} }

// CountStar is COUNT(*).
func CountStar() Func { return Func{Name: "COUNT", Arg: Star{}} }

// Compare is a binary comparison.
type Compare struct {
	Left  Expr
	Op    CompareOp
	Right Expr
}

// CompareOp is a comparison operator.
type CompareOp string

// Comparison operators.
const (
	OpEq CompareOp = "="
	OpGt CompareOp = ">"
	OpLt CompareOp = "<"
)

func (c Compare) writePredicate(w *writer) {
	c.Left.writeExpr(w)
	w.raw(" " + string(c.Op) + " ")
	c.Right.writeExpr(w)
}

// Eq builds left = right.
func Eq(left, right Expr) Compare { return Compare{Left: left, Op: OpEq, Right: right} }

// Like matches Expr against a pattern case-insensitively.
// Pattern is bound as a parameter; callers escape literal parts with EscapeLike.
type Like struct {
	Expr    Expr
	Pattern string
}

func (l Like) writePredicate(w *writer) {
	if w.d.CaseInsensitiveLike {
		l.Expr.writeExpr(w)
		w.raw(" ILIKE ")
		w.param(l.Pattern)
	} else {
		Lower(l.Expr).writeExpr(w)
		w.raw(" LIKE ")
		Lower(Val(l.Pattern)).writeExpr(w)
	}
	if w.d.LikeEscapeClause {
		w.raw(" ESCAPE '" + LikeEscapeChar + "'")
	}
}

// In tests membership in a list of bound values.
type In struct {
	Expr   Expr
	Values []any
	Not    bool
}

func (in In) writePredicate(w *writer) {
	in.Expr.writeExpr(w)
	if in.Not {
		w.raw(" NOT IN (")
	} else {
		w.raw(" IN (")
	}
	for i, v := range in.Values {
		if i > 0 {
			w.raw(", ")
		}
		w.param(v)
	}
	w.raw(")")
}

// And joins predicates with AND.
type And []Predicate

func (a And) writePredicate(w *writer) {
	if len(a) == 0 {
		w.raw("1 = 1")
		return
	}
	writeJoined(w, []Predicate(a), " AND ")
}

// Or joins predicates with OR.
type Or []Predicate

func (o Or) writePredicate(w *writer) {
	if len(o) == 0 {
		w.raw("1 = 0")
		return
	}
	writeJoined(w, []Predicate(o), " OR ")
}

func writeJoined(w *writer, preds []Predicate, sep string) {
	if len(preds) == 1 {
		preds[0].writePredicate(w)
		return
	}
	w.raw("(")
	for i, p := range preds {
		if i > 0 {
			w.raw(sep)
		}
		p.writePredicate(w)
	}
	w.raw(")")
}
