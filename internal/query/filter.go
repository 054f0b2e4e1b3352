package query

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/gridsql/internal/catalog"
	"github.com/leapstack-labs/gridsql/internal/sqlbuild"
	"github.com/leapstack-labs/gridsql/pkg/core"
)

// filterPredicates converts a filter model into ANDed predicates, visiting
// columns in sorted order so identical models render identical SQL.
func filterPredicates(t *catalog.Table, model FilterModel) ([]sqlbuild.Predicate, error) {
	if len(model) == 0 {
		return nil, nil
	}

	cols := make([]string, 0, len(model))
	for col := range model {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	preds := make([]sqlbuild.Predicate, 0, len(cols))
	for _, col := range cols {
		p, err := filterPredicate(t, col, model[col])
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

func filterPredicate(t *catalog.Table, column string, cond FilterCondition) (sqlbuild.Predicate, error) {
	col, err := t.RequireColumn(column)
	if err != nil {
		return nil, err
	}

	op := cond.Type
	if op == "" {
		op = OpContains
	}
	malformed := func(reason string) error {
		return &core.MalformedFilterError{
			Column:     column,
			FilterType: cond.FilterType,
			Operator:   op,
			Reason:     reason,
		}
	}

	ref := sqlbuild.Col(col.Name)

	switch cond.FilterType {
	case FilterTypeText:
		text, ok := textValue(cond.Filter)
		if !ok {
			return nil, malformed("text filter value must be a string")
		}
		switch op {
		case OpContains:
			return sqlbuild.Like{Expr: ref, Pattern: sqlbuild.ContainsPattern(text)}, nil
		case OpStartsWith:
			return sqlbuild.Like{Expr: ref, Pattern: sqlbuild.PrefixPattern(text)}, nil
		case OpEndsWith:
			return sqlbuild.Like{Expr: ref, Pattern: sqlbuild.SuffixPattern(text)}, nil
		case OpEquals:
			return sqlbuild.Eq(sqlbuild.Lower(ref), sqlbuild.Lower(sqlbuild.Val(text))), nil
		}
		return nil, malformed("unsupported text operator")

	case FilterTypeNumber:
		n, ok := core.ParseNumber(cond.Filter)
		if !ok {
			return nil, malformed(fmt.Sprintf("value %v is not numeric", cond.Filter))
		}
		switch op {
		case OpEquals:
			return sqlbuild.Compare{Left: ref, Op: sqlbuild.OpEq, Right: sqlbuild.Val(n)}, nil
		case OpGreaterThan:
			return sqlbuild.Compare{Left: ref, Op: sqlbuild.OpGt, Right: sqlbuild.Val(n)}, nil
		case OpLessThan:
			return sqlbuild.Compare{Left: ref, Op: sqlbuild.OpLt, Right: sqlbuild.Val(n)}, nil
		}
		return nil, malformed("unsupported number operator")
	}

	return nil, malformed("unsupported filterType")
}

// textValue accepts strings and renders plain numbers as text; anything
// else (nil, bool, objects) is rejected.
func textValue(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case nil, bool:
		return "", false
	}
	if n, ok := core.ParseNumber(v); ok {
		return fmt.Sprint(n), true
	}
	return "", false
}
