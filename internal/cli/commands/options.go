package commands

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/gridsql/internal/query"
)

// filterOps maps the operator token in a filter expression to its grid
// filter type and operator. Longer tokens come first so "==" wins over "=".
var filterOps = []struct {
	token      string
	filterType string
	op         string
}{
	{"==", query.FilterTypeNumber, query.OpEquals},
	{">", query.FilterTypeNumber, query.OpGreaterThan},
	{"<", query.FilterTypeNumber, query.OpLessThan},
	{"=", query.FilterTypeText, query.OpEquals},
	{"~", query.FilterTypeText, query.OpContains},
	{"^", query.FilterTypeText, query.OpStartsWith},
	{"$", query.FilterTypeText, query.OpEndsWith},
}

// parseFilter parses "col<op>value" into a column and condition.
//
//	region=EU      text equals (case-insensitive)
//	memo~rent      text contains
//	memo^Off       text starts with
//	memo$cost      text ends with
//	amount>50      number greater than
//	amount<50      number less than
//	amount==50     number equals
func parseFilter(expr string) (string, query.FilterCondition, error) {
	best, bestAt := -1, -1
	for i, fo := range filterOps {
		at := strings.Index(expr, fo.token)
		if at <= 0 {
			continue
		}
		if bestAt == -1 || at < bestAt || (at == bestAt && len(fo.token) > len(filterOps[best].token)) {
			best, bestAt = i, at
		}
	}
	if best == -1 {
		return "", query.FilterCondition{}, fmt.Errorf("invalid filter %q: want column<op>value with op one of = ~ ^ $ > < ==", expr)
	}

	fo := filterOps[best]
	column := strings.TrimSpace(expr[:bestAt])
	raw := strings.TrimSpace(expr[bestAt+len(fo.token):])

	var value any = raw
	if fo.filterType == query.FilterTypeNumber {
		// Leave validation to the builder so errors match the API.
		value = json.Number(raw)
	}
	return column, query.FilterCondition{Filter: value, FilterType: fo.filterType, Type: fo.op}, nil
}

// parseAggregate parses "FUNC:column".
func parseAggregate(expr string) (query.AggregateSpec, error) {
	fn, col, ok := strings.Cut(expr, ":")
	if !ok || fn == "" || col == "" {
		return query.AggregateSpec{}, fmt.Errorf("invalid aggregate %q: want FUNC:column", expr)
	}
	return query.AggregateSpec{Column: col, Function: strings.ToUpper(fn)}, nil
}

// queryFlags mirrors query.Options for the command line.
type queryFlags struct {
	limit      int
	offset     int
	sort       string
	desc       bool
	groupBy    []string
	aggregates []string
	filters    []string
}

func (f *queryFlags) options() (query.Options, error) {
	opts := query.Options{
		Limit:   f.limit,
		Offset:  f.offset,
		GroupBy: query.GroupBy(f.groupBy),
	}
	if f.sort != "" {
		dir := "asc"
		if f.desc {
			dir = "desc"
		}
		opts.Sort = &query.SortSpec{Column: f.sort, Direction: dir}
	}
	for _, a := range f.aggregates {
		spec, err := parseAggregate(a)
		if err != nil {
			return query.Options{}, err
		}
		opts.Aggregates = append(opts.Aggregates, spec)
	}
	if len(f.filters) > 0 {
		opts.FilterModel = query.FilterModel{}
		for _, expr := range f.filters {
			col, cond, err := parseFilter(expr)
			if err != nil {
				return query.Options{}, err
			}
			opts.FilterModel[col] = cond
		}
	}
	return opts, nil
}

// parseStatement parses an explorer line:
//
//	<table> [filter ...] [limit N] [offset N] [sort col [asc|desc]] [group col,...] [agg FUNC:col]
func parseStatement(line string, defaultLimit int) (string, query.Options, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return "", query.Options{}, fmt.Errorf("empty statement")
	}

	table := tokens[0]
	f := queryFlags{limit: defaultLimit}
	next := func(i *int, keyword string) (string, error) {
		*i++
		if *i >= len(tokens) {
			return "", fmt.Errorf("%s needs a value", keyword)
		}
		return tokens[*i], nil
	}

	for i := 1; i < len(tokens); i++ {
		tok := tokens[i]
		switch strings.ToLower(tok) {
		case "limit", "offset":
			v, err := next(&i, tok)
			if err != nil {
				return "", query.Options{}, err
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return "", query.Options{}, fmt.Errorf("%s must be an integer: %q", tok, v)
			}
			if strings.EqualFold(tok, "limit") {
				f.limit = n
			} else {
				f.offset = n
			}
		case "sort":
			v, err := next(&i, tok)
			if err != nil {
				return "", query.Options{}, err
			}
			f.sort = v
			if i+1 < len(tokens) {
				switch strings.ToLower(tokens[i+1]) {
				case "desc":
					f.desc = true
					i++
				case "asc":
					i++
				}
			}
		case "group":
			v, err := next(&i, tok)
			if err != nil {
				return "", query.Options{}, err
			}
			f.groupBy = append(f.groupBy, strings.Split(v, ",")...)
		case "agg":
			v, err := next(&i, tok)
			if err != nil {
				return "", query.Options{}, err
			}
			f.aggregates = append(f.aggregates, v)
		default:
			f.filters = append(f.filters, tok)
		}
	}

	opts, err := f.options()
	return table, opts, err
}
