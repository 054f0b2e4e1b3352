package core

// Row is one result row keyed by output label.
type Row map[string]any

// QueryResult is a fully materialized tabular result.
// Columns carries the output labels in select-list order; JSON objects do not
// preserve key order, so callers render columns from here rather than from Rows.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Len returns the number of rows.
func (r *QueryResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Values returns the row values in column order.
func (r *QueryResult) Values(i int) []any {
	row := r.Rows[i]
	values := make([]any, len(r.Columns))
	for j, col := range r.Columns {
		values[j] = row[col]
	}
	return values
}
