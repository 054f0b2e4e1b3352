package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/gridsql/pkg/core"
	"github.com/leapstack-labs/gridsql/pkg/dialect"
)

// Querier runs a parameterized read.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (*core.Rows, error)
	Dialect() *dialect.Dialect
}

// Runner builds, executes and materializes grid reads.
type Runner struct {
	builder *Builder
	db      Querier
	logger  *slog.Logger
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(b *Builder, db Querier, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{builder: b, db: db, logger: logger}
}

// Executed describes a statement that was run, for history and metrics.
type Executed struct {
	SQL      string
	Args     []any
	Rows     int
	Duration time.Duration
}

// Run executes one read for table with opts.
func (r *Runner) Run(ctx context.Context, table string, opts Options) (*core.QueryResult, *Executed, error) {
	plan, err := r.builder.Build(table, opts)
	if err != nil {
		return nil, nil, err
	}

	sqlStr, args, err := plan.Render(r.db.Dialect())
	if err != nil {
		return nil, nil, fmt.Errorf("render query: %w", err)
	}

	res, exec, err := Execute(ctx, r.db, sqlStr, args...)
	if err != nil {
		return nil, exec, err
	}

	r.logger.Debug("query executed",
		slog.String("table", table),
		slog.String("sql", sqlStr),
		slog.Int("rows", exec.Rows),
		slog.Duration("duration", exec.Duration))
	return res, exec, nil
}

// Execute runs sql and materializes every row. The returned Executed is
// non-nil whenever the statement was sent, including on a data source error.
func Execute(ctx context.Context, db Querier, sqlStr string, args ...any) (*core.QueryResult, *Executed, error) {
	start := time.Now()
	exec := &Executed{SQL: sqlStr, Args: args}

	rows, err := db.Query(ctx, sqlStr, args...)
	if err != nil {
		exec.Duration = time.Since(start)
		return nil, exec, core.WrapDataSource("query", err)
	}
	defer func() { _ = rows.Close() }()

	res, err := Materialize(rows)
	exec.Duration = time.Since(start)
	if err != nil {
		return nil, exec, core.WrapDataSource("read rows", err)
	}

	exec.Rows = res.Len()
	return res, exec, nil
}

// Materialize reads all rows into a QueryResult. Values pass through the
// adapter's converter first; byte slices then become strings and remaining
// Float64-capable types become float64 so results encode as JSON scalars.
func Materialize(rows *core.Rows) (*core.QueryResult, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	result := &core.QueryResult{Columns: cols, Rows: []core.Row{}}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(core.Row, len(cols))
		for i, col := range cols {
			row[col] = scalar(rows.Value(values[i]))
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return result, nil
}

type float64er interface {
	Float64() float64
}

func scalar(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case float64er:
		return x.Float64()
	default:
		return v
	}
}
