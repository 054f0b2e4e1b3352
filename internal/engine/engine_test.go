package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/gridsql/internal/mutate"
	"github.com/leapstack-labs/gridsql/internal/query"
	"github.com/leapstack-labs/gridsql/internal/state"
	"github.com/leapstack-labs/gridsql/internal/testutil"
	"github.com/leapstack-labs/gridsql/pkg/adapter"
	duckdbadapter "github.com/leapstack-labs/gridsql/pkg/adapters/duckdb"
	"github.com/leapstack-labs/gridsql/pkg/core"
)

func openEngine(t *testing.T, withHistory bool) *Engine {
	t.Helper()

	cfg := Config{
		Adapter: adapter.Config{Type: "sqlite", Path: testutil.NewLedgerDB(t)},
		Logger:  testutil.NewTestLogger(t),
	}
	if withHistory {
		cfg.StatePath = filepath.Join(t.TempDir(), "history.db")
	}

	e, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestOpen_UnknownAdapter(t *testing.T) {
	_, err := Open(context.Background(), Config{Adapter: adapter.Config{Type: "oracle"}})
	require.Error(t, err)

	var unknown *adapter.UnknownAdapterError
	assert.ErrorAs(t, err, &unknown)
}

func TestOpen_InvalidStatePath(t *testing.T) {
	_, err := Open(context.Background(), Config{
		Adapter:   adapter.Config{Type: "sqlite", Path: testutil.NewLedgerDB(t)},
		StatePath: "/nonexistent/path/history.db",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history store")
}

func TestEngine_Catalog(t *testing.T) {
	e := openEngine(t, false)

	assert.Equal(t, []string{"accounts", "ledger"}, e.ListTables())
	assert.Equal(t, "transaction_id", e.RowIDColumn())
	assert.Equal(t, "sqlite", e.Dialect().GetName())
	require.NoError(t, e.Ping(context.Background()))

	cols, err := e.GetColumns("ledger")
	require.NoError(t, err)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"transaction_id", "account", "region", "country", "debit", "credit", "amount", "memo"}, names)

	_, err = e.GetColumns("ledgr")
	var unknown *core.UnknownTableError
	assert.ErrorAs(t, err, &unknown)
}

func TestEngine_RunQueryRecordsHistory(t *testing.T) {
	e := openEngine(t, true)
	ctx := context.Background()

	res, err := e.RunQuery(ctx, "ledger", query.Options{
		Limit: 10,
		FilterModel: query.FilterModel{
			"region": {Filter: "eu", FilterType: "text", Type: query.OpEquals},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Len())

	// Validation failures never reach the data source and are not recorded.
	_, err = e.RunQuery(ctx, "ledger", query.Options{})
	assert.ErrorIs(t, err, core.ErrLimitRequired)

	history, err := e.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, state.KindQuery, history[0].Kind)
	assert.Equal(t, "ledger", history[0].Table)
	assert.Equal(t, 2, history[0].Rows)
	assert.Contains(t, history[0].SQL, "LOWER(")
}

func TestEngine_ApplyEdits(t *testing.T) {
	e := openEngine(t, true)
	ctx := context.Background()

	results, err := e.ApplyEdits(ctx, "ledger", []mutate.EditDescriptor{
		{Data: map[string]any{"transaction_id": "T2"}, ColID: "memo", Value: "Hosting"},
		{Data: map[string]any{"transaction_id": "T404"}, ColID: "memo", Value: "ghost"},
		{Data: map[string]any{"transaction_id": "T3"}, ColID: "nope", Value: "x"},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, mutate.StatusApplied, results[0].Status)
	assert.Equal(t, mutate.StatusNoMatch, results[1].Status)
	assert.Equal(t, mutate.StatusFailed, results[2].Status)

	res, err := e.RunQuery(ctx, "ledger", query.Options{
		Limit:       1,
		FilterModel: query.FilterModel{"transaction_id": {Filter: "T2", FilterType: "text", Type: query.OpEquals}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Len())
	assert.Equal(t, "Hosting", res.Rows[0]["memo"])

	log, err := e.EditLog(ctx, "ledger", 10)
	require.NoError(t, err)
	require.Len(t, log, 3)
	assert.Equal(t, "failed", log[0].Status)
	assert.Equal(t, "T2", log[2].RowID)

	_, err = e.ApplyEdits(ctx, "ledgr", nil)
	var unknown *core.UnknownTableError
	assert.ErrorAs(t, err, &unknown)
}

func TestEngine_Checks(t *testing.T) {
	e := openEngine(t, true)
	ctx := context.Background()

	dups, err := e.CheckDuplicates(ctx, "ledger")
	require.NoError(t, err)
	assert.Equal(t, []core.Row{{"transaction_id": "T1", "duplicate_count": int64(2)}}, dups.Rows)

	invalid, err := e.CheckInvalidDebitCredit(ctx, "ledger")
	require.NoError(t, err)
	assert.Equal(t, 2, invalid.Len())

	mismatch, err := e.CheckCategoryMismatch(ctx, "ledger")
	require.NoError(t, err)
	require.Equal(t, 1, mismatch.Len())
	assert.Equal(t, "Italy", mismatch.Rows[0]["country"])

	_, err = e.RunCheck(ctx, "orphans", "ledger")
	var unknown *core.UnknownCheckError
	assert.ErrorAs(t, err, &unknown)

	history, err := e.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for _, h := range history {
		assert.Equal(t, state.KindCheck, h.Kind)
	}
	assert.Equal(t, "category-mismatch", history[0].CheckName)
}

func TestEngine_Reload(t *testing.T) {
	e := openEngine(t, false)
	ctx := context.Background()

	_, err := e.db.Exec(ctx, `CREATE TABLE budgets (transaction_id TEXT, amount REAL)`)
	require.NoError(t, err)
	assert.NotContains(t, e.ListTables(), "budgets")

	require.NoError(t, e.Reload(ctx))
	assert.Contains(t, e.ListTables(), "budgets")
}

func TestEngine_HistoryDisabled(t *testing.T) {
	e := openEngine(t, false)
	assert.False(t, e.HistoryEnabled())

	_, err := e.History(context.Background(), 5)
	assert.ErrorIs(t, err, ErrHistoryDisabled)
	_, err = e.EditLog(context.Background(), "", 5)
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}

func openDuckDBLedger(t *testing.T) *Engine {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.duckdb")

	seed := duckdbadapter.New(nil)
	require.NoError(t, seed.Connect(ctx, core.AdapterConfig{Path: path}))
	for _, stmt := range []string{
		`CREATE TABLE ledger (
			transaction_id VARCHAR,
			region VARCHAR,
			debit DECIMAL(10,2),
			credit DECIMAL(10,2),
			amount DECIMAL(10,2)
		)`,
		`INSERT INTO ledger VALUES
			('T1', 'EU', 100.00, 100.00, 100.00),
			('T2', 'EU', 0.00, 50.00, 50.00),
			('T3', 'US', 12.50, 12.50, 12.50)`,
	} {
		_, err := seed.Exec(ctx, stmt)
		require.NoError(t, err)
	}
	require.NoError(t, seed.Close())

	e, err := Open(ctx, Config{
		Adapter:   adapter.Config{Type: "duckdb", Path: path},
		StatePath: filepath.Join(t.TempDir(), "history.db"),
		Logger:    testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngine_DuckDBDecimalsAreScalars(t *testing.T) {
	e := openDuckDBLedger(t)
	ctx := context.Background()

	res, err := e.RunQuery(ctx, "ledger", query.Options{
		Limit: 10,
		Sort:  &query.SortSpec{Column: "transaction_id"},
	})
	require.NoError(t, err)
	require.Equal(t, 3, res.Len())
	assert.Equal(t, 100.0, res.Rows[0]["amount"])
	assert.Equal(t, 12.5, res.Rows[2]["amount"])

	sums, err := e.RunQuery(ctx, "ledger", query.Options{
		Limit:      10,
		GroupBy:    query.GroupBy{"region"},
		Aggregates: []query.AggregateSpec{{Column: "amount", Function: "SUM"}},
		Sort:       &query.SortSpec{Column: "region"},
	})
	require.NoError(t, err)
	assert.Equal(t, []core.Row{
		{"region": "EU", "SUM_amount": 150.0},
		{"region": "US", "SUM_amount": 12.5},
	}, sums.Rows)

	invalid, err := e.CheckInvalidDebitCredit(ctx, "ledger")
	require.NoError(t, err)
	require.Equal(t, 1, invalid.Len())
	assert.Equal(t, 0.0, invalid.Rows[0]["debit"])
	assert.Equal(t, 50.0, invalid.Rows[0]["credit"])
}

func TestEngine_FailedStatementIsAudited(t *testing.T) {
	e := openDuckDBLedger(t)
	ctx := context.Background()

	// DuckDB rejects selecting ungrouped columns.
	_, err := e.RunQuery(ctx, "ledger", query.Options{
		Limit:       10,
		GroupBy:     query.GroupBy{"region"},
		FilterModel: query.FilterModel{"region": {Filter: "EU", FilterType: "text", Type: query.OpContains}},
	})
	var dsErr *core.DataSourceError
	require.ErrorAs(t, err, &dsErr)

	history, err := e.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Contains(t, history[0].SQL, `GROUP BY "region"`)
	assert.NotEmpty(t, history[0].Args)
	assert.NotEmpty(t, history[0].Error)
}
