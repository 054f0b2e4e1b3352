package mutate

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/gridsql/internal/catalog"
	"github.com/leapstack-labs/gridsql/internal/testutil"
	"github.com/leapstack-labs/gridsql/pkg/adapter"
	sqliteadapter "github.com/leapstack-labs/gridsql/pkg/adapters/sqlite"
	"github.com/leapstack-labs/gridsql/pkg/core"
	"github.com/leapstack-labs/gridsql/pkg/dialect"
	"github.com/leapstack-labs/gridsql/pkg/dialects/clickhouse"
	"github.com/leapstack-labs/gridsql/pkg/dialects/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openLedger(t *testing.T) (*Mutator, *sqliteadapter.Adapter) {
	t.Helper()
	ctx := context.Background()
	logger := testutil.NewTestLogger(t)

	adp := sqliteadapter.New(logger)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: testutil.NewLedgerDB(t)}))
	t.Cleanup(func() { _ = adp.Close() })

	cat, err := catalog.Load(ctx, adp, catalog.Options{Logger: logger})
	require.NoError(t, err)

	return New(cat, adp, Config{Logger: logger}), adp
}

func memoOf(t *testing.T, adp *sqliteadapter.Adapter, id string) []any {
	t.Helper()
	rows, err := adp.Query(context.Background(),
		`SELECT memo FROM ledger WHERE transaction_id = ? ORDER BY amount`, id)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var out []any
	for rows.Next() {
		var v any
		require.NoError(t, rows.Scan(&v))
		out = append(out, v)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestApplyEdits_UpdatesOnlyKeyedRow(t *testing.T) {
	m, adp := openLedger(t)

	results, err := m.ApplyEdits(context.Background(), "ledger", []EditDescriptor{
		{Data: map[string]any{"transaction_id": "T4", "memo": "rent deposit"}, ColID: "memo", Value: "security deposit"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, StatusApplied, results[0].Status)
	assert.Equal(t, int64(1), results[0].RowsAffected)
	assert.Equal(t, "T4", results[0].RowID)

	assert.Equal(t, []any{"security deposit"}, memoOf(t, adp, "T4"))
	assert.Equal(t, []any{"Server 100%_cost"}, memoOf(t, adp, "T2"))
}

func TestApplyEdits_BestEffort(t *testing.T) {
	m, adp := openLedger(t)

	results, err := m.ApplyEdits(context.Background(), "ledger", []EditDescriptor{
		{Data: map[string]any{"transaction_id": "T2"}, ColID: "memo", Value: "first"},
		{Data: map[string]any{"transaction_id": "T3"}, ColID: "no_such_column", Value: "x"},
		{Data: map[string]any{"memo": "no id"}, ColID: "memo", Value: "x"},
		{Data: map[string]any{"transaction_id": "T404"}, ColID: "memo", Value: "x"},
		{Data: map[string]any{"transaction_id": "T3"}, ColID: "amount", Value: json.Number("12.5")},
	})
	require.NoError(t, err)
	require.Len(t, results, 5)

	assert.Equal(t, StatusApplied, results[0].Status)

	assert.Equal(t, StatusFailed, results[1].Status)
	assert.Contains(t, results[1].Error, `column "no_such_column" does not exist`)

	assert.Equal(t, StatusFailed, results[2].Status)
	assert.Contains(t, results[2].Error, "row identifier")

	assert.Equal(t, StatusNoMatch, results[3].Status)
	assert.Equal(t, int64(0), results[3].RowsAffected)

	assert.Equal(t, StatusApplied, results[4].Status)
	assert.Equal(t, 12.5, results[4].Value)

	for i, r := range results {
		assert.Equal(t, i, r.Index)
	}

	assert.Equal(t, []any{"first"}, memoOf(t, adp, "T2"))
}

func TestApplyEdits_DuplicateIDsUpdateBothRows(t *testing.T) {
	m, adp := openLedger(t)

	results, err := m.ApplyEdits(context.Background(), "ledger", []EditDescriptor{
		{Data: map[string]any{"transaction_id": "T1"}, ColID: "memo", Value: "same"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), results[0].RowsAffected)
	assert.Equal(t, []any{"same", "same"}, memoOf(t, adp, "T1"))
}

func TestApplyEdits_HardErrors(t *testing.T) {
	m, _ := openLedger(t)
	ctx := context.Background()
	edit := []EditDescriptor{{Data: map[string]any{"transaction_id": "T1"}, ColID: "memo", Value: "x"}}

	_, err := m.ApplyEdits(ctx, "missing", edit)
	var tableErr *core.UnknownTableError
	require.ErrorAs(t, err, &tableErr)

	// accounts has no transaction_id column
	_, err = m.ApplyEdits(ctx, "accounts", edit)
	var colErr *core.UnknownColumnError
	require.ErrorAs(t, err, &colErr)
	assert.Equal(t, "transaction_id", colErr.Column)
}

func TestApplyEdits_ConfiguredRowID(t *testing.T) {
	ctx := context.Background()
	logger := testutil.NewTestLogger(t)

	adp := sqliteadapter.New(logger)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: testutil.NewLedgerDB(t)}))
	defer func() { _ = adp.Close() }()

	cat, err := catalog.Load(ctx, adp, catalog.Options{})
	require.NoError(t, err)

	m := New(cat, adp, Config{RowIDColumn: "id", Logger: logger})
	assert.Equal(t, "id", m.RowIDColumn())

	results, err := m.ApplyEdits(ctx, "accounts", []EditDescriptor{
		{Data: map[string]any{"id": float64(2)}, ColID: "name", Value: "Checking"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, results[0].Status)
	assert.Equal(t, int64(2), results[0].RowID)
}

func ledgerCatalog() *catalog.Catalog {
	return catalog.New(&catalog.Table{
		Name: "ledger",
		Columns: []core.Column{
			{Name: "transaction_id", Kind: core.KindText},
			{Name: "amount", Kind: core.KindNumber},
		},
	})
}

type mockExecer struct {
	adapter.BaseSQLAdapter
	d *dialect.Dialect
}

func (m *mockExecer) Dialect() *dialect.Dialect { return m.d }

func TestApplyEdits_SQLAndFailureContinues(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`UPDATE "ledger" SET "amount" = \$1 WHERE "transaction_id" = \$2`).
		WithArgs(int64(5), "T1").
		WillReturnError(assert.AnError)
	mock.ExpectExec(`UPDATE "ledger" SET "amount" = \$1 WHERE "transaction_id" = \$2`).
		WithArgs(int64(6), "T2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	execer := &mockExecer{BaseSQLAdapter: adapter.BaseSQLAdapter{DB: db}, d: postgres.Postgres}
	m := New(ledgerCatalog(), execer, Config{Logger: testutil.NewTestLogger(t)})

	results, err := m.ApplyEdits(context.Background(), "ledger", []EditDescriptor{
		{Data: map[string]any{"transaction_id": "T1"}, ColID: "amount", Value: json.Number("5")},
		{Data: map[string]any{"transaction_id": "T2"}, ColID: "amount", Value: json.Number("6")},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Contains(t, results[0].Error, "data source error during update")
	assert.Equal(t, StatusApplied, results[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type countingExecer struct {
	sql   []string
	count int64
}

func (c *countingExecer) Exec(_ context.Context, sql string, _ ...any) (int64, error) {
	c.sql = append(c.sql, sql)
	return c.count, nil
}

func (c *countingExecer) Dialect() *dialect.Dialect { return clickhouse.ClickHouse }

func TestApplyEdits_MutationWithUnknownCountIsApplied(t *testing.T) {
	execer := &countingExecer{count: -1}
	m := New(ledgerCatalog(), execer, Config{})

	results, err := m.ApplyEdits(context.Background(), "ledger", []EditDescriptor{
		{Data: map[string]any{"transaction_id": "T1"}, ColID: "amount", Value: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, results[0].Status)
	assert.Equal(t, []string{"ALTER TABLE `ledger` UPDATE `amount` = ? WHERE `transaction_id` = ?"}, execer.sql)
}
