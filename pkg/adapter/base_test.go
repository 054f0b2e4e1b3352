package adapter

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/gridsql/pkg/core"
	"github.com/leapstack-labs/gridsql/pkg/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDialect() *dialect.Dialect {
	return dialect.New(&core.DialectConfig{
		Name:          "test",
		DefaultSchema: "main",
		Identifiers:   core.IdentifierConfig{Quote: `"`, QuoteEnd: `"`, Escape: `""`},
	}).Build()
}

func TestBaseSQLAdapter_Close(t *testing.T) {
	tests := []struct {
		name    string
		setupDB bool
	}{
		{name: "close with nil DB", setupDB: false},
		{name: "close with open DB", setupDB: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				mock.ExpectClose()
				base.DB = db
			}

			assert.NoError(t, base.Close())
		})
	}
}

func TestBaseSQLAdapter_Exec(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		setupMock func(mock sqlmock.Sqlmock)
		sql       string
		args      []any
		want      int64
		expectErr bool
		errMsg    string
	}{
		{
			name:      "exec without connection",
			setupDB:   false,
			sql:       "UPDATE t SET a = ?",
			expectErr: true,
			errMsg:    "database connection not established",
		},
		{
			name:    "exec binds args and reports rows affected",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE "ledger" SET "amount" = \? WHERE "transaction_id" = \?`).
					WithArgs(42, "T1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			sql:  `UPDATE "ledger" SET "amount" = ? WHERE "transaction_id" = ?`,
			args: []any{42, "T1"},
			want: 1,
		},
		{
			name:    "exec with error",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INVALID SQL").WillReturnError(assert.AnError)
			},
			sql:       "INVALID SQL",
			expectErr: true,
			errMsg:    "failed to execute SQL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				defer func() { _ = db.Close() }()

				if tt.setupMock != nil {
					tt.setupMock(mock)
				}
				base.DB = db
			}

			n, err := base.Exec(ctx, tt.sql, tt.args...)
			if tt.expectErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestBaseSQLAdapter_Query(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		setupMock func(mock sqlmock.Sqlmock)
		sql       string
		args      []any
		expectErr bool
		errMsg    string
	}{
		{
			name:      "query without connection",
			setupDB:   false,
			sql:       "SELECT 1",
			expectErr: true,
			errMsg:    "database connection not established",
		},
		{
			name:    "query success with args",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "name"}).
					AddRow(1, "alice").
					AddRow(2, "bob")
				mock.ExpectQuery("SELECT").WithArgs(10).WillReturnRows(rows)
			},
			sql:  "SELECT id, name FROM users LIMIT ?",
			args: []any{10},
		},
		{
			name:    "query with error",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("INVALID").WillReturnError(assert.AnError)
			},
			sql:       "INVALID SQL",
			expectErr: true,
			errMsg:    "failed to execute query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				defer func() { _ = db.Close() }()

				if tt.setupMock != nil {
					tt.setupMock(mock)
				}
				base.DB = db
			}

			rows, err := base.Query(ctx, tt.sql, tt.args...)
			if tt.expectErr {
				require.Error(t, err)
				assert.Nil(t, rows)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				require.NoError(t, err)
				assert.NotNil(t, rows)
				defer func() { _ = rows.Close() }()
			}
		})
	}
}

func TestBaseSQLAdapter_Ping(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT 1`).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(`SELECT 1`).WillReturnError(assert.AnError)

	base := &BaseSQLAdapter{DB: db}
	assert.NoError(t, base.Ping(context.Background()))

	err = base.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection check failed")

	assert.ErrorIs(t, (&BaseSQLAdapter{}).Ping(context.Background()), ErrNotConnected)
}

func TestBaseSQLAdapter_IsConnected(t *testing.T) {
	base := &BaseSQLAdapter{}
	assert.False(t, base.IsConnected())

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	base.DB = db
	assert.True(t, base.IsConnected())
}

func TestParseQualifiedName(t *testing.T) {
	d := testDialect()

	schema, name := ParseQualifiedName("finance.ledger", d)
	assert.Equal(t, "finance", schema)
	assert.Equal(t, "ledger", name)

	schema, name = ParseQualifiedName("ledger", d)
	assert.Equal(t, "main", schema)
	assert.Equal(t, "ledger", name)
}

func TestBaseSQLAdapter_ListTablesCommon(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT table_name\s+FROM information_schema.tables`).
		WithArgs("finance").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("accounts").AddRow("ledger"))

	base := &BaseSQLAdapter{DB: db, Cfg: core.AdapterConfig{Schema: "finance"}}
	tables, err := base.ListTablesCommon(context.Background(), testDialect())
	require.NoError(t, err)
	assert.Equal(t, []string{"accounts", "ledger"}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLAdapter_GetTableMetadataCommon(t *testing.T) {
	tests := []struct {
		name      string
		table     string
		schema    string
		rows      *sqlmock.Rows
		want      []core.Column
		expectErr string
	}{
		{
			name:   "columns with inferred kinds",
			table:  "ledger",
			schema: "main",
			rows: sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "ordinal_position"}).
				AddRow("transaction_id", "VARCHAR", "NO", 1).
				AddRow("amount", "DECIMAL(18,2)", "YES", 2).
				AddRow("posted_at", "TIMESTAMP", "YES", 3),
			want: []core.Column{
				{Name: "transaction_id", Type: "VARCHAR", Kind: core.KindText, Nullable: false, Position: 1},
				{Name: "amount", Type: "DECIMAL(18,2)", Kind: core.KindNumber, Nullable: true, Position: 2},
				{Name: "posted_at", Type: "TIMESTAMP", Kind: core.KindDate, Nullable: true, Position: 3},
			},
		},
		{
			name:      "qualified table not found",
			table:     "finance.missing",
			schema:    "finance",
			rows:      sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "ordinal_position"}),
			expectErr: "table finance.missing not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			mock.ExpectQuery(`FROM information_schema.columns`).
				WithArgs(tt.schema, sqlmock.AnyArg()).
				WillReturnRows(tt.rows)

			base := &BaseSQLAdapter{DB: db}
			meta, err := base.GetTableMetadataCommon(context.Background(), tt.table, testDialect())
			if tt.expectErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, meta.Columns)
		})
	}
}

func TestBaseSQLAdapter_QueryAppliesConverter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	base := &BaseSQLAdapter{DB: db, ConvertValue: func(v any) any {
		if s, ok := v.(string); ok {
			return "converted:" + s
		}
		return v
	}}
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow("x"))

	rows, err := base.Query(context.Background(), "SELECT v FROM t")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	require.True(t, rows.Next())
	var v any
	require.NoError(t, rows.Scan(&v))
	assert.Equal(t, "converted:x", rows.Value(v))
}
