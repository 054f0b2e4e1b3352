package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	// sqlite driver for fixture databases.
	_ "modernc.org/sqlite"
)

// LedgerSchema is the fixture table used across package tests.
const LedgerSchema = `
	CREATE TABLE ledger (
		transaction_id TEXT NOT NULL,
		account TEXT NOT NULL,
		region TEXT,
		country TEXT,
		debit REAL NOT NULL DEFAULT 0,
		credit REAL NOT NULL DEFAULT 0,
		amount REAL NOT NULL,
		memo TEXT
	);

	CREATE TABLE accounts (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	);
`

// LedgerRows seeds the fixture. It contains one duplicated transaction id
// (T1), two rows with a zero debit or credit (T1 first row, T2), one
// region/country mismatch (EU, Italy), an unmapped region (UNKNOWN) and a
// NULL country.
const LedgerRows = `
	INSERT INTO ledger (transaction_id, account, region, country, debit, credit, amount, memo) VALUES
	('T1', 'Cash', 'EU',      'Germany', 100, 0,   100, 'Office rent'),
	('T1', 'Cash', 'EU',      'Italy',   50,  50,  50,  'Duplicate id'),
	('T2', 'Bank', 'APAC',    'India',   0,   200, 200, 'Server 100%_cost'),
	('T3', 'Bank', 'UNKNOWN', 'Italy',   10,  10,  10,  'O''Brien consulting'),
	('T4', 'AR',   'AMER',    'USA',     20,  30,  20,  'rent deposit'),
	('T5', 'AR',   'MEA',     NULL,      5,   5,   5,   NULL);

	INSERT INTO accounts (id, name) VALUES (1, 'Cash'), (2, 'Bank'), (3, 'AR');
`

// NewLedgerDB creates a seeded sqlite database file in t.TempDir() and
// returns its path. A file is used rather than :memory: because every pooled
// connection to :memory: sees its own empty database.
func NewLedgerDB(t testing.TB) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	_, err = db.ExecContext(ctx, LedgerSchema)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, LedgerRows)
	require.NoError(t, err)

	return path
}
