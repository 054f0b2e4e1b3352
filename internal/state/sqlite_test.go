package state

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore()
	require.NoError(t, store.Open(filepath.Join(t.TempDir(), "history.db")))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenMigrates(t *testing.T) {
	store := openTestStore(t)

	version, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Re-running is a no-op.
	require.NoError(t, store.Migrate())
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.RecordQuery(ctx, &QueryRecord{}), ErrNotOpened)
	assert.ErrorIs(t, store.RecordEdit(ctx, &EditEntry{}), ErrNotOpened)
	_, err := store.ListQueries(ctx, 10)
	assert.ErrorIs(t, err, ErrNotOpened)
	_, err = store.ListEdits(ctx, "", 10)
	assert.ErrorIs(t, err, ErrNotOpened)
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_Queries(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	first := &QueryRecord{
		Kind:      KindQuery,
		Table:     "ledger",
		SQL:       `SELECT "account" FROM "ledger" WHERE "region" = ? LIMIT 10`,
		Args:      []any{"EU"},
		Rows:      2,
		Duration:  12 * time.Millisecond,
		CreatedAt: base,
	}
	second := &QueryRecord{
		Kind:      KindCheck,
		Table:     "ledger",
		CheckName: "duplicates",
		SQL:       "SELECT 1",
		Error:     "boom",
		CreatedAt: base.Add(time.Second),
	}
	require.NoError(t, store.RecordQuery(ctx, first))
	require.NoError(t, store.RecordQuery(ctx, second))
	assert.NotEmpty(t, first.ID)

	got, err := store.ListQueries(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, KindCheck, got[0].Kind)
	assert.Equal(t, "duplicates", got[0].CheckName)
	assert.Equal(t, "boom", got[0].Error)
	assert.Empty(t, got[0].Args)

	assert.Equal(t, first.SQL, got[1].SQL)
	assert.Equal(t, []any{"EU"}, got[1].Args)
	assert.Equal(t, 2, got[1].Rows)
	assert.Equal(t, 12*time.Millisecond, got[1].Duration)
	assert.True(t, base.Equal(got[1].CreatedAt))

	limited, err := store.ListQueries(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteStore_Edits(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entries := []*EditEntry{
		{Table: "ledger", RowID: "T1", Column: "memo", Value: "Rent", Status: "applied", RowsAffected: 2},
		{Table: "ledger", RowID: "T9", Column: "amount", Value: json.Number("42"), Status: "no_match"},
		{Table: "accounts", RowID: "1", Column: "name", Value: nil, Status: "failed", Error: "locked"},
	}
	for i, e := range entries {
		e.CreatedAt = time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC)
		require.NoError(t, store.RecordEdit(ctx, e))
	}

	all, err := store.ListEdits(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "accounts", all[0].Table)
	assert.Nil(t, all[0].Value)
	assert.Equal(t, "locked", all[0].Error)

	ledger, err := store.ListEdits(ctx, "ledger", 10)
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	assert.Equal(t, "T9", ledger[0].RowID)
	assert.Equal(t, json.Number("42"), ledger[0].Value)
	assert.Equal(t, "T1", ledger[1].RowID)
	assert.Equal(t, "Rent", ledger[1].Value)
	assert.Equal(t, int64(2), ledger[1].RowsAffected)
}
