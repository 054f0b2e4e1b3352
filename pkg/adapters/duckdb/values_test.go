package duckdb

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertValue(t *testing.T) {
	huge, ok := new(big.Int).SetString("170141183460469231731687303715884105727", 10)
	require.True(t, ok)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"small hugeint", big.NewInt(42), int64(42)},
		{"large hugeint", huge, 1.7014118346046923e38},
		{"nil big int", (*big.Int)(nil), nil},
		{"passthrough", "EU", "EU"},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertValue(tt.in))
		})
	}
}

func TestQuery_DecimalAndHugeintAreScalars(t *testing.T) {
	ctx := context.Background()
	adp := connectMemory(t)

	_, err := adp.Exec(ctx, `CREATE TABLE ledger (amount DECIMAL(10,2), units INTEGER)`)
	require.NoError(t, err)
	_, err = adp.Exec(ctx, `INSERT INTO ledger VALUES (100.00, 3), (50.25, 4)`)
	require.NoError(t, err)

	rows, err := adp.Query(ctx, `SELECT amount, SUM(amount) OVER () AS total, SUM(units) OVER () AS units FROM ledger ORDER BY amount`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	require.True(t, rows.Next())
	var amount, total, units any
	require.NoError(t, rows.Scan(&amount, &total, &units))
	assert.Equal(t, 50.25, rows.Value(amount))
	assert.Equal(t, 150.25, rows.Value(total))
	assert.Equal(t, int64(7), rows.Value(units))
}
