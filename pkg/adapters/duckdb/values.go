package duckdb

import (
	"math/big"

	duckdbdriver "github.com/marcboeker/go-duckdb"
)

// convertValue maps DuckDB driver types onto JSON-friendly scalars.
// DECIMAL becomes float64 and HUGEINT becomes int64 when it fits.
func convertValue(v any) any {
	switch x := v.(type) {
	case duckdbdriver.Decimal:
		return x.Float64()
	case *duckdbdriver.Decimal:
		if x == nil {
			return nil
		}
		return x.Float64()
	case *big.Int:
		if x == nil {
			return nil
		}
		if x.IsInt64() {
			return x.Int64()
		}
		f, _ := new(big.Float).SetInt(x).Float64()
		return f
	default:
		return v
	}
}
