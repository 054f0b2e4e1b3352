package clickhouse

import (
	"github.com/leapstack-labs/gridsql/pkg/dialect"
)

func init() {
	dialect.Register(ClickHouse)
}

// ClickHouse is the ClickHouse dialect.
var ClickHouse = dialect.New(Config).Build()
