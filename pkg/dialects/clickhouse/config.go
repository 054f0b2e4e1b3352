// Package clickhouse provides the ClickHouse SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package clickhouse

import (
	"github.com/leapstack-labs/gridsql/pkg/core"
	"github.com/leapstack-labs/gridsql/pkg/dialect"
)

// Config is the ClickHouse dialect configuration.
// Row edits run as mutations (ALTER TABLE ... UPDATE) and LIKE has no ESCAPE
// clause; backslash is always the escape character.
var Config = &core.DialectConfig{
	Name:          "clickhouse",
	DefaultSchema: "default",
	Placeholder:   core.PlaceholderQuestion,
	Identifiers: core.IdentifierConfig{
		Quote:         "`",
		QuoteEnd:      "`",
		Escape:        "``",
		Normalization: core.NormCaseSensitive,
	},
	CaseInsensitiveLike: true,
	LikeEscapeClause:    false,
	Update:              core.UpdateAlterTable,
	Aggregates:          dialect.StandardAggregates,
}
