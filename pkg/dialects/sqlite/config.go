// Package sqlite provides the SQLite dialect definition.
// This package is pure Go with no database driver dependencies.
package sqlite

import (
	"github.com/leapstack-labs/gridsql/pkg/core"
	"github.com/leapstack-labs/gridsql/pkg/dialect"
)

// Config is the SQLite dialect configuration.
// SQLite has no ILIKE; case-insensitive matching is rendered as LOWER(col) LIKE LOWER(?).
var Config = &core.DialectConfig{
	Name:          "sqlite",
	DefaultSchema: "main",
	Placeholder:   core.PlaceholderQuestion,
	Identifiers: core.IdentifierConfig{
		Quote:         `"`,
		QuoteEnd:      `"`,
		Escape:        `""`,
		Normalization: core.NormCaseInsensitive,
	},
	CaseInsensitiveLike: false,
	LikeEscapeClause:    true,
	Update:              core.UpdateStandard,
	Aggregates:          dialect.StandardAggregates,
}
