// Package dialect provides SQL dialect configuration used to render statements.
//
// A Dialect decides how identifiers are quoted, how bound parameters are
// spelled, whether case-insensitive pattern matching has a native operator and
// how a single-column UPDATE is written. Concrete dialects are registered from
// pkg/dialects/*/ packages.
package dialect

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/gridsql/pkg/core"
)

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name        string
	Identifiers core.IdentifierConfig

	// Database-specific settings
	DefaultSchema string                // Default schema name ("main" for DuckDB, "public" for Postgres)
	Placeholder   core.PlaceholderStyle // How to format query parameters

	// Pattern matching and mutation behavior
	CaseInsensitiveLike bool             // ILIKE is available
	LikeEscapeClause    bool             // LIKE accepts ESCAPE '<c>'
	Update              core.UpdateStyle // UPDATE statement form

	aggregates map[string]struct{}
}

// NormalizeName folds an identifier the way the dialect folds unquoted names.
// The catalog uses it to resolve names that miss an exact match.
func (d *Dialect) NormalizeName(name string) string {
	switch d.Identifiers.Normalization {
	case core.NormUppercase:
		return strings.ToUpper(name)
	case core.NormLowercase, core.NormCaseInsensitive:
		return strings.ToLower(name)
	default: // NormCaseSensitive
		return name
	}
}

// IsAggregate returns true if the function is a registered aggregate.
// Function names are matched case-insensitively regardless of identifier rules.
func (d *Dialect) IsAggregate(name string) bool {
	_, ok := d.aggregates[strings.ToLower(name)]
	return ok
}

// GetName returns the dialect name.
func (d *Dialect) GetName() string {
	return d.Name
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
// Returns "?" for PlaceholderQuestion style, "$1", "$2" etc. for PlaceholderDollar style.
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case core.PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default: // PlaceholderQuestion
		return "?"
	}
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	// Escape any existing quote end characters in the name (e.g., ] -> ]])
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// QuoteQualified quotes each part of a dotted name separately and joins them.
// Empty parts are skipped, so QuoteQualified("", "t") yields a bare quoted table.
func (d *Dialect) QuoteQualified(parts ...string) string {
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		quoted = append(quoted, d.QuoteIdentifier(p))
	}
	return strings.Join(quoted, ".")
}

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
}

// New creates a dialect builder from a DialectConfig.
func New(cfg *core.DialectConfig) *Builder {
	b := &Builder{
		dialect: &Dialect{
			Name:                cfg.Name,
			Identifiers:         cfg.Identifiers,
			DefaultSchema:       cfg.DefaultSchema,
			Placeholder:         cfg.Placeholder,
			CaseInsensitiveLike: cfg.CaseInsensitiveLike,
			LikeEscapeClause:    cfg.LikeEscapeClause,
			Update:              cfg.Update,
			aggregates:          make(map[string]struct{}),
		},
	}
	return b.Aggregates(cfg.Aggregates...)
}

// Aggregates registers aggregate functions.
func (b *Builder) Aggregates(funcs ...string) *Builder {
	for _, f := range funcs {
		b.dialect.aggregates[strings.ToLower(f)] = struct{}{}
	}
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	return b.dialect
}

// StandardAggregates are the aggregate functions every registered dialect supports.
var StandardAggregates = []string{"SUM", "AVG", "COUNT", "MAX", "MIN"}
