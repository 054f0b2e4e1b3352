package core

// DialectConfig holds the static configuration for a SQL dialect.
// This is pure data; rendering helpers live in pkg/dialect.Dialect.
type DialectConfig struct {
	// Name is the dialect identifier (e.g., "duckdb", "postgres")
	Name string

	// Identifiers defines quoting and normalization rules
	Identifiers IdentifierConfig

	// DefaultSchema is the default schema name ("main" for DuckDB, "public" for Postgres)
	DefaultSchema string

	// Placeholder defines how query parameters are formatted
	Placeholder PlaceholderStyle

	// CaseInsensitiveLike is true when the dialect has an ILIKE operator.
	CaseInsensitiveLike bool

	// LikeEscapeClause is true when LIKE accepts an explicit ESCAPE clause.
	LikeEscapeClause bool

	// Update selects the UPDATE statement form.
	Update UpdateStyle

	// Aggregates lists the aggregate functions the dialect accepts (upper-case).
	Aggregates []string
}

// NormalizationStrategy defines how unquoted identifiers are normalized.
type NormalizationStrategy int

const (
	// NormLowercase normalizes unquoted identifiers to lowercase (default SQL behavior).
	NormLowercase NormalizationStrategy = iota
	// NormUppercase normalizes unquoted identifiers to uppercase (Snowflake, Oracle).
	NormUppercase
	// NormCaseSensitive preserves identifier case exactly (MySQL, ClickHouse).
	NormCaseSensitive
	// NormCaseInsensitive normalizes to lowercase for comparison (Databricks, DuckDB).
	NormCaseInsensitive
)

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (DuckDB, SQLite, Databricks, ClickHouse).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
)

// UpdateStyle selects how a single-column UPDATE is spelled.
type UpdateStyle int

const (
	// UpdateStandard renders UPDATE t SET c = ? WHERE ...
	UpdateStandard UpdateStyle = iota
	// UpdateAlterTable renders ALTER TABLE t UPDATE c = ? WHERE ... (ClickHouse mutations).
	UpdateAlterTable
)

// IdentifierConfig defines how identifiers are quoted and normalized.
type IdentifierConfig struct {
	Quote         string                // Quote character: ", `, [
	QuoteEnd      string                // End quote character (usually same as Quote, ] for [)
	Escape        string                // Escape sequence: "", ``, ]]
	Normalization NormalizationStrategy // How to normalize unquoted identifiers
}
