package core

import (
	"database/sql"
)

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string

	// Catalog is the top-level namespace for three-part names (Databricks Unity Catalog).
	Catalog string
	// HTTPPath is the warehouse endpoint path for HTTP based drivers (Databricks).
	HTTPPath string
	// Token is a bearer/personal access token for drivers that use one instead of a password.
	Token string

	Options map[string]string
	Params  map[string]any
}

// Column represents a column in a database table.
type Column struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Kind       ColumnKind `json:"kind"`
	Nullable   bool       `json:"nullable"`
	PrimaryKey bool       `json:"primary_key,omitempty"`
	Position   int        `json:"position"`
}

// TableMetadata holds metadata about a database table.
type TableMetadata struct {
	Schema  string
	Name    string
	Columns []Column
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows

	// Convert, when set, maps a scanned driver value to a plain scalar.
	Convert func(any) any
}

// Value applies Convert to v if the adapter provided one.
func (r *Rows) Value(v any) any {
	if r.Convert == nil {
		return v
	}
	return r.Convert(v)
}
