// Package core defines the shared language of gridsql.
//
// This package contains:
//   - Data source entities (AdapterConfig, Column, TableMetadata, Rows)
//   - Dialect configuration data (IdentifierConfig, PlaceholderStyle)
//   - Query results (QueryResult, Row)
//   - The error taxonomy shared by the catalog, query builder, mutator and checks
//
// pkg/core imports only the standard library. All other packages depend on
// core, not the reverse.
package core
