// Package config provides shared configuration types for gridsql targets
// and the HTTP server. It is decoupled from CLI concerns.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/gridsql/pkg/adapter"
	"github.com/leapstack-labs/gridsql/pkg/dialect"
)

// TargetConfig holds database target configuration.
type TargetConfig struct {
	Type string `koanf:"type" yaml:"type"` // sqlite, duckdb, postgres, databricks, clickhouse

	// File-based databases (DuckDB, SQLite)
	Database string `koanf:"database" yaml:"database,omitempty"` // file path or database name

	// Network databases
	Host     string `koanf:"host" yaml:"host,omitempty"`
	Port     int    `koanf:"port" yaml:"port,omitempty"`
	User     string `koanf:"user" yaml:"user,omitempty"`
	Password string `koanf:"password" yaml:"password,omitempty"`

	// Common
	Schema string `koanf:"schema" yaml:"schema,omitempty"`

	// Databricks-specific
	Catalog  string `koanf:"catalog" yaml:"catalog,omitempty"`
	HTTPPath string `koanf:"http_path" yaml:"http_path,omitempty"`
	Token    string `koanf:"token" yaml:"token,omitempty"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options" yaml:"options,omitempty"`

	// Params holds adapter-specific configuration (e.g., DuckDB extensions, settings)
	Params map[string]any `koanf:"params" yaml:"params,omitempty"`
}

// DefaultSchemaForType returns the default schema for a database type.
// It looks up the dialect in the registry; if not found, returns "main" as fallback.
func DefaultSchemaForType(dbType string) string {
	if d, ok := dialect.Get(dbType); ok && d.DefaultSchema != "" {
		return d.DefaultSchema
	}
	return "main"
}

// Validate checks if the target configuration is valid.
// It uses the adapter registry to determine which adapter types are available.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}

	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}

	switch strings.ToLower(t.Type) {
	case "sqlite":
		if t.Database == "" {
			return fmt.Errorf("target.database is required for sqlite")
		}
	case "postgres", "clickhouse":
		if t.Host == "" {
			return fmt.Errorf("target.host is required for %s", t.Type)
		}
	}
	return nil
}

// ToAdapterConfig converts the target into the adapter connection config.
func (t *TargetConfig) ToAdapterConfig() adapter.Config {
	cfg := adapter.Config{
		Type:     strings.ToLower(t.Type),
		Database: t.Database,
		Host:     t.Host,
		Port:     t.Port,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Catalog:  t.Catalog,
		HTTPPath: t.HTTPPath,
		Token:    t.Token,
		Options:  t.Options,
		Params:   t.Params,
	}
	// File-based targets take their path from database.
	switch cfg.Type {
	case "sqlite", "duckdb":
		cfg.Path = t.Database
	}
	return cfg
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Addr              string        `koanf:"addr" yaml:"addr"`
	CORSOrigins       []string      `koanf:"cors_origins" yaml:"cors_origins,omitempty"`
	EditRate          float64       `koanf:"edit_rate" yaml:"edit_rate"`
	EditBurst         int           `koanf:"edit_burst" yaml:"edit_burst"`
	MaxLimit          int           `koanf:"max_limit" yaml:"max_limit"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
}
