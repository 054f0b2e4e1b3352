// Package config loads gridsql CLI configuration.
//
// The shared target and server types live in internal/config and are
// re-exported here via type aliases for convenience.
package config

import (
	"fmt"

	sharedcfg "github.com/leapstack-labs/gridsql/internal/config"
)

// TargetConfig is an alias for the shared target configuration.
type TargetConfig = sharedcfg.TargetConfig

// ServerConfig is an alias for the shared server configuration.
type ServerConfig = sharedcfg.ServerConfig

// Config holds all CLI configuration options.
type Config struct {
	Target       *TargetConfig        `koanf:"target"`
	Environments map[string]EnvConfig `koanf:"environments"`
	RowIDColumn  string               `koanf:"row_id_column"`
	StatePath    string               `koanf:"state_path"`
	Verbose      bool                 `koanf:"verbose"`
	OutputFormat string               `koanf:"output"`
	Server       ServerConfig         `koanf:"server"`

	// ProjectRoot is the directory relative paths resolve against.
	ProjectRoot string `koanf:"-"`
	// ConfigFile is the config file that was loaded, if any.
	ConfigFile string `koanf:"-"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	Target      *TargetConfig `koanf:"target"`
	RowIDColumn string        `koanf:"row_id_column"`
}

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultStateFile   = sharedcfg.DefaultStateFile
	DefaultRowIDColumn = sharedcfg.DefaultRowIDColumn
	DefaultOutput      = sharedcfg.DefaultOutput
)

// ErrNoTarget is returned by RequireTarget when nothing configured a target.
var ErrNoTarget = fmt.Errorf("no target configured\nHint: run 'gridsql init' or set %s", "GRIDSQL_TARGET__TYPE")

// RequireTarget returns the target or ErrNoTarget.
func (c *Config) RequireTarget() (*TargetConfig, error) {
	if c.Target == nil || c.Target.Type == "" {
		return nil, ErrNoTarget
	}
	return c.Target, nil
}

// MergeTargetConfig merges two target configs, with override taking precedence.
func MergeTargetConfig(base, override *TargetConfig) *TargetConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := *base
	merged.Options = make(map[string]string, len(base.Options)+len(override.Options))
	merged.Params = make(map[string]any, len(base.Params)+len(override.Params))
	for k, v := range base.Options {
		merged.Options[k] = v
	}
	for k, v := range base.Params {
		merged.Params[k] = v
	}

	overrideString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overrideString(&merged.Type, override.Type)
	overrideString(&merged.Database, override.Database)
	overrideString(&merged.Host, override.Host)
	overrideString(&merged.User, override.User)
	overrideString(&merged.Password, override.Password)
	overrideString(&merged.Schema, override.Schema)
	overrideString(&merged.Catalog, override.Catalog)
	overrideString(&merged.HTTPPath, override.HTTPPath)
	overrideString(&merged.Token, override.Token)
	if override.Port != 0 {
		merged.Port = override.Port
	}

	for k, v := range override.Options {
		merged.Options[k] = v
	}
	for k, v := range override.Params {
		merged.Params[k] = v
	}
	return &merged
}
