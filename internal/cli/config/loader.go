package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	sharedcfg "github.com/leapstack-labs/gridsql/internal/config"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// EnvPrefix prefixes every environment override. A double underscore
// separates nesting levels: GRIDSQL_SERVER__ADDR sets server.addr.
const EnvPrefix = "GRIDSQL_"

// flagKeys bridges CLI flag names to config keys where they differ.
var flagKeys = map[string]string{
	"state":       "state_path",
	"type":        "target.type",
	"database":    "target.database",
	"addr":        "server.addr",
	"cors-origin": "server.cors_origins",
	"edit-rate":   "server.edit_rate",
	"edit-burst":  "server.edit_burst",
	"max-limit":   "server.max_limit",
}

// pathFlags are resolved against the working directory, not the project root.
var pathFlags = []string{"state", "database", "config"}

func defaults() map[string]any {
	server := sharedcfg.DefaultServerConfig()
	return map[string]any{
		"state_path":                 DefaultStateFile,
		"row_id_column":              DefaultRowIDColumn,
		"verbose":                    false,
		"output":                     DefaultOutput,
		"server.addr":                server.Addr,
		"server.edit_rate":           server.EditRate,
		"server.edit_burst":          server.EditBurst,
		"server.max_limit":           server.MaxLimit,
		"server.read_header_timeout": server.ReadHeaderTimeout.String(),
		"server.shutdown_timeout":    server.ShutdownTimeout.String(),
	}
}

// inferProjectRoot determines the project root.
// Priority: directory of an explicit config file, then the nearest
// directory upward from CWD holding gridsql.yaml, then CWD.
func inferProjectRoot(cfgFile string) string {
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
	}
	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		return "."
	}
	if root := sharedcfg.FindProjectRoot(cwd, maxUpwardSearchLevels); root != "" {
		return root
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, absolute, or :memory:.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Load loads configuration from defaults, .env, the config file,
// environment variables and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// targetOverride selects an entry under environments whose target is merged
// over the base target.
func Load(cfgFile, targetOverride string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	projectRoot := inferProjectRoot(cfgFile)

	// .env never overrides variables already set in the process.
	if err := godotenv.Load(filepath.Join(projectRoot, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFile := cfgFile
	if configFile == "" {
		configFile = sharedcfg.FindConfigFile(projectRoot)
	}
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	// 3. Environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (only those explicitly set)
	absFlagPaths := map[string]string{}
	if flags != nil {
		for _, name := range pathFlags {
			f := flags.Lookup(name)
			if f == nil || !f.Changed || f.Value.String() == "" || f.Value.String() == ":memory:" {
				continue
			}
			if abs, err := filepath.Abs(f.Value.String()); err == nil {
				absFlagPaths[name] = abs
			}
		}

		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" || f.Name == "target" {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			if abs, ok := absFlagPaths[f.Name]; ok {
				return key, abs
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot
	cfg.ConfigFile = configFile

	// 6. Environment-specific overrides
	if targetOverride != "" {
		envCfg, ok := cfg.Environments[targetOverride]
		if !ok {
			return nil, fmt.Errorf("unknown environment %q", targetOverride)
		}
		cfg.Target = MergeTargetConfig(cfg.Target, envCfg.Target)
		if envCfg.RowIDColumn != "" {
			cfg.RowIDColumn = envCfg.RowIDColumn
		}
	}

	// 7. Target resolution
	if cfg.Target == nil && sharedcfg.DatabricksEnvPresent() {
		cfg.Target = &TargetConfig{Type: "databricks"}
	}
	if cfg.Target != nil && cfg.Target.Type != "" {
		cfg.Target.Type = strings.ToLower(cfg.Target.Type)
		sharedcfg.ApplyDatabricksEnv(cfg.Target)
		sharedcfg.ExpandTargetEnvVars(cfg.Target)
		sharedcfg.ApplyTargetDefaults(cfg.Target)
		if cfg.Target.Type == "sqlite" || cfg.Target.Type == "duckdb" {
			if _, fromFlag := absFlagPaths["database"]; !fromFlag {
				cfg.Target.Database = resolvePathRelativeTo(cfg.Target.Database, projectRoot)
			}
		}
		if err := cfg.Target.Validate(); err != nil {
			return nil, fmt.Errorf("invalid target configuration: %w", err)
		}
	}

	if _, fromFlag := absFlagPaths["state"]; !fromFlag {
		cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, projectRoot)
	}

	return &cfg, nil
}

// LoggerKey returns the context key used for storing the logger.
func LoggerKey() interface{} {
	return loggerKey{}
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// configKey is used to store the loaded config in context.
type configKey struct{}

// WithConfig stores cfg in ctx.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the config stored by WithConfig, or nil.
func FromContext(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return nil
}
