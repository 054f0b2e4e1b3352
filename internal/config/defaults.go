package config

import "time"

// Default configuration values.
const (
	DefaultStateFile   = ".gridsql/history.db"
	DefaultRowIDColumn = "transaction_id"
	DefaultOutput      = "auto" // Auto-detect: TTY=table, non-TTY=markdown

	DefaultServerAddr        = ":8080"
	DefaultEditRate          = 5.0
	DefaultEditBurst         = 20
	DefaultMaxLimit          = 1000
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultShutdownTimeout   = 5 * time.Second
)

// defaultPorts are applied when a network target leaves port unset.
var defaultPorts = map[string]int{
	"postgres":   5432,
	"clickhouse": 9000,
	"databricks": 443,
}

// ApplyTargetDefaults applies default values to a TargetConfig based on the target type.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}

	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}
	if t.Port == 0 {
		t.Port = defaultPorts[t.Type]
	}
}

// DefaultServerConfig returns a ServerConfig with default values.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:              DefaultServerAddr,
		EditRate:          DefaultEditRate,
		EditBurst:         DefaultEditBurst,
		MaxLimit:          DefaultMaxLimit,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		ShutdownTimeout:   DefaultShutdownTimeout,
	}
}
