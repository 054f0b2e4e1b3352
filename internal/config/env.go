package config

import (
	"os"
	"regexp"
)

// Databricks connection variables read when a databricks target leaves the
// matching field unset.
const (
	EnvDatabricksHost     = "DATABRICKS_SERVER_HOSTNAME"
	EnvDatabricksHTTPPath = "DATABRICKS_HTTP_PATH"
	EnvDatabricksToken    = "DATABRICKS_TOKEN"
	EnvDatabricksCatalog  = "DATABRICKS_CATALOG"
	EnvDatabricksSchema   = "DATABRICKS_SCHEMA"
)

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ExpandEnvVars expands ${VAR} patterns in a string with environment variable values.
// Unset variables are left as written.
func ExpandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// ExpandTargetEnvVars expands environment variables in sensitive target fields.
func ExpandTargetEnvVars(t *TargetConfig) {
	if t == nil {
		return
	}
	t.Password = ExpandEnvVars(t.Password)
	t.User = ExpandEnvVars(t.User)
	t.Host = ExpandEnvVars(t.Host)
	t.Database = ExpandEnvVars(t.Database)
	t.HTTPPath = ExpandEnvVars(t.HTTPPath)
	t.Token = ExpandEnvVars(t.Token)
	t.Catalog = ExpandEnvVars(t.Catalog)
	t.Schema = ExpandEnvVars(t.Schema)
}

// ApplyDatabricksEnv fills unset databricks fields from DATABRICKS_* variables.
// Targets of other types are left untouched.
func ApplyDatabricksEnv(t *TargetConfig) {
	if t == nil || t.Type != "databricks" {
		return
	}
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	fill(&t.Host, EnvDatabricksHost)
	fill(&t.HTTPPath, EnvDatabricksHTTPPath)
	fill(&t.Token, EnvDatabricksToken)
	fill(&t.Catalog, EnvDatabricksCatalog)
	fill(&t.Schema, EnvDatabricksSchema)
}

// DatabricksEnvPresent reports whether the databricks connection variables
// are set, so a target can be inferred without a config file.
func DatabricksEnvPresent() bool {
	return os.Getenv(EnvDatabricksHost) != "" && os.Getenv(EnvDatabricksHTTPPath) != ""
}
