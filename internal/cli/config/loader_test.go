package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/gridsql/pkg/adapters/databricks"
	_ "github.com/leapstack-labs/gridsql/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/gridsql/pkg/adapters/sqlite"
)

const sampleConfig = `
row_id_column: entry_id
target:
  type: sqlite
  database: data/ledger.db
server:
  addr: ":9090"
  max_limit: 250
  read_header_timeout: 3s
  cors_origins:
    - http://grid.local
environments:
  warehouse:
    row_id_column: txn_id
    target:
      type: postgres
      host: db.internal
      password: ${GRIDSQL_TEST_PG_PASSWORD}
`

func writeProject(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gridsql.yaml"), []byte(content), 0o600))
	t.Chdir(dir)
	return cwd(t)
}

func cwd(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	return dir
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.StringP("target", "t", "", "")
	fs.String("type", "", "")
	fs.String("database", "", "")
	fs.String("state", "", "")
	fs.String("row-id-column", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.StringP("output", "o", "", "")
	fs.String("addr", "", "")
	fs.Int("max-limit", 0, "")
	fs.StringSlice("cors-origin", nil, "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := cwd(t)

	cfg, err := Load("", "", nil)
	require.NoError(t, err)

	assert.Nil(t, cfg.Target)
	assert.Equal(t, DefaultRowIDColumn, cfg.RowIDColumn)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, filepath.Join(dir, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 1000, cfg.Server.MaxLimit)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadHeaderTimeout)

	_, err = cfg.RequireTarget()
	assert.ErrorIs(t, err, ErrNoTarget)
}

func TestLoad_File(t *testing.T) {
	dir := writeProject(t, sampleConfig)

	cfg, err := Load("", "", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "gridsql.yaml"), cfg.ConfigFile)
	assert.Equal(t, "entry_id", cfg.RowIDColumn)
	require.NotNil(t, cfg.Target)
	assert.Equal(t, "sqlite", cfg.Target.Type)
	assert.Equal(t, "main", cfg.Target.Schema)
	assert.Equal(t, filepath.Join(dir, "data", "ledger.db"), cfg.Target.Database)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 250, cfg.Server.MaxLimit)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, []string{"http://grid.local"}, cfg.Server.CORSOrigins)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	writeProject(t, sampleConfig)
	t.Setenv("GRIDSQL_ROW_ID_COLUMN", "from_env")
	t.Setenv("GRIDSQL_SERVER__ADDR", ":7070")
	t.Setenv("GRIDSQL_SERVER__CORS_ORIGINS", "http://a.local,http://b.local")

	cfg, err := Load("", "", nil)
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.RowIDColumn)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.Server.CORSOrigins)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	writeProject(t, sampleConfig)
	t.Setenv("GRIDSQL_SERVER__ADDR", ":7070")

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--addr", ":6060", "--max-limit", "50", "--row-id-column", "flag_id", "-o", "json"}))

	cfg, err := Load("", "", fs)
	require.NoError(t, err)

	assert.Equal(t, ":6060", cfg.Server.Addr)
	assert.Equal(t, 50, cfg.Server.MaxLimit)
	assert.Equal(t, "flag_id", cfg.RowIDColumn)
	assert.Equal(t, "json", cfg.OutputFormat)
}

func TestLoad_DatabaseFlagIsRelativeToCWD(t *testing.T) {
	t.Chdir(t.TempDir())

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--type", "sqlite", "--database", "local.db", "--state", "h.db"}))

	cfg, err := Load("", "", fs)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cwd(t), "local.db"), cfg.Target.Database)
	assert.Equal(t, filepath.Join(cwd(t), "h.db"), cfg.StatePath)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	writeProject(t, sampleConfig)
	t.Setenv("GRIDSQL_TEST_PG_PASSWORD", "s3cret")

	cfg, err := Load("", "warehouse", nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Target.Type)
	assert.Equal(t, "db.internal", cfg.Target.Host)
	assert.Equal(t, 5432, cfg.Target.Port)
	assert.Equal(t, "s3cret", cfg.Target.Password)
	assert.Equal(t, "txn_id", cfg.RowIDColumn)

	_, err = Load("", "nope", nil)
	assert.EqualError(t, err, `unknown environment "nope"`)
}

func TestLoad_DotEnvAndDatabricks(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	dotenv := "DATABRICKS_SERVER_HOSTNAME=adb-123.azuredatabricks.net\n" +
		"DATABRICKS_HTTP_PATH=/sql/1.0/warehouses/w1\n" +
		"DATABRICKS_TOKEN=dapi-test\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0o600))
	for _, key := range []string{"DATABRICKS_SERVER_HOSTNAME", "DATABRICKS_HTTP_PATH", "DATABRICKS_TOKEN", "DATABRICKS_CATALOG", "DATABRICKS_SCHEMA"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load("", "", nil)
	require.NoError(t, err)

	require.NotNil(t, cfg.Target)
	assert.Equal(t, "databricks", cfg.Target.Type)
	assert.Equal(t, "adb-123.azuredatabricks.net", cfg.Target.Host)
	assert.Equal(t, "/sql/1.0/warehouses/w1", cfg.Target.HTTPPath)
	assert.Equal(t, "dapi-test", cfg.Target.Token)
	assert.Equal(t, 443, cfg.Target.Port)
	assert.Equal(t, "default", cfg.Target.Schema)
}

func TestLoad_InvalidTarget(t *testing.T) {
	writeProject(t, "target:\n  type: oracle\n")

	_, err := Load("", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid target configuration")
}

func TestMergeTargetConfig(t *testing.T) {
	base := &TargetConfig{Type: "postgres", Host: "a", Port: 5432, Options: map[string]string{"sslmode": "disable"}}
	override := &TargetConfig{Host: "b", Options: map[string]string{"application_name": "grid"}}

	merged := MergeTargetConfig(base, override)
	assert.Equal(t, "postgres", merged.Type)
	assert.Equal(t, "b", merged.Host)
	assert.Equal(t, 5432, merged.Port)
	assert.Equal(t, map[string]string{"sslmode": "disable", "application_name": "grid"}, merged.Options)
	assert.Equal(t, "a", base.Host, "base is not mutated")

	assert.Same(t, base, MergeTargetConfig(base, nil))
	assert.Same(t, override, MergeTargetConfig(nil, override))
}
