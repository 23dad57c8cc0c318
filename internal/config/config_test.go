package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
source:
  driver: postgres
databases:
  postgres: postgres://stats@localhost:5432/agri
  mysql: stats@tcp(localhost:3306)/agri
server:
  addr: ":9090"
  read_timeout: 5s
benchmark_settings:
  default_duration: 1m
  default_concurrency: 4
log:
  level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "postgres", cfg.Source.Driver)
	assert.Equal(t, "postgres://stats@localhost:5432/agri", cfg.DSN())
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	// Unset keys keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "agristats", cfg.Databases.MongoDatabase)
	assert.Equal(t, 4, cfg.BenchmarkSettings.DefaultConcurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, "source:\n  driver: postgres\ndatabases:\n  postgres: postgres://file\n")
	t.Setenv("AGRISTATS_SOURCE", "mongo")
	t.Setenv("AGRISTATS_MONGO_URI", "mongodb://env:27017")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "mongo", cfg.Source.Driver)
	assert.Equal(t, "mongodb://env:27017", cfg.DSN())
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "source: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Validate(), "memory driver without a fixture path")

	cfg.Databases.Memory = "testdata/fixture.json"
	assert.NoError(t, cfg.Validate())

	cfg.Source.Driver = "sqlite"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Databases.Memory = "fixture.json"
	cfg.BenchmarkSettings.DefaultDuration = "soon"
	assert.Error(t, cfg.Validate())
}
