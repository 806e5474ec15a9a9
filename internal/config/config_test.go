package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
server:
  port: "9090"
mysql:
  driver: sqlite
  dsn: test.db
jwt:
  secret_key: "0123456789abcdef0123"
storage:
  type: minio
minio:
  endpoint: localhost:9000
  bucket_name: shares
share:
  base_url: https://drive.example.com
  default_ttl: 12h
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	dir := writeConfig(t, testConfigYAML)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.MySQL.Driver)
	assert.Equal(t, "minio", cfg.Storage.Type)
	assert.Equal(t, 12*time.Hour, cfg.Share.DefaultTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Share.MaxTTL)
	assert.Equal(t, 8, cfg.Share.KeyLength)
	assert.True(t, cfg.Share.UniformDenial)
	assert.False(t, cfg.Share.DemoMode)
	assert.Equal(t, "gorm", cfg.Share.Store)
	assert.Same(t, cfg, AppConfig)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := writeConfig(t, testConfigYAML)
	t.Setenv("MANTADRIVE_SHARE_DEMO_MODE", "true")
	t.Setenv("MANTADRIVE_SHARE_KEY_LENGTH", "12")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.True(t, cfg.Share.DemoMode)
	assert.Equal(t, 12, cfg.Share.KeyLength)
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	dir := writeConfig(t, `
mysql:
  dsn: test.db
jwt:
  secret_key: short
`)

	_, err := LoadConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SecretKey")
}

func TestValidate_StorageBackendRequirements(t *testing.T) {
	dir := writeConfig(t, testConfigYAML)
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	cfg.MinIO.Endpoint = ""
	assert.Error(t, Validate(cfg))

	cfg.MinIO.Endpoint = "localhost:9000"
	cfg.Share.Store = "redis"
	cfg.Redis.Addr = ""
	assert.Error(t, Validate(cfg))

	cfg.Redis.Addr = "localhost:6379"
	assert.NoError(t, Validate(cfg))
}
