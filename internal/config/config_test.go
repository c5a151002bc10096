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
	path := filepath.Join(t.TempDir(), "sushrusha.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 600*time.Millisecond, cfg.PresentationDelay)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, StoreFile, cfg.Device.Store)
	assert.NotEmpty(t, cfg.Device.Path)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
api_url: https://evaluator.example.org
language: hi
request_timeout: 5s
presentation_delay: 0s
history_limit: 25
device:
  store: redis
  redis_addr: cache:6379
  redis_db: 2
log:
  level: debug
  file: /tmp/sushrusha.log
evaluator:
  scenarios_dir: ./scenarios
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://evaluator.example.org", cfg.APIURL)
	assert.Equal(t, "hi", cfg.Language)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Zero(t, cfg.PresentationDelay)
	assert.Equal(t, 25, cfg.HistoryLimit)
	assert.Equal(t, StoreRedis, cfg.Device.Store)
	assert.Equal(t, "cache:6379", cfg.Device.RedisAddr)
	assert.Equal(t, 2, cfg.Device.RedisDB)
	assert.Equal(t, "sushrusha:", cfg.Device.RedisPrefix, "unset keys keep their defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "./scenarios", cfg.Evaluator.ScenariosDir)
	assert.Equal(t, ":8000", cfg.Evaluator.Addr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "language: hi\nhistory_limit: 25\n")
	t.Setenv("SUSHRUSHA_LANGUAGE", "ta")
	t.Setenv("SUSHRUSHA_REQUEST_TIMEOUT", "30s")
	t.Setenv("SUSHRUSHA_DEVICE_STORE", "memory")
	t.Setenv("SUSHRUSHA_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ta", cfg.Language)
	assert.Equal(t, 25, cfg.HistoryLimit)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, StoreMemory, cfg.Device.Store)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit path must exist")

	_, err = Load(writeConfig(t, "api_url: [not, a, string]\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "unknown_key: 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown_key")

	_, err = Load(writeConfig(t, "request_timeout: soon\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.APIURL = "localhost"
	cfg.HistoryLimit = 0
	cfg.Device.Store = "s3"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_url")
	assert.Contains(t, err.Error(), "history_limit")
	assert.Contains(t, err.Error(), "device.store")
}
