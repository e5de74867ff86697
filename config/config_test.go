package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8888", cfg.HTTP.Addr)
	assert.Equal(t, StorageModeMemory, cfg.Storage.Mode)
	assert.Equal(t, []string{"root"}, cfg.Accounts)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empower.json")
	doc := `{
		"http": {"addr": ":9999"},
		"storage": {"mode": "nats"},
		"nats": {"url": "nats://nats:4222", "bucket": "empower"},
		"accounts": ["root", "foo"]
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.Equal(t, StorageModeNATS, cfg.Storage.Mode)
	assert.Equal(t, "nats://nats:4222", cfg.NATS.URL)
	assert.Equal(t, []string{"root", "foo"}, cfg.Accounts)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EMPOWER_HTTP_ADDR", ":7777")
	t.Setenv("EMPOWER_LOG_LEVEL", "debug")
	t.Setenv("EMPOWER_ACCOUNTS", "root,alice")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.HTTP.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"root", "alice"}, cfg.Accounts)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(*Config) {}, true},
		{"missing addr", func(c *Config) { c.HTTP.Addr = "" }, false},
		{"unknown storage mode", func(c *Config) { c.Storage.Mode = "postgres" }, false},
		{"nats mode without url", func(c *Config) {
			c.Storage.Mode = StorageModeNATS
			c.NATS.URL = ""
		}, false},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	level, err := LogConfig{Level: "warn"}.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	level, err = LogConfig{}.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}
