package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, EngineSkip2, cfg.Generator.Engine)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
}

func TestLoadConfig_FileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server": {"port": 9000, "host": "127.0.0.1", "max_upload_bytes": 1024},
		"camera": {"device": 2, "poll_interval_ms": 250},
		"generator": {"engine": "boombuler", "default_size": 300}
	}`), 0644))

	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("QR_ENGINE", "SKIP2")
	t.Setenv("SCANNER_MAX_PIXELS", "1000000")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, int64(1024), cfg.Server.MaxUploadBytes)
	assert.Equal(t, 2, cfg.Camera.Device)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, EngineSkip2, cfg.Generator.Engine)
	assert.Equal(t, 300, cfg.Generator.DefaultSize)
	assert.Equal(t, 1_000_000, cfg.Scanner.MaxPixels)
}

func TestLoadConfig_PollIntervalDuration(t *testing.T) {
	t.Setenv("CAMERA_POLL_INTERVAL", "2s")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.PollInterval())
}

func TestLoadConfig_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"port":     func(c *Config) { c.Server.Port = 0 },
		"upload":   func(c *Config) { c.Server.MaxUploadBytes = 0 },
		"pixels":   func(c *Config) { c.Scanner.MaxPixels = 0 },
		"device":   func(c *Config) { c.Camera.Device = -1 },
		"interval": func(c *Config) { c.Camera.PollIntervalMS = 0 },
		"engine":   func(c *Config) { c.Generator.Engine = "zxing" },
		"size":     func(c *Config) { c.Generator.DefaultSize = 700 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := getDefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, getDefaultConfig().Validate())
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	cfg := getDefaultConfig()
	cfg.Camera.FrontDevice = 1
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Camera.FrontDevice)
}
