// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/chuck/internal/validate"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv(EnvDataDir, dataDir)

	l := NewLoader("", "test")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Version)
	assert.Equal(t, ":7110", cfg.Listen)
	assert.Equal(t, "127.0.0.1:7111", cfg.HTTP.Listen)
	assert.Equal(t, DriverNull, cfg.DMX.Driver)
	assert.True(t, cfg.DMX.FatalOnError)
	assert.Equal(t, 100*time.Millisecond, cfg.Chase.Delay)
	assert.Equal(t, 2*time.Second, cfg.Chase.MaxDelay)
	assert.Equal(t, 64, cfg.Queue.Size)
	assert.Equal(t, filepath.Join(dataDir, "set.csv"), cfg.Profiles.File)
	assert.Equal(t, filepath.Join(dataDir, "scenes.yaml"), cfg.Scenes.File)

	assert.Contains(t, l.ConsumedEnvKeys, EnvChaseDelay)
	assert.Contains(t, l.ConsumedEnvKeys, EnvHTTPListen)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dataDir := t.TempDir()
	path := writeConfig(t, "chuck.yaml", `
listen: "127.0.0.1:9000"
dataDir: `+dataDir+`
dmx:
  driver: artnet
  artnetTarget: "10.0.0.20:6454"
  universe: 3
chase:
  delay: 300ms
`)

	cfg, err := NewLoader(path, "test").Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Listen)
	assert.Equal(t, DriverArtNet, cfg.DMX.Driver)
	assert.Equal(t, 3, cfg.DMX.Universe)
	assert.Equal(t, 300*time.Millisecond, cfg.Chase.Delay)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, 100*time.Millisecond, cfg.Chase.MinDelay)
	assert.Equal(t, 250*time.Millisecond, cfg.Highlight.Interval)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dataDir := t.TempDir()
	path := writeConfig(t, "chuck.yml", "chase:\n  delay: 300ms\n")
	t.Setenv(EnvDataDir, dataDir)
	t.Setenv(EnvChaseDelay, "500ms")
	t.Setenv(EnvDMXFatal, "false")
	t.Setenv(EnvHTTPListen, "")

	cfg, err := NewLoader(path, "test").Load()
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Chase.Delay)
	assert.False(t, cfg.DMX.FatalOnError)
	assert.Empty(t, cfg.HTTP.Listen, "empty CHUCK_HTTP_LISTEN disables the status server")
}

func TestLoadUnknownKeyFails(t *testing.T) {
	path := writeConfig(t, "chuck.yaml", "listen: \":7110\"\nlisten_port: 7110\n")
	_, err := NewLoader(path, "test").Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownConfigField)
}

func TestLoadRejectsNonYAML(t *testing.T) {
	path := writeConfig(t, "chuck.json", "{}")
	_, err := NewLoader(path, "test").Load()
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadRejectsMultipleDocuments(t *testing.T) {
	path := writeConfig(t, "chuck.yaml", "listen: \":7110\"\n---\nlisten: \":7120\"\n")
	_, err := NewLoader(path, "test").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple documents")
}

func TestLoadEmptyFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvDataDir, t.TempDir())
	path := writeConfig(t, "chuck.yaml", "")
	cfg, err := NewLoader(path, "test").Load()
	require.NoError(t, err)
	assert.Equal(t, ":7110", cfg.Listen)
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) Config {
		cfg := Default()
		cfg.DataDir = t.TempDir()
		cfg.Profiles.File = filepath.Join(cfg.DataDir, "set.csv")
		cfg.Scenes.File = filepath.Join(cfg.DataDir, "scenes.yaml")
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad listen", func(c *Config) { c.Listen = "nope" }, "listen"},
		{"bad http listen", func(c *Config) { c.HTTP.Listen = "example.com:80" }, "http.listen"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "logLevel"},
		{"unknown driver", func(c *Config) { c.DMX.Driver = "sacn" }, "dmx.driver"},
		{"enttec without device", func(c *Config) { c.DMX.Driver = DriverEnttec; c.DMX.Device = "" }, "dmx.device"},
		{"artnet bad universe", func(c *Config) { c.DMX.Driver = DriverArtNet; c.DMX.Universe = 1 << 16 }, "dmx.universe"},
		{"delay below min", func(c *Config) { c.Chase.Delay = 10 * time.Millisecond }, "chase.delay"},
		{"max below min", func(c *Config) { c.Chase.MaxDelay = 50 * time.Millisecond }, "chase.maxDelay"},
		{"zero heartbeat", func(c *Config) { c.Heartbeat.Interval = 0 }, "heartbeat.interval"},
		{"zero queue", func(c *Config) { c.Queue.Size = 0 }, "queue.size"},
	}

	require.NoError(t, Validate(valid(t)))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)

			var verr validate.ValidationError
			require.ErrorAs(t, err, &verr)
			fields := make([]string, 0, len(verr.Errors()))
			for _, e := range verr.Errors() {
				fields = append(fields, e.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}
