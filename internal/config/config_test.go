package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "researchboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "board.db", filepath.Base(cfg.StorePath))
}

func TestLoadFile(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("RESEARCHBOARD_STORE_PATH", "")
	path := writeConfig(t, `
store: file
store-path: /tmp/board.json
log-level: debug
share:
  port: 9000
canvas:
  pen-color: "#e53935"
  eraser-radius: 14
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StoreFile, cfg.Store)
	assert.Equal(t, "/tmp/board.json", cfg.StorePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9000, cfg.Share.Port)
	assert.Equal(t, "#e53935", cfg.Canvas.PenColor)
	assert.Equal(t, 14.0, cfg.Canvas.EraserRadius)
	// untouched fields keep their defaults
	assert.Equal(t, Default().Canvas.NoteWidth, cfg.Canvas.NoteWidth)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("RESEARCHBOARD_STORE_PATH", "/data/env.db")
	path := writeConfig(t, "log-level: debug\nstore-path: /data/file.db\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "/data/env.db", cfg.StorePath)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := writeConfig(t, "colour: red\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedField))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"RESEARCHBOARD_SHARE_PORT":    "7000",
		"RESEARCHBOARD_PEN_WIDTH":     "5.5",
		"RESEARCHBOARD_GENERATOR_URL": "http://localhost:9999/generate",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, 7000, cfg.Share.Port)
	assert.Equal(t, 5.5, cfg.Canvas.PenWidth)
	assert.Equal(t, "http://localhost:9999/generate", cfg.Generator.Endpoint)

	env["RESEARCHBOARD_ERASER_RADIUS"] = "wide"
	err := cfg.ApplyEnv(lookup)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "RESEARCHBOARD_ERASER_RADIUS", cfgErr.Field)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"store kind", func(c *Config) { c.Store = "redis" }, "store"},
		{"store path", func(c *Config) { c.StorePath = "" }, "store-path"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log-level"},
		{"port", func(c *Config) { c.Share.Port = 70000 }, "share.port"},
		{"pen color", func(c *Config) { c.Canvas.PenColor = "red" }, "canvas.pen-color"},
		{"eraser", func(c *Config) { c.Canvas.EraserRadius = 0 }, "canvas.eraser-radius"},
		{"tiny note", func(c *Config) { c.Canvas.NoteWidth = 20 }, "canvas.note-width"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.ErrorIs(t, err, ErrInvalidValue)
		})
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := Default()
	cfg.Canvas.NoteColor = "#90caf9"
	cfg.Canvas.ImageMaxDimension = 640

	opts := cfg.EngineOptions()
	assert.Equal(t, "#90caf9", opts.NoteColor)
	assert.Equal(t, 640.0, opts.ImageMaxDimension)
	assert.NotNil(t, opts.Now)
}
