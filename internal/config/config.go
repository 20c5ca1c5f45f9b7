// Package config loads ResearchBoard settings from an optional YAML file, a .env file and
// the environment, in that order of increasing precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ResearchBoard/internal/engine"
)

// Common errors
var (
	ErrInvalidValue    = errors.New("invalid value")
	ErrUnexpectedField = errors.New("unexpected field in configuration")
)

var colorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Store kinds.
const (
	StoreSQLite = "sqlite"
	StoreFile   = "file"
)

const envPrefix = "RESEARCHBOARD_"

// ConfigError represents a configuration error with context.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func invalid(field, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Field: field, Message: fmt.Sprintf(format, args...), Err: ErrInvalidValue}
}

// Config is the full application configuration.
type Config struct {
	// Store selects the persistence backend: sqlite or file.
	Store string `yaml:"store"`

	// StorePath is the database or snapshot file.
	StorePath string `yaml:"store-path"`

	LogLevel string `yaml:"log-level"`

	Share     ShareConfig     `yaml:"share"`
	Generator GeneratorConfig `yaml:"generator"`
	Canvas    CanvasConfig    `yaml:"canvas"`
}

// ShareConfig controls presenting a board on the local network.
type ShareConfig struct {
	Port int    `yaml:"port"`
	Name string `yaml:"name"`
}

// GeneratorConfig points at the external content generator.
type GeneratorConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// CanvasConfig holds creation defaults for new items and strokes.
type CanvasConfig struct {
	PenColor          string  `yaml:"pen-color"`
	PenWidth          float64 `yaml:"pen-width"`
	HighlighterWidth  float64 `yaml:"highlighter-width"`
	EraserRadius      float64 `yaml:"eraser-radius"`
	ImageMaxDimension float64 `yaml:"image-max-dimension"`
	NoteWidth         float64 `yaml:"note-width"`
	NoteHeight        float64 `yaml:"note-height"`
	NoteColor         string  `yaml:"note-color"`
	FontSize          float64 `yaml:"font-size"`
	TextWidth         float64 `yaml:"text-width"`
}

// Default returns the built-in configuration.
func Default() *Config {
	opts := engine.DefaultOptions()
	return &Config{
		Store:     StoreSQLite,
		StorePath: defaultStorePath(),
		LogLevel:  "info",
		Share:     ShareConfig{Port: 8765, Name: hostName()},
		Canvas: CanvasConfig{
			PenColor:          opts.PenColor,
			PenWidth:          opts.PenWidth,
			HighlighterWidth:  opts.HighlighterWidth,
			EraserRadius:      opts.EraserRadius,
			ImageMaxDimension: opts.ImageMaxDimension,
			NoteWidth:         opts.NoteWidth,
			NoteHeight:        opts.NoteHeight,
			NoteColor:         opts.NoteColor,
			FontSize:          opts.FontSize,
			TextWidth:         opts.TextWidth,
		},
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "board.db"
	}
	return filepath.Join(dir, "ResearchBoard", "board.db")
}

func hostName() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "ResearchBoard"
	}
	return h
}

// Load builds the configuration. path may be empty; a missing .env file is fine.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		if strings.Contains(err.Error(), "not found in type") {
			return &ConfigError{Message: err.Error(), Err: ErrUnexpectedField}
		}
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables looked up through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *float64) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &ConfigError{Field: key, Message: fmt.Sprintf("not a number: %q", v), Err: err}
		}
		*dst = f
		return nil
	}

	str("LOG_LEVEL", &c.LogLevel)
	str(envPrefix+"STORE", &c.Store)
	str(envPrefix+"STORE_PATH", &c.StorePath)
	str(envPrefix+"SHARE_NAME", &c.Share.Name)
	str(envPrefix+"GENERATOR_URL", &c.Generator.Endpoint)
	str(envPrefix+"PEN_COLOR", &c.Canvas.PenColor)
	str(envPrefix+"NOTE_COLOR", &c.Canvas.NoteColor)

	if v, ok := lookup(envPrefix + "SHARE_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Field: envPrefix + "SHARE_PORT", Message: fmt.Sprintf("not a port: %q", v), Err: err}
		}
		c.Share.Port = port
	}

	for key, dst := range map[string]*float64{
		"PEN_WIDTH":           &c.Canvas.PenWidth,
		"HIGHLIGHTER_WIDTH":   &c.Canvas.HighlighterWidth,
		"ERASER_RADIUS":       &c.Canvas.EraserRadius,
		"IMAGE_MAX_DIMENSION": &c.Canvas.ImageMaxDimension,
	} {
		if err := num(envPrefix+key, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks every field and reports the first problem as a *ConfigError.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreSQLite, StoreFile:
	default:
		return invalid("store", "must be %q or %q, got %q", StoreSQLite, StoreFile, c.Store)
	}
	if c.StorePath == "" {
		return invalid("store-path", "required field is missing")
	}
	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return invalid("log-level", "unknown level %q", c.LogLevel)
	}
	if c.Share.Port < 0 || c.Share.Port > 65535 {
		return invalid("share.port", "out of range: %d", c.Share.Port)
	}
	return c.Canvas.Validate()
}

// Validate checks the canvas defaults.
func (c *CanvasConfig) Validate() error {
	colors := []struct {
		field string
		v     string
	}{
		{"canvas.pen-color", c.PenColor},
		{"canvas.note-color", c.NoteColor},
	}
	for _, col := range colors {
		if !colorRegex.MatchString(col.v) {
			return invalid(col.field, "expected #rrggbb or #rrggbbaa, got %q", col.v)
		}
	}
	positive := []struct {
		field string
		v     float64
	}{
		{"canvas.pen-width", c.PenWidth},
		{"canvas.highlighter-width", c.HighlighterWidth},
		{"canvas.eraser-radius", c.EraserRadius},
		{"canvas.image-max-dimension", c.ImageMaxDimension},
		{"canvas.note-width", c.NoteWidth},
		{"canvas.note-height", c.NoteHeight},
		{"canvas.font-size", c.FontSize},
		{"canvas.text-width", c.TextWidth},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return invalid(p.field, "must be positive, got %v", p.v)
		}
	}
	if c.NoteWidth < engine.MinDimension || c.NoteHeight < engine.MinDimension {
		return invalid("canvas.note-width", "notes must be at least %v units on each side", engine.MinDimension)
	}
	return nil
}

// EngineOptions converts the canvas defaults for a session.
func (c *Config) EngineOptions() engine.Options {
	opts := engine.DefaultOptions()
	opts.PenColor = c.Canvas.PenColor
	opts.PenWidth = c.Canvas.PenWidth
	opts.HighlighterWidth = c.Canvas.HighlighterWidth
	opts.EraserRadius = c.Canvas.EraserRadius
	opts.ImageMaxDimension = c.Canvas.ImageMaxDimension
	opts.NoteWidth = c.Canvas.NoteWidth
	opts.NoteHeight = c.Canvas.NoteHeight
	opts.NoteColor = c.Canvas.NoteColor
	opts.FontSize = c.Canvas.FontSize
	opts.TextWidth = c.Canvas.TextWidth
	return opts
}
