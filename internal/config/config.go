// Package config loads decon.toml, the optional CLI configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap/zapcore"
)

// DefaultPath is read when --config is not given and the file exists.
const DefaultPath = "decon.toml"

// Config holds file-level defaults. Command-line flags override them.
type Config struct {
	Format  string    `toml:"format"`  // "text" | "json"
	DB      string    `toml:"db"`      // trace database for match and trace
	Prelude *bool     `toml:"prelude"` // load built-in extensions, default true
	Log     LogConfig `toml:"log"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level string `toml:"level"` // debug | info | warn | error
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Format: "text",
		Log:    LogConfig{Level: "warn"},
	}
}

// Load reads a TOML config file and fills unset fields with defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	dec := toml.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// LoadOptional loads path if given. With an empty path it loads
// DefaultPath when present and returns Default otherwise.
func LoadOptional(path string) (Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultPath); errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return Load(DefaultPath)
}

// Validate checks enumerated fields.
func Validate(cfg Config) error {
	switch cfg.Format {
	case "text", "json":
	default:
		return fmt.Errorf("format must be text or json, got %q", cfg.Format)
	}
	if _, err := cfg.Log.ZapLevel(); err != nil {
		return err
	}
	return nil
}

// UsesPrelude reports whether built-in extensions are loaded.
func (c Config) UsesPrelude() bool {
	return c.Prelude == nil || *c.Prelude
}

// ZapLevel parses the configured level. Empty means warn.
func (l LogConfig) ZapLevel() (zapcore.Level, error) {
	if strings.TrimSpace(l.Level) == "" {
		return zapcore.WarnLevel, nil
	}
	lvl, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return zapcore.WarnLevel, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}
