// Package config holds the editor's settings: a YAML file under config/,
// optional .env file, DECOR_* environment overrides and, last, command-line
// flags applied by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"tree-decor/internal/particles"
)

// DefaultPath is the config file, relative to the working directory.
const DefaultPath = "config/decorator.yaml"

// Modes.
const (
	ModeBuild = "build"
	ModeView  = "view"
)

// Stand is the disc the model sits on.
type Stand struct {
	Radius float32 `yaml:"radius"`
	Height float32 `yaml:"height"`
}

// Snow configures the particle field.
type Snow struct {
	Enabled   bool    `yaml:"enabled"`
	Count     int     `yaml:"count"`
	Radius    float32 `yaml:"radius"`
	Height    float32 `yaml:"height"`
	FallSpeed float32 `yaml:"fall_speed"`
	Swirl     float32 `yaml:"swirl"`
	Drift     float32 `yaml:"drift"`
	Blend     float32 `yaml:"blend"`
	Seed      uint64  `yaml:"seed,omitempty"`
}

// Config is everything the editor reads at startup.
type Config struct {
	Mode           string  `yaml:"mode"`
	ContentDir     string  `yaml:"content_dir"`
	DBPath         string  `yaml:"db_path"`
	BlobDriver     string  `yaml:"blob_driver"`
	BlobDir        string  `yaml:"blob_dir"`
	ModelPath      string  `yaml:"model_path"`
	ModelHeight    float32 `yaml:"model_height"`
	PlacementScale float32 `yaml:"placement_scale,omitempty"`
	SurfaceOffset  float32 `yaml:"surface_offset"`
	Stand          Stand   `yaml:"stand"`
	Snow           Snow    `yaml:"snow"`
	ShowFPS        bool    `yaml:"show_fps"`
	ShowMemAlloc   bool    `yaml:"show_memalloc"`
	Font           string  `yaml:"font,omitempty"`
	Stylesheet     string  `yaml:"stylesheet,omitempty"`
	LogPath        string  `yaml:"log_path"`
	LogLevel       string  `yaml:"log_level"`
}

// Default returns the stock settings: build mode, SQLite storage, snow on.
func Default() Config {
	snow := particles.DefaultConfig()
	return Config{
		Mode:          ModeBuild,
		ContentDir:    "content",
		DBPath:        "data/decorator.db",
		BlobDriver:    "sqlite",
		BlobDir:       "data/blobs",
		ModelPath:     "content/assets/tree.glb",
		ModelHeight:   2.3,
		SurfaceOffset: 0.02,
		Stand:         Stand{Radius: 1.35, Height: snow.Floor},
		Snow: Snow{
			Enabled:   true,
			Count:     snow.Count,
			Radius:    snow.Radius,
			Height:    snow.Height,
			FallSpeed: snow.FallSpeed,
			Swirl:     snow.Swirl,
			Drift:     snow.Drift,
			Blend:     snow.Blend,
		},
		LogPath:  "logs/decorator.txt",
		LogLevel: "info",
	}
}

// Particles converts the snow settings for particles.NewField. The stand
// top is the snow floor.
func (c Config) Particles() particles.Config {
	return particles.Config{
		Count:     c.Snow.Count,
		Radius:    c.Snow.Radius,
		Height:    c.Snow.Height,
		Floor:     c.Stand.Height,
		FallSpeed: c.Snow.FallSpeed,
		Swirl:     c.Snow.Swirl,
		Drift:     c.Snow.Drift,
		Blend:     c.Snow.Blend,
	}
}

// Editing reports whether the mode allows changes.
func (c Config) Editing() bool { return c.Mode != ModeView }

// Validate checks values that would otherwise fail much later.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeBuild, ModeView:
	default:
		return fmt.Errorf("config: mode %q: want %s or %s", c.Mode, ModeBuild, ModeView)
	}
	switch c.BlobDriver {
	case "sqlite", "fs", "memory":
	default:
		return fmt.Errorf("config: blob_driver %q: want sqlite, fs or memory", c.BlobDriver)
	}
	if c.ContentDir == "" {
		return fmt.Errorf("config: content_dir is empty")
	}
	return nil
}

// Load reads settings from path over Default(). A missing or invalid file
// yields Default() and no file is created; the error reports what was wrong
// with an invalid file so the caller can log it.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg Config) error {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadEnvFile reads KEY=VALUE lines from path (e.g. ".env") into the process
// environment. Empty lines and # comments are skipped, surrounding quotes
// are removed, variables already set are kept. A missing file is not an error.
func LoadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: %w", err)
	}
	for k, v := range parseDotenv(string(data)) {
		if _, set := os.LookupEnv(k); set {
			continue
		}
		_ = os.Setenv(k, v)
	}
	return nil
}

func parseDotenv(s string) map[string]string {
	env := make(map[string]string)
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "export "))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.Index(line, "=")
		if i <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:i])
		value := strings.TrimSpace(line[i+1:])
		// Remove surrounding quotes if present
		if len(value) >= 2 && (value[0] == '"' && value[len(value)-1] == '"' || value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
		env[key] = value
	}
	return env
}

// EnvPrefix starts every environment override.
const EnvPrefix = "DECOR_"

// ApplyEnv overrides fields from DECOR_* variables read through getenv
// (os.Getenv when nil). Unparsable numbers are reported and skipped.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	var errs []string
	str := func(name string, dst *string) {
		if v := getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	f32 := func(name string, dst *float32) {
		if v := getenv(EnvPrefix + name); v != "" {
			n, err := strconv.ParseFloat(v, 32)
			if err != nil {
				errs = append(errs, EnvPrefix+name+"="+v)
				return
			}
			*dst = float32(n)
		}
	}
	boolean := func(name string, dst *bool) {
		if v := getenv(EnvPrefix + name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, EnvPrefix+name+"="+v)
				return
			}
			*dst = b
		}
	}
	str("MODE", &c.Mode)
	str("CONTENT_DIR", &c.ContentDir)
	str("DB_PATH", &c.DBPath)
	str("BLOB_DRIVER", &c.BlobDriver)
	str("BLOB_DIR", &c.BlobDir)
	str("MODEL_PATH", &c.ModelPath)
	str("LOG_LEVEL", &c.LogLevel)
	f32("PLACEMENT_SCALE", &c.PlacementScale)
	f32("SURFACE_OFFSET", &c.SurfaceOffset)
	boolean("SNOW", &c.Snow.Enabled)
	boolean("SHOW_FPS", &c.ShowFPS)
	if v := getenv(EnvPrefix + "SNOW_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, EnvPrefix+"SNOW_COUNT="+v)
		} else {
			c.Snow.Count = n
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: bad environment values: %s", strings.Join(errs, ", "))
	}
	return nil
}
