// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alexballas/ximagegrid/grid"
)

// Config holds all image browser configuration.
type Config struct {
	Grid  grid.Config `yaml:"grid"`
	Video Video       `yaml:"video"`
	Log   Log         `yaml:"log"`
}

// Video holds video thumbnail settings.
type Video struct {
	Enabled bool   `yaml:"enabled"` // List video files and thumbnail them with ffmpeg
	FFmpeg  string `yaml:"ffmpeg"`  // ffmpeg binary, looked up in PATH when not absolute
}

// Log holds logging settings.
type Log struct {
	Debug bool   `yaml:"debug"`
	File  string `yaml:"file"` // Empty logs to stderr
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Grid: grid.DefaultConfig(),
		Video: Video{
			FFmpeg: "ffmpeg",
		},
	}
}

// Load reads a single YAML config file at path and returns a Config.
// For merging multiple config sources, use LoadLayered instead.
// If the file does not exist, defaults are returned without error.
// If the file contains invalid YAML or unknown fields, an error is returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return &cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	return LoadLayeredOver(DefaultConfig(), paths...)
}

// LoadLayeredOver is LoadLayered starting from base instead of the defaults.
func LoadLayeredOver(base Config, paths ...string) (*Config, error) {
	cfg := base

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return fmt.Errorf("config: grid: %w", err)
	}
	if c.Video.Enabled && c.Video.FFmpeg == "" {
		return errors.New("config: video.ffmpeg cannot be empty when video is enabled")
	}
	return nil
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: XIMAGEGRID_COLUMNS, XIMAGEGRID_FFMPEG, XIMAGEGRID_DEBUG.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("XIMAGEGRID_COLUMNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid XIMAGEGRID_COLUMNS %q: %w", v, err)
		}
		c.Grid.Columns = n
	}
	if v := os.Getenv("XIMAGEGRID_FFMPEG"); v != "" {
		c.Video.FFmpeg = v
	}
	if v := os.Getenv("XIMAGEGRID_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: invalid XIMAGEGRID_DEBUG %q: %w", v, err)
		}
		c.Log.Debug = b
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	Grid  *rawGrid  `yaml:"grid"`
	Video *rawVideo `yaml:"video"`
	Log   *rawLog   `yaml:"log"`
}

type rawGrid struct {
	Columns         *int           `yaml:"columns"`
	Debounce        *time.Duration `yaml:"debounce"`
	RedrawBatch     *time.Duration `yaml:"redraw_batch"`
	CacheMultiplier *int           `yaml:"cache_multiplier"`
	Workers         *int           `yaml:"workers"`
	ThumbnailSize   *int           `yaml:"thumbnail_size"`
}

type rawVideo struct {
	Enabled *bool   `yaml:"enabled"`
	FFmpeg  *string `yaml:"ffmpeg"`
}

type rawLog struct {
	Debug *bool   `yaml:"debug"`
	File  *string `yaml:"file"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if g := layer.Grid; g != nil {
		setIf(&c.Grid.Columns, g.Columns)
		setIf(&c.Grid.Debounce, g.Debounce)
		setIf(&c.Grid.RedrawBatch, g.RedrawBatch)
		setIf(&c.Grid.CacheMultiplier, g.CacheMultiplier)
		setIf(&c.Grid.Workers, g.Workers)
		setIf(&c.Grid.ThumbnailSize, g.ThumbnailSize)
	}
	if v := layer.Video; v != nil {
		setIf(&c.Video.Enabled, v.Enabled)
		setIf(&c.Video.FFmpeg, v.FFmpeg)
	}
	if l := layer.Log; l != nil {
		setIf(&c.Log.Debug, l.Debug)
		setIf(&c.Log.File, l.File)
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
