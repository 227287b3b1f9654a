package grid

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the tuning constants of the loader. None of them affects
// correctness; they trade memory and latency.
type Config struct {
	// Columns is the initial number of tiles per layout row.
	Columns int `yaml:"columns"`
	// Debounce is the quiet period after scroll, resize or reset before a
	// load starts.
	Debounce time.Duration `yaml:"debounce"`
	// RedrawBatch is how long finished loads are collected before one
	// repaint is requested.
	RedrawBatch time.Duration `yaml:"redraw_batch"`
	// CacheMultiplier scales the visible tile count into the cache capacity.
	CacheMultiplier int `yaml:"cache_multiplier"`
	// Workers is the number of decode goroutines.
	Workers int `yaml:"workers"`
	// ThumbnailSize bounds the longer side of decoded images; 0 keeps the
	// full resolution.
	ThumbnailSize int `yaml:"thumbnail_size"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Columns:         5,
		Debounce:        250 * time.Millisecond,
		RedrawBatch:     250 * time.Millisecond,
		CacheMultiplier: 3,
		Workers:         4,
		ThumbnailSize:   512,
	}
}

// Validate reports every out-of-range field.
func (c Config) Validate() error {
	var errs []error
	if c.Columns < 1 {
		errs = append(errs, fmt.Errorf("columns must be at least 1, got %d", c.Columns))
	}
	if c.Debounce < 0 {
		errs = append(errs, fmt.Errorf("debounce must not be negative, got %v", c.Debounce))
	}
	if c.RedrawBatch < 0 {
		errs = append(errs, fmt.Errorf("redraw_batch must not be negative, got %v", c.RedrawBatch))
	}
	if c.CacheMultiplier < 1 {
		errs = append(errs, fmt.Errorf("cache_multiplier must be at least 1, got %d", c.CacheMultiplier))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.ThumbnailSize < 0 {
		errs = append(errs, fmt.Errorf("thumbnail_size must not be negative, got %d", c.ThumbnailSize))
	}
	return errors.Join(errs...)
}

// withDefaults replaces invalid fields with their defaults.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Columns < 1 {
		c.Columns = d.Columns
	}
	if c.Debounce < 0 {
		c.Debounce = d.Debounce
	}
	if c.RedrawBatch < 0 {
		c.RedrawBatch = d.RedrawBatch
	}
	if c.CacheMultiplier < 1 {
		c.CacheMultiplier = d.CacheMultiplier
	}
	if c.Workers < 1 {
		c.Workers = d.Workers
	}
	if c.ThumbnailSize < 0 {
		c.ThumbnailSize = 0
	}
	return c
}
