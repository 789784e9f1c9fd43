package main

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/viewmux/requestpool"
	"github.com/gogpu/viewmux/viewport"
)

// Config is the demo configuration file.
type Config struct {
	// OutputDir receives one PNG per viewport.
	OutputDir string `toml:"output_dir"`

	// LoadDelayMS is how long each simulated load takes.
	LoadDelayMS int `toml:"load_delay_ms"`

	Pool      PoolConfig       `toml:"pool"`
	Viewports []ViewportConfig `toml:"viewport"`
}

// PoolConfig holds the request pool settings.
type PoolConfig struct {
	GrabDelayMS int `toml:"grab_delay_ms"`
	Interaction int `toml:"interaction"`
	Thumbnail   int `toml:"thumbnail"`
	Prefetch    int `toml:"prefetch"`
}

// ViewportConfig describes one viewport and the load that fills it.
type ViewportConfig struct {
	ID         string `toml:"id"`
	Kind       string `toml:"kind"`
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Background string `toml:"background"`
	Category   string `toml:"category"`
	Priority   int    `toml:"priority"`
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() Config {
	return Config{
		OutputDir:   ".",
		LoadDelayMS: 20,
		Pool: PoolConfig{
			GrabDelayMS: int(requestpool.DefaultGrabDelay / time.Millisecond),
			Interaction: requestpool.DefaultInteractionConcurrency,
			Thumbnail:   requestpool.DefaultThumbnailConcurrency,
			Prefetch:    requestpool.DefaultPrefetchConcurrency,
		},
		Viewports: []ViewportConfig{
			{ID: "axial", Kind: "shared", Width: 256, Height: 256, Background: "#101010", Category: "interaction"},
			{ID: "sagittal", Kind: "shared", Width: 192, Height: 256, Background: "#101010", Category: "interaction"},
			{ID: "coronal", Kind: "shared", Width: 192, Height: 128, Background: "#101010", Category: "prefetch", Priority: 1},
			{ID: "thumbnail", Kind: "private", Width: 64, Height: 64, Background: "#303030", Category: "thumbnail"},
		},
	}
}

// LoadConfig reads path over the defaults. An empty path returns the
// defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	// Array tables append to a non-empty slice; a file that lists
	// viewports replaces the default set instead.
	defaults := cfg.Viewports
	cfg.Viewports = nil
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(cfg.Viewports) == 0 {
		cfg.Viewports = defaults
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration for values the demo cannot run with.
func (c Config) Validate() error {
	var errs []error
	if len(c.Viewports) == 0 {
		errs = append(errs, errors.New("no viewports configured"))
	}
	seen := make(map[string]bool)
	for i, v := range c.Viewports {
		if v.ID == "" {
			errs = append(errs, fmt.Errorf("viewport %d: missing id", i))
		} else if seen[v.ID] {
			errs = append(errs, fmt.Errorf("viewport %s: duplicate id", v.ID))
		}
		seen[v.ID] = true
		if _, err := viewport.ParseKind(v.Kind); err != nil {
			errs = append(errs, fmt.Errorf("viewport %s: %w", v.ID, err))
		}
		if _, err := requestpool.ParseCategory(v.Category); err != nil {
			errs = append(errs, fmt.Errorf("viewport %s: %w", v.ID, err))
		}
		if _, err := parseHexColor(v.Background); err != nil {
			errs = append(errs, fmt.Errorf("viewport %s: %w", v.ID, err))
		}
		if v.Width < 0 || v.Height < 0 {
			errs = append(errs, fmt.Errorf("viewport %s: negative size", v.ID))
		}
	}
	if c.Pool.Interaction < 0 || c.Pool.Thumbnail < 0 || c.Pool.Prefetch < 0 || c.Pool.GrabDelayMS < 0 {
		errs = append(errs, errors.New("pool settings must not be negative"))
	}
	return errors.Join(errs...)
}

// PoolOptions converts the pool section to request pool options.
func (p PoolConfig) PoolOptions() []requestpool.Option {
	return []requestpool.Option{
		requestpool.WithGrabDelay(time.Duration(p.GrabDelayMS) * time.Millisecond),
		requestpool.WithMaxConcurrency(requestpool.CategoryInteraction, p.Interaction),
		requestpool.WithMaxConcurrency(requestpool.CategoryThumbnail, p.Thumbnail),
		requestpool.WithMaxConcurrency(requestpool.CategoryPrefetch, p.Prefetch),
	}
}

// parseHexColor parses "#rrggbb". An empty string is black.
func parseHexColor(s string) (color.RGBA, error) {
	if s == "" {
		return color.RGBA{A: 255}, nil
	}
	var r, g, b uint8
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("color %q: want #rrggbb", s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
