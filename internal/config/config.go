// Package config holds the functional-options configuration layer and the
// resource manager used to release pagers and file handles deterministically.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ValidationLevel records a validation strictness setting, set by
// WithValidation or the YAML overlay. The storage layer does not read it:
// page decoding applies the same buffer-bounds checks at either level.
type ValidationLevel int

const (
	ValidationBasic ValidationLevel = iota
	ValidationStrict
)

// OutputFormat selects how the executor's rows are rendered.
type OutputFormat int

const (
	FormatConsole OutputFormat = iota
	FormatJSON
)

// Config holds the tunables for a single invocation.
type Config struct {
	ReadTimeout      time.Duration
	Validation       ValidationLevel
	MaxScanWorkers   int
	Format           OutputFormat
}

// Option mutates a Config during construction.
type Option func(*Config)

// WithReadTimeout sets the whole-invocation timeout.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) { c.ReadTimeout = d }
}

// WithValidation sets the validation strictness.
func WithValidation(level ValidationLevel) Option {
	return func(c *Config) { c.Validation = level }
}

// WithMaxScanWorkers bounds indexed-scan row-fetch concurrency.
func WithMaxScanWorkers(n int) Option {
	return func(c *Config) { c.MaxScanWorkers = n }
}

// WithFormat sets the output format.
func WithFormat(f OutputFormat) Option {
	return func(c *Config) { c.Format = f }
}

// Default returns the baseline configuration before any overlay or option
// is applied.
func Default() *Config {
	return &Config{
		ReadTimeout:    30 * time.Second,
		Validation:     ValidationBasic,
		MaxScanWorkers: 8,
		Format:         FormatConsole,
	}
}

// yamlOverlay mirrors the subset of Config that may be set from a sidecar
// file. Fields left unset in the file leave the default untouched.
type yamlOverlay struct {
	ReadTimeoutMS  *int    `yaml:"read_timeout_ms"`
	Validation     *string `yaml:"validation"`
	MaxScanWorkers *int    `yaml:"max_scan_workers"`
	Format         *string `yaml:"format"`
}

// LoadOverlay reads an optional YAML sidecar file and applies it on top of
// cfg. A missing file is not an error — the sidecar is opt-in. A malformed
// file is.
func LoadOverlay(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config overlay %s: %w", path, err)
	}

	var overlay yamlOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse config overlay %s: %w", path, err)
	}

	if overlay.ReadTimeoutMS != nil {
		cfg.ReadTimeout = time.Duration(*overlay.ReadTimeoutMS) * time.Millisecond
	}
	if overlay.MaxScanWorkers != nil {
		cfg.MaxScanWorkers = *overlay.MaxScanWorkers
	}
	if overlay.Validation != nil {
		switch *overlay.Validation {
		case "strict":
			cfg.Validation = ValidationStrict
		case "basic":
			cfg.Validation = ValidationBasic
		}
	}
	if overlay.Format != nil {
		switch *overlay.Format {
		case "json":
			cfg.Format = FormatJSON
		case "console":
			cfg.Format = FormatConsole
		}
	}

	return nil
}

// ResourceManager closes its registered resources in LIFO order, so that
// dependencies opened later are released before the things they depend on.
type ResourceManager struct {
	resources []io.Closer
}

// NewResourceManager returns an empty manager.
func NewResourceManager() *ResourceManager {
	return &ResourceManager{}
}

// Add registers a closer to be released by Close.
func (rm *ResourceManager) Add(c io.Closer) {
	rm.resources = append(rm.resources, c)
}

// Close releases every registered resource in reverse registration order,
// returning the last error encountered (if any) after attempting all of them.
func (rm *ResourceManager) Close() error {
	var lastErr error
	for i := len(rm.resources) - 1; i >= 0; i-- {
		if err := rm.resources[i].Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
