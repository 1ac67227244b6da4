// Package config loads VM settings from a TOML file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds settings that may also be given as command line flags; flags
// take precedence.
type Config struct {
	// Trace enables per-instruction trace logging.
	Trace bool `toml:"trace"`

	// TraceLog names a file to append trace logging to instead of stderr.
	TraceLog string `toml:"trace_log"`

	// Timeout bounds a run's wall time; zero means no limit.
	Timeout Duration `toml:"timeout"`

	// MaxDepth limits nested user function calls; zero means no limit.
	MaxDepth int `toml:"max_depth"`

	// HeapLimit limits the heap length; zero means no limit.
	HeapLimit int `toml:"heap_limit"`
}

// Duration is a time.Duration written in TOML as a string like "1.5s".
type Duration struct{ time.Duration }

// UnmarshalText parses a time.ParseDuration string.
func (d *Duration) UnmarshalText(text []byte) (err error) {
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats d like time.Duration.String.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load parses the TOML file at path. Unknown keys are an error.
func Load(path string) (cfg Config, err error) {
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if err := cfg.check(md); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse parses TOML config text.
func Parse(text string) (cfg Config, err error) {
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.check(md)
}

func (cfg Config) check(md toml.MetaData) error {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return fmt.Errorf("unknown keys: %v", strings.Join(keys, ", "))
	}
	if cfg.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %v", cfg.MaxDepth)
	}
	if cfg.HeapLimit < 0 {
		return fmt.Errorf("heap_limit must not be negative, got %v", cfg.HeapLimit)
	}
	if cfg.Timeout.Duration < 0 {
		return fmt.Errorf("timeout must not be negative, got %v", cfg.Timeout)
	}
	return nil
}
