package webstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// LocalConfig selects the driver behind the local backend.
type LocalConfig struct {
	Path       string `json:"path,omitempty"`        // BadgerDB directory; empty keeps local in memory.
	InMemory   bool   `json:"in_memory,omitempty"`   // BadgerDB without a directory.
	SyncWrites bool   `json:"sync_writes,omitempty"` // fsync every write.
}

// Persistent reports whether local should be backed by BadgerDB.
func (c LocalConfig) Persistent() bool {
	return c.Path != "" || c.InMemory
}

// Config holds Store initialization parameters.
type Config struct {
	DefaultBackend string      `json:"default_backend,omitempty"`
	Local          LocalConfig `json:"local"`
	LogTag         string      `json:"log_tag,omitempty"`
	StrictDecode   bool        `json:"strict_decode,omitempty"`
}

// DefaultConfig returns the default configuration: every backend in memory,
// local as the default backend.
func DefaultConfig() Config {
	return Config{DefaultBackend: DefaultBackend}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.DefaultBackend != "" {
		c.DefaultBackend = source.DefaultBackend
	}
	if source.Local.Path != "" {
		c.Local.Path = source.Local.Path
	}
	if source.Local.InMemory {
		c.Local.InMemory = true
	}
	if source.Local.SyncWrites {
		c.Local.SyncWrites = true
	}
	if source.LogTag != "" {
		c.LogTag = source.LogTag
	}
	if source.StrictDecode {
		c.StrictDecode = true
	}
}

// Validate checks that the default backend is a known identifier.
func (c *Config) Validate() error {
	if c.DefaultBackend == "" {
		return nil
	}
	if _, err := ParseBackend(c.DefaultBackend); err != nil {
		return fmt.Errorf("%w: default_backend: %w", ErrInvalidConfig, err)
	}
	return nil
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Open builds a Store from cfg. Options are applied after the
// configuration, so they take precedence; a WithLocal option skips opening
// BadgerDB.
func Open(cfg *Config, opts ...Option) (Store, error) {
	if cfg == nil {
		def := DefaultConfig()
		cfg = &def
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	probe := &store{logger: defaultLogger}
	for _, opt := range opts {
		opt(probe)
	}

	base := []Option{
		WithDefaultBackend(cfg.DefaultBackend),
		WithLogTag(cfg.LogTag),
	}
	if cfg.StrictDecode {
		base = append(base, WithStrictDecode())
	}
	opened := false
	if cfg.Local.Persistent() && probe.local == nil {
		db, err := OpenBadger(cfg.Local, probe.logger)
		if err != nil {
			return nil, err
		}
		base = append(base, WithLocal(db))
		opened = true
	}

	s := newStore(append(base, opts...)...)
	if opened {
		s.logf("info", context.Background(), "local backend opened at %q (in_memory=%t)", cfg.Local.Path, cfg.Local.InMemory)
	}
	return s, nil
}
