// Package config implements C8: workspace configuration stored as
// .metis/config.toml, its invariants, and self-healing load behavior.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/metis-io/metis/internal/metiserr"
)

// Preset selects which flight levels a workspace has enabled.
type Preset string

const (
	PresetDirect      Preset = "direct"
	PresetStreamlined Preset = "streamlined"
	PresetFull        Preset = "full"
)

// Config is the parsed contents of .metis/config.toml (spec §4.8, §6.2).
type Config struct {
	Prefix             string `toml:"prefix"`
	Preset             Preset `toml:"preset"`
	StrategiesEnabled  bool   `toml:"strategies_enabled"`
	InitiativesEnabled bool   `toml:"initiatives_enabled"`

	Workspace WorkspaceConfig `toml:"workspace"`
	Sync      SyncConfig      `toml:"sync"`
}

// WorkspaceConfig is the optional [workspace] table.
type WorkspaceConfig struct {
	Prefix string `toml:"prefix,omitempty"`
}

// SyncConfig is the optional [sync] table.
type SyncConfig struct {
	UpstreamURL      string `toml:"upstream_url,omitempty"`
	LastSyncedCommit string `toml:"last_synced_commit,omitempty"`
}

const fileName = "config.toml"

// DefaultConfig returns a Config for a brand-new Direct-preset workspace.
func DefaultConfig(prefix string) *Config {
	return &Config{
		Prefix:             prefix,
		Preset:             PresetDirect,
		StrategiesEnabled:  false,
		InitiativesEnabled: true,
	}
}

// Path returns the canonical config file path for a .metis directory.
func Path(metisDir string) string {
	return filepath.Join(metisDir, fileName)
}

// Load reads config.toml from metisDir using the real environment.
func Load(metisDir string) (*Config, error) {
	return LoadWithEnv(metisDir, os.Getenv)
}

// LoadWithEnv reads config.toml, applies environment overrides, and
// self-heals the strategies-require-sync invariant (spec §4.8): a
// violating file is downgraded (strategies_enabled -> false) and the
// change is persisted rather than surfaced as an error, since load must
// never fail a read-only caller.
func LoadWithEnv(metisDir string, getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig("")

	path := Path(metisDir)
	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if url := getenv("METIS_UPSTREAM_URL"); url != "" {
		cfg.Sync.UpstreamURL = url
	}
	if prefix := getenv("METIS_WORKSPACE_PREFIX"); prefix != "" {
		cfg.Workspace.Prefix = prefix
	}

	if !cfg.syncConfigured() && cfg.StrategiesEnabled {
		cfg.StrategiesEnabled = false
		if err := Save(metisDir, cfg); err != nil {
			return nil, fmt.Errorf("self-heal config: %w", err)
		}
	}

	return cfg, nil
}

// Save writes cfg to metisDir/config.toml atomically (write temp, rename).
func Save(metisDir string, cfg *Config) error {
	path := Path(metisDir)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create config temp file: %w", err)
	}
	enc := toml.NewEncoder(f)
	if err := enc.Encode(cfg); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode config: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close config temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename config temp file: %w", err)
	}
	return nil
}

// syncConfigured reports whether both halves of the sync prerequisite are set.
func (c *Config) syncConfigured() bool {
	return c.Workspace.Prefix != "" && c.Sync.UpstreamURL != ""
}

// SetPreset applies an explicit `config set --preset` mutation. Unlike Load,
// a violation here is a hard error (spec §4.8): explicit mutation must not
// silently downgrade the user's request.
func SetPreset(cfg *Config, preset Preset) error {
	if preset == PresetFull && !cfg.syncConfigured() {
		return fmt.Errorf("%w: preset full requires workspace.prefix and sync.upstream_url", metiserr.ErrConfigInvariant)
	}
	cfg.Preset = preset
	switch preset {
	case PresetDirect:
		cfg.StrategiesEnabled = false
		cfg.InitiativesEnabled = false
	case PresetStreamlined:
		cfg.StrategiesEnabled = false
		cfg.InitiativesEnabled = true
	case PresetFull:
		cfg.StrategiesEnabled = true
		cfg.InitiativesEnabled = true
	}
	return nil
}
