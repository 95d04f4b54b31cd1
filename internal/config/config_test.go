package config

import (
	"errors"
	"os"
	"testing"

	"github.com/metis-io/metis/internal/metiserr"
)

// mockEnv creates an environment lookup function from a map.
func mockEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig("PROJ")

	if cfg.Prefix != "PROJ" {
		t.Errorf("DefaultConfig() Prefix = %q, want PROJ", cfg.Prefix)
	}
	if cfg.Preset != PresetDirect {
		t.Errorf("DefaultConfig() Preset = %q, want direct", cfg.Preset)
	}
	if cfg.StrategiesEnabled {
		t.Error("DefaultConfig() StrategiesEnabled should be false")
	}
	if !cfg.InitiativesEnabled {
		t.Error("DefaultConfig() InitiativesEnabled should be true")
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	content := `
prefix = "PROJ"
preset = "full"
strategies_enabled = true
initiatives_enabled = true

[workspace]
prefix = "proj"

[sync]
upstream_url = "https://example.com/metis-central.git"
last_synced_commit = "abc123"
`
	if err := os.WriteFile(Path(tmpDir), []byte(content), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadWithEnv(tmpDir, mockEnv(nil))
	if err != nil {
		t.Fatalf("LoadWithEnv() error: %v", err)
	}

	if cfg.Prefix != "PROJ" || cfg.Preset != PresetFull {
		t.Errorf("LoadWithEnv() = %+v", cfg)
	}
	if cfg.Workspace.Prefix != "proj" {
		t.Errorf("Workspace.Prefix = %q, want proj", cfg.Workspace.Prefix)
	}
	if cfg.Sync.UpstreamURL != "https://example.com/metis-central.git" {
		t.Errorf("Sync.UpstreamURL = %q", cfg.Sync.UpstreamURL)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	content := `
prefix = "PROJ"

[sync]
upstream_url = "https://example.com/from-file.git"
`
	if err := os.WriteFile(Path(tmpDir), []byte(content), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	env := mockEnv(map[string]string{
		"METIS_UPSTREAM_URL": "https://example.com/from-env.git",
	})

	cfg, err := LoadWithEnv(tmpDir, env)
	if err != nil {
		t.Fatalf("LoadWithEnv() error: %v", err)
	}
	if cfg.Sync.UpstreamURL != "https://example.com/from-env.git" {
		t.Errorf("Sync.UpstreamURL = %q, want env override", cfg.Sync.UpstreamURL)
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	cfg, err := LoadWithEnv(tmpDir, mockEnv(nil))
	if err != nil {
		t.Fatalf("LoadWithEnv() error: %v", err)
	}
	if cfg.Preset != PresetDirect {
		t.Errorf("LoadWithEnv() without file should use default preset, got %q", cfg.Preset)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	if err := os.WriteFile(Path(tmpDir), []byte("prefix = [this is invalid"), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	if _, err := LoadWithEnv(tmpDir, mockEnv(nil)); err == nil {
		t.Error("LoadWithEnv() with invalid TOML should return error")
	}
}

func TestLoadSelfHealsStrategiesInvariant(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	content := `
prefix = "PROJ"
strategies_enabled = true
`
	if err := os.WriteFile(Path(tmpDir), []byte(content), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadWithEnv(tmpDir, mockEnv(nil))
	if err != nil {
		t.Fatalf("LoadWithEnv() error: %v", err)
	}
	if cfg.StrategiesEnabled {
		t.Error("expected strategies_enabled to be self-healed to false")
	}

	persisted, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() after self-heal error: %v", err)
	}
	if persisted.StrategiesEnabled {
		t.Error("expected self-heal to be persisted to disk")
	}
}

func TestSetPresetFullRequiresSyncConfigured(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig("PROJ")

	if err := SetPreset(cfg, PresetFull); err == nil {
		t.Fatal("expected ConfigInvariant error without workspace/sync configured")
	} else if !errors.Is(err, metiserr.ErrConfigInvariant) {
		t.Errorf("expected ConfigInvariant error, got %v", err)
	}

	cfg.Workspace.Prefix = "proj"
	cfg.Sync.UpstreamURL = "https://example.com/central.git"
	if err := SetPreset(cfg, PresetFull); err != nil {
		t.Fatalf("SetPreset() after configuring sync: %v", err)
	}
	if !cfg.StrategiesEnabled {
		t.Error("expected strategies_enabled after full preset")
	}
}
