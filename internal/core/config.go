package core

import (
	"context"

	"github.com/metis-io/metis/internal/config"
)

// ConfigSetOptions carries the optional fields `config_set` accepts; a zero
// value field leaves the corresponding config value untouched.
type ConfigSetOptions struct {
	Preset          config.Preset
	Prefix          string
	UpstreamURL     string
	WorkspacePrefix string
}

// ConfigSet implements `config_set` (spec §4.8, §6.4). Preset changes go
// through config.SetPreset so the strategies-require-sync invariant is
// enforced as a hard error on explicit mutation, unlike the self-healing
// behavior Load applies on a read path.
func (w *Workspace) ConfigSet(ctx context.Context, opts ConfigSetOptions) error {
	if err := w.reconcile(ctx); err != nil {
		return err
	}
	cfg := w.handle.Config

	if opts.Prefix != "" {
		cfg.Prefix = opts.Prefix
	}
	if opts.UpstreamURL != "" {
		cfg.Sync.UpstreamURL = opts.UpstreamURL
	}
	if opts.WorkspacePrefix != "" {
		cfg.Workspace.Prefix = opts.WorkspacePrefix
	}
	if opts.Preset != "" {
		if err := config.SetPreset(cfg, opts.Preset); err != nil {
			return err
		}
	}

	if err := config.Save(w.handle.Root, cfg); err != nil {
		return err
	}
	return w.handle.ReloadConfig()
}
