package core

import (
	"context"

	"github.com/metis-io/metis/internal/config"
	"github.com/metis-io/metis/internal/gitsync"
)

// SyncOptions narrows a `sync` call (spec §6.4).
type SyncOptions struct {
	PullOnly   bool
	MaxRetries int
}

// Sync implements `sync`: runs the git replication engine (C10) against the
// workspace's configured upstream, then persists the resulting commit hash
// as sync.last_synced_commit (spec §4.10 step 7).
func (w *Workspace) Sync(ctx context.Context, opts SyncOptions) (*gitsync.Result, error) {
	if err := w.reconcile(ctx); err != nil {
		return nil, err
	}

	cfg := gitsync.Config{
		UpstreamURL:     w.handle.Config.Sync.UpstreamURL,
		WorkspacePrefix: w.handle.Config.Workspace.Prefix,
		MaxRetries:      opts.MaxRetries,
	}

	result, err := gitsync.Sync(ctx, w.handle.Root, cfg, opts.PullOnly)
	if err != nil {
		return nil, err
	}

	if result.NewCommit != "" {
		w.handle.Config.Sync.LastSyncedCommit = result.NewCommit
		if err := config.Save(w.handle.Root, w.handle.Config); err != nil {
			return result, err
		}
	}
	return result, nil
}
