package core

import (
	"context"

	"github.com/metis-io/metis/internal/reconcile"
)

// CollisionEntry is one renumbering performed during a reconcile pass (the
// CollisionResolutionLog entity, spec §3).
type CollisionEntry struct {
	OldCode  string
	NewCode  string
	FilePath string
}

// ListCollisions implements `list_collisions` (spec §7, §9's testable
// scenario S-collision): collisions are self-healed by the reconciler as
// they're found, so this surfaces the renumbering log of the pass that ran
// before this call (the one Open runs, for a freshly opened workspace)
// followed by the pass this call runs itself, rather than querying for live
// duplicates.
func (w *Workspace) ListCollisions(ctx context.Context) ([]CollisionEntry, error) {
	prev := w.handle.LastResult()
	if err := w.reconcile(ctx); err != nil {
		return nil, err
	}

	var entries []CollisionEntry
	for _, result := range []*reconcile.Result{prev, w.handle.LastResult()} {
		if result == nil {
			continue
		}
		for _, r := range result.Renumbered {
			entries = append(entries, CollisionEntry{
				OldCode:  r.OldCode,
				NewCode:  r.NewCode,
				FilePath: r.Document.FilePath,
			})
		}
	}
	return entries, nil
}
