// Package workspace implements C9: the entry point every core operation
// passes through before touching a document. It locates the enclosing
// .metis directory, opens (or self-heals) the cache database, and runs the
// reconciler so the cache is current before the caller proceeds.
//
// It is grounded on the teacher's internal/repo.NewSQLiteRepository +
// internal/db.Open composition: open-or-heal the store, then hand back a
// ready-to-use handle.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/metis-io/metis/internal/config"
	"github.com/metis-io/metis/internal/metiserr"
	"github.com/metis-io/metis/internal/reconcile"
	"github.com/metis-io/metis/internal/store"
)

// dirName is the workspace marker directory (spec §6.1).
const dirName = ".metis"

// canonicalTopLevel lists the directory names the filesystem layout (C5)
// itself owns. Any other top-level directory under .metis/ is assumed to be
// a hydrated peer workspace folder and is excluded from the reconciler scan
// (spec §4.7 step 1, §6.1).
var canonicalTopLevel = map[string]bool{
	"visions":    true,
	"strategies": true,
	"adrs":       true,
	"backlog":    true,
	"archived":   true,
}

// Handle is a validated, reconciled workspace ready for operations.
type Handle struct {
	Root   string // absolute path to the .metis directory
	Store  *store.Store
	Config *config.Config

	lastResult *reconcile.Result
}

// Open implements spec §4.9's procedure: walk upward from startPath to find
// .metis, open (self-healing) the cache database, load configuration, and
// run the reconciler once so the handle is immediately usable.
func Open(ctx context.Context, startPath string) (*Handle, error) {
	root, err := FindRoot(startPath)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("load workspace config: %w", err)
	}

	st, err := store.Open(filepath.Join(root, "cache.db"))
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	h := &Handle{Root: root, Store: st, Config: cfg}
	if _, err := h.Reconcile(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return h, nil
}

// Path returns the .metis directory path under root, without requiring it
// to exist yet — used by InitializeProject before the workspace is created.
func Path(root string) string {
	return filepath.Join(root, dirName)
}

// FindRoot walks upward from startPath looking for a .metis directory,
// failing with metiserr.ErrWorkspaceNotFound if none is found (spec §4.9
// step 1).
func FindRoot(startPath string) (string, error) {
	dir, err := filepath.Abs(startPath)
	if err != nil {
		return "", fmt.Errorf("resolve start path: %w", err)
	}

	for {
		candidate := filepath.Join(dir, dirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", metiserr.ErrWorkspaceNotFound
		}
		dir = parent
	}
}

// Reconcile re-runs the filesystem/cache reconciler (C6) against the
// already-open store, recording the result so ListCollisions can surface
// this pass's renumbering log. Core operations call this at the start of
// every public operation, per spec §4.9 and the C11 control-flow diagram.
func (h *Handle) Reconcile(ctx context.Context) (*reconcile.Result, error) {
	result, err := reconcile.Run(ctx, h.Root, h.Config.Prefix, h.Store, h.PeerDirs())
	if err != nil {
		return nil, err
	}
	h.lastResult = result
	return result, nil
}

// LastResult returns the most recent reconciliation pass's result, or nil
// if none has run yet.
func (h *Handle) LastResult() *reconcile.Result {
	return h.lastResult
}

// PeerDirs lists the top-level directory names under Root that are hydrated
// peer workspace folders rather than part of the canonical layout — every
// entry that isn't one of the layout's own directories, a dotfile/dotdir, or
// a file. Exported standalone (not just as a Handle method) so the git sync
// engine (C10), which has no open Handle of its own, can compute the same
// exclusion set.
func PeerDirs(root string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	var peers []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) > 0 && name[0] == '.' {
			continue
		}
		if canonicalTopLevel[name] {
			continue
		}
		peers = append(peers, name)
	}
	return peers
}

// PeerDirs lists the handle's hydrated peer workspace directories.
func (h *Handle) PeerDirs() []string {
	return PeerDirs(h.Root)
}

// ReloadConfig re-reads config.toml, used after a mutation (ConfigSet) so
// the in-memory handle reflects what was just persisted.
func (h *Handle) ReloadConfig() error {
	cfg, err := config.Load(h.Root)
	if err != nil {
		return err
	}
	h.Config = cfg
	return nil
}

// Close releases the cache database connection.
func (h *Handle) Close() error {
	return h.Store.Close()
}
