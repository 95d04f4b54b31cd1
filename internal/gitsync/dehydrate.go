package gitsync

import (
	"os"
	"path"
	"strings"

	billyfs "github.com/go-git/go-billy/v5"

	"github.com/metis-io/metis/internal/docmodel"
	"github.com/metis-io/metis/internal/reconcile"
	"github.com/metis-io/metis/internal/workspace"
)

// dehydrateOwned implements spec §4.10 step 4: project every document this
// workspace owns into a flat <SHORT_CODE>.md file under ownPrefix in the
// transient worktree, verbatim on-disk bytes, and remove any previously
// projected file whose document no longer exists locally.
func dehydrateOwned(fs billyfs.Filesystem, metisDir, ownPrefix string) error {
	paths, err := reconcile.DocumentPaths(metisDir, workspace.PeerDirs(metisDir))
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			continue // vanished between walk and read; next sync picks it up
		}
		doc, err := docmodel.Parse(p, raw)
		if err != nil {
			continue // quarantined elsewhere by the reconciler; skip for sync too
		}
		if doc.ShortCode == "" {
			continue // not yet assigned a code; nothing stable to publish yet
		}

		name := doc.ShortCode + ".md"
		seen[name] = true

		dst, err := fs.Create(path.Join(ownPrefix, name))
		if err != nil {
			return err
		}
		if _, err := dst.Write(raw); err != nil {
			dst.Close()
			return err
		}
		if err := dst.Close(); err != nil {
			return err
		}
	}

	prev, err := fs.ReadDir(ownPrefix)
	if err != nil {
		return nil // prefix directory doesn't exist yet on a first sync
	}
	for _, f := range prev {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".md") || seen[f.Name()] {
			continue
		}
		if err := fs.Remove(path.Join(ownPrefix, f.Name())); err != nil {
			return err
		}
	}

	return nil
}
