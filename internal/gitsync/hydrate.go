package gitsync

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	billyfs "github.com/go-git/go-billy/v5"
	"golang.org/x/sync/errgroup"

	"github.com/metis-io/metis/internal/metiserr"
)

// hydratePeers implements spec §4.10 step 3: for every top-level directory
// in the central repository other than ownPrefix, mirror its files into
// metisDir/<prefix>/ as read-only local copies, and remove any local file
// that no longer exists remotely. Peer directories are independent of each
// other, so they hydrate concurrently; the billy filesystem handle is safe
// for concurrent reads against an in-memory, read-only-from-here clone.
func hydratePeers(fs billyfs.Filesystem, metisDir, ownPrefix string) ([]HydratedChange, error) {
	entries, err := fs.ReadDir("/")
	if err != nil {
		return nil, fmt.Errorf("%w: list central repository root: %v", metiserr.ErrSyncNetwork, err)
	}

	var peers []string
	for _, entry := range entries {
		if entry.IsDir() && entry.Name() != ownPrefix {
			peers = append(peers, entry.Name())
		}
	}

	perPrefix := make([][]HydratedChange, len(peers))
	var g errgroup.Group
	for i, prefix := range peers {
		i, prefix := i, prefix
		g.Go(func() error {
			changes, err := hydrateOnePrefix(fs, metisDir, prefix)
			perPrefix[i] = changes
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var changes []HydratedChange
	for i, c := range perPrefix {
		changes = append(changes, c...)
		if err := ensureIgnored(metisDir, peers[i]); err != nil {
			return nil, fmt.Errorf("update ignore rules for %s: %w", peers[i], err)
		}
	}
	return changes, nil
}

func hydrateOnePrefix(fs billyfs.Filesystem, metisDir, prefix string) ([]HydratedChange, error) {
	remoteFiles, err := fs.ReadDir(prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", metiserr.ErrSyncNetwork, prefix, err)
	}

	localDir := filepath.Join(metisDir, prefix)
	if err := os.MkdirAll(localDir, 0755); err != nil {
		return nil, fmt.Errorf("create peer directory %s: %w", localDir, err)
	}

	var changes []HydratedChange
	seen := make(map[string]bool, len(remoteFiles))
	for _, rf := range remoteFiles {
		if rf.IsDir() || !strings.HasSuffix(rf.Name(), ".md") {
			continue
		}
		seen[rf.Name()] = true

		src, err := fs.Open(path.Join(prefix, rf.Name()))
		if err != nil {
			return nil, fmt.Errorf("%w: open %s/%s: %v", metiserr.ErrSyncNetwork, prefix, rf.Name(), err)
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read %s/%s: %v", metiserr.ErrSyncNetwork, prefix, rf.Name(), err)
		}

		localPath := filepath.Join(localDir, rf.Name())
		os.Chmod(localPath, 0644) // best-effort: ignore if the file doesn't exist yet
		if err := os.WriteFile(localPath, data, 0644); err != nil {
			return nil, fmt.Errorf("write hydrated peer file %s: %w", localPath, err)
		}
		os.Chmod(localPath, 0444)

		changes = append(changes, HydratedChange{
			Prefix: prefix,
			Code:   strings.TrimSuffix(rf.Name(), ".md"),
			Action: "write",
		})
	}

	existingLocal, err := os.ReadDir(localDir)
	if err != nil {
		return nil, fmt.Errorf("list local peer directory %s: %w", localDir, err)
	}
	for _, lf := range existingLocal {
		if lf.IsDir() || seen[lf.Name()] {
			continue
		}
		localPath := filepath.Join(localDir, lf.Name())
		os.Chmod(localPath, 0644)
		if err := os.Remove(localPath); err != nil {
			return nil, fmt.Errorf("remove stale peer file %s: %w", localPath, err)
		}
		changes = append(changes, HydratedChange{
			Prefix: prefix,
			Code:   strings.TrimSuffix(lf.Name(), ".md"),
			Action: "remove",
		})
	}

	return changes, nil
}

// ensureIgnored adds "<prefix>/" to .metis/.gitignore if it isn't already
// present, so the project's own repository never tracks hydrated peer
// copies (spec §4.10 step 3).
func ensureIgnored(metisDir, prefix string) error {
	path := filepath.Join(metisDir, ".gitignore")
	line := prefix + "/"

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, l := range strings.Split(string(existing), "\n") {
		if strings.TrimSpace(l) == line {
			return nil
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return err
		}
	}
	_, err = f.WriteString(line + "\n")
	return err
}
