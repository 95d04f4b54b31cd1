package reconcile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/metis-io/metis/internal/docmodel"
)

// cacheFileName and its WAL/SHM siblings are skipped by the walk; they are
// the cache database itself, not a document.
const cacheFileName = "cache.db"

// configFileName holds workspace configuration, not a document.
const configFileName = "config.toml"

type fsFile struct {
	path string
	raw  []byte
}

// walkDocuments collects every Markdown file under root, skipping the cache
// database and its WAL/SHM files, the config file, dotfiles/dotdirs (".git"
// among them), and any top-level directory named in ignoreDirs — the hydrated peer
// workspace folders a sync has mirrored in read-only (spec §4.7 step 1).
func walkDocuments(root string, ignoreDirs []string) ([]fsFile, error) {
	ignored := make(map[string]bool, len(ignoreDirs))
	for _, d := range ignoreDirs {
		ignored[d] = true
	}

	var out []fsFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		base := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if strings.HasPrefix(base, ".") || (ignored[base] && filepath.Dir(rel) == ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if base == cacheFileName || strings.HasPrefix(base, cacheFileName+"-") || base == configFileName {
			return nil
		}
		if filepath.Ext(base) != ".md" {
			return nil
		}
		if strings.HasPrefix(base, ".") {
			return nil
		}

		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("read %s: %w", rel, readErr)
		}
		out = append(out, fsFile{path: path, raw: raw})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return out, nil
}

// DocumentPaths returns every on-disk document path under root, excluding
// the cache database, the config file, dotfiles/dotdirs, and any directory
// named in ignoreDirs. Exported for the git sync engine (C10), which walks
// the same owned tree to build the flat dehydrated projection.
func DocumentPaths(root string, ignoreDirs []string) ([]string, error) {
	files, err := walkDocuments(root, ignoreDirs)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

// knownCodes returns the short codes already assigned among docs for kind,
// feeding the allocator's "max over known codes" path (spec §4.4).
func knownCodes(docs []*docmodel.Document, kind docmodel.Kind) []string {
	var codes []string
	for _, d := range docs {
		if d.Kind == kind && d.ShortCode != "" {
			codes = append(codes, d.ShortCode)
		}
	}
	return codes
}
