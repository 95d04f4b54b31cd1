// Package layout implements C5: canonical on-disk paths for documents, the
// atomic write-to-temp-then-rename primitive, and cascade directory removal.
package layout

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/metis-io/metis/internal/docmodel"
)

// Lineage supplies the structural ancestry a document's canonical path
// needs beyond its own short code: an Initiative's enclosing Strategy (if
// any), and a Task's enclosing Initiative (if it is not a standalone
// backlog item).
type Lineage struct {
	StrategyCode   string // empty means the "NULL" strategy bucket
	InitiativeCode string // empty means the task is a standalone backlog item
}

// nullBucket is the directory name used for initiatives with no strategy
// parent (spec §6.1: "strategies not tied to a vision").
const nullBucket = "NULL"

// Path computes the canonical filesystem path for doc under root, given its
// structural lineage (spec §6.1).
func Path(root string, doc *docmodel.Document, lineage Lineage) (string, error) {
	var rel string

	switch doc.Kind {
	case docmodel.KindVision:
		rel = filepath.Join("visions", doc.ShortCode+".md")
	case docmodel.KindStrategy:
		rel = filepath.Join("strategies", doc.ShortCode, "strategy.md")
	case docmodel.KindInitiative:
		rel = filepath.Join("strategies", strategyDir(lineage.StrategyCode), "initiatives", doc.ShortCode, "initiative.md")
	case docmodel.KindTask:
		if lineage.InitiativeCode != "" {
			rel = filepath.Join("strategies", strategyDir(lineage.StrategyCode), "initiatives", lineage.InitiativeCode, "tasks", doc.ShortCode+".md")
		} else {
			rel = filepath.Join("backlog", string(backlogCategory(doc)), doc.ShortCode+".md")
		}
	case docmodel.KindADR:
		rel = filepath.Join("adrs", doc.ShortCode+".md")
	default:
		return "", fmt.Errorf("layout: unknown kind %q", doc.Kind)
	}

	if doc.Archived {
		rel = filepath.Join("archived", rel)
	}
	return filepath.Join(root, rel), nil
}

func strategyDir(code string) string {
	if code == "" {
		return nullBucket
	}
	return code
}

func backlogCategory(doc *docmodel.Document) docmodel.BacklogCategory {
	if doc.Task == nil || doc.Task.BacklogCategory == "" {
		return docmodel.BacklogNone
	}
	return doc.Task.BacklogCategory
}

// WriteAtomic writes data to path by writing a temp file in the same
// directory and renaming it into place, so readers never observe a partial
// write.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename into place %s: %w", path, err)
	}
	return nil
}

// Move relocates a document from oldPath to newPath atomically where
// possible, used by reassign_parent and short-code renumbering.
func Move(oldPath, newPath string) error {
	if oldPath == newPath {
		return nil
	}
	dir := filepath.Dir(newPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("move %s to %s: %w", oldPath, newPath, err)
	}
	return nil
}

// RemoveEmptyParents walks upward from path's directory toward root,
// removing each directory that has become empty, and stops at the first
// non-empty directory or at root itself.
func RemoveEmptyParents(root, path string) error {
	root = filepath.Clean(root)
	dir := filepath.Clean(filepath.Dir(path))

	for dir != root && len(dir) > len(root) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("read directory %s: %w", dir, err)
		}
		if len(entries) > 0 {
			return nil
		}
		if err := os.Remove(dir); err != nil {
			return fmt.Errorf("remove empty directory %s: %w", dir, err)
		}
		dir = filepath.Dir(dir)
	}
	return nil
}
