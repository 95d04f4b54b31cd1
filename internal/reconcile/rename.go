package reconcile

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/metis-io/metis/internal/docmodel"
	"github.com/metis-io/metis/internal/layout"
	"github.com/metis-io/metis/internal/shortcode"
)

// siblingDocuments returns every other live document that shares target's
// directory, or lives in a subdirectory of it. That covers both shapes the
// collision resolver needs to rewrite: flat pools (ADRs, backlog tasks,
// tasks under one initiative) where siblings sit in the same directory, and
// an Initiative or Strategy's own child tasks/initiatives, which live a
// level below its directory. References from outside that subtree are left
// untouched, per the documented cross-group limitation.
func siblingDocuments(docs []*docmodel.Document, target *docmodel.Document) []*docmodel.Document {
	targetDir := filepath.Dir(target.FilePath)
	var out []*docmodel.Document
	for _, d := range docs {
		if d == target {
			continue
		}
		dDir := filepath.Dir(d.FilePath)
		if dDir == targetDir || strings.HasPrefix(dDir, targetDir+string(filepath.Separator)) {
			out = append(out, d)
		}
	}
	return out
}

// relocateRenumbered moves a renumbered document's file on disk to match its
// new short code, and keeps every other in-memory document's FilePath in
// sync when the move carries a directory along with it.
//
// Vision, Task, and ADR documents are named after their own short code, so
// only the leaf filename changes. Strategy and Initiative documents live in
// a directory named after their short code (strategy.md, initiative.md), so
// the whole directory — and anything nested beneath it — moves.
func relocateRenumbered(docs []*docmodel.Document, r shortcode.RenumberedDocument) error {
	doc := r.Document

	switch doc.Kind {
	case docmodel.KindStrategy, docmodel.KindInitiative:
		oldDir := filepath.Dir(doc.FilePath)
		newDir := filepath.Join(filepath.Dir(oldDir), r.NewCode)
		if err := layout.Move(oldDir, newDir); err != nil {
			return fmt.Errorf("relocate %s to %s: %w", r.OldCode, r.NewCode, err)
		}
		rewritePrefix(docs, oldDir, newDir)
	default:
		oldPath := doc.FilePath
		newPath := filepath.Join(filepath.Dir(oldPath), r.NewCode+".md")
		if err := layout.Move(oldPath, newPath); err != nil {
			return fmt.Errorf("relocate %s to %s: %w", r.OldCode, r.NewCode, err)
		}
		doc.FilePath = newPath
	}
	return nil
}

// rewritePrefix updates FilePath on every document whose path fell under
// oldDir (including doc itself) to sit under newDir instead, after oldDir
// was physically renamed to newDir.
func rewritePrefix(docs []*docmodel.Document, oldDir, newDir string) {
	for _, d := range docs {
		if d.FilePath == oldDir {
			d.FilePath = newDir
			continue
		}
		if strings.HasPrefix(d.FilePath, oldDir+string(filepath.Separator)) {
			d.FilePath = newDir + d.FilePath[len(oldDir):]
		}
	}
}
