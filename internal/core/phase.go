package core

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/metis-io/metis/internal/docmodel"
	"github.com/metis-io/metis/internal/layout"
	"github.com/metis-io/metis/internal/metiserr"
	"github.com/metis-io/metis/internal/phase"
)

// parentOf extracts the "parent" field the cache stores inside a row's
// frontmatter_json blob (see store.RowFromDocument), without re-reading the
// file — used by cycle detection, which only needs the ancestry chain.
func parentOf(frontmatterJSON string) (string, bool, error) {
	var extra struct {
		Parent string `json:"parent"`
	}
	if err := json.Unmarshal([]byte(frontmatterJSON), &extra); err != nil {
		return "", false, err
	}
	return extra.Parent, extra.Parent != "", nil
}

// TransitionPhase implements `transition_phase` (spec §4.3).
func (w *Workspace) TransitionPhase(ctx context.Context, shortCode, target string, force bool) error {
	if err := w.reconcile(ctx); err != nil {
		return err
	}
	doc, fm, _, err := w.loadByShortCode(shortCode)
	if err != nil {
		return err
	}

	if err := phase.Transition(doc, target, force); err != nil {
		return err
	}
	doc.UpdatedAt = time.Now()

	return w.persist(ctx, doc, fm, doc.FilePath)
}

// ReassignParent implements `reassign_parent` (spec §4.3(a)). newParent
// empty makes the document standalone; cycle detection walks ancestors of
// newParent looking for shortCode before the move is committed.
func (w *Workspace) ReassignParent(ctx context.Context, shortCode, newParent string, backlogCategory docmodel.BacklogCategory) error {
	if err := w.reconcile(ctx); err != nil {
		return err
	}
	doc, fm, _, err := w.loadByShortCode(shortCode)
	if err != nil {
		return err
	}

	lineage, parentDoc, err := w.resolveLineage(doc.Kind, newParent)
	if err != nil {
		return err
	}
	if newParent != "" {
		if err := w.rejectCycle(ctx, shortCode, newParent); err != nil {
			return err
		}
	}

	doc.ParentShortCode = newParent
	if doc.Kind == docmodel.KindTask && newParent == "" {
		cat := backlogCategory
		if cat == "" {
			cat = docmodel.BacklogNone
		}
		if doc.Task == nil {
			doc.Task = &docmodel.TaskAttrs{}
		}
		doc.Task.BacklogCategory = cat
	}
	doc.UpdatedAt = time.Now()

	newPath, err := layout.Path(w.handle.Root, doc, lineage)
	if err != nil {
		return err
	}
	oldPath := doc.FilePath

	if err := w.persist(ctx, doc, fm, newPath); err != nil {
		return err
	}
	if err := layout.RemoveEmptyParents(w.handle.Root, oldPath); err != nil {
		return err
	}
	if parentDoc != nil {
		return w.writeRelationship(ctx, doc)
	}
	return w.handle.Store.Queries().DeleteRelationshipsForChild(ctx, doc.FilePath)
}

// rejectCycle walks the parent chain starting at newParent, failing with
// metiserr.ErrCyclicParent if shortCode appears in it (spec §9 design note).
func (w *Workspace) rejectCycle(ctx context.Context, shortCode, newParent string) error {
	current := newParent
	for current != "" {
		if current == shortCode {
			return fmt.Errorf("%w: %s is a descendant of %s", metiserr.ErrCyclicParent, newParent, shortCode)
		}
		row, err := w.handle.Store.Queries().GetDocumentByShortCode(ctx, current)
		if err != nil {
			return nil // ancestor not cached; nothing further to walk
		}
		parent, ok, err := parentOf(row.FrontmatterJSON)
		if err != nil || !ok {
			return nil
		}
		current = parent
	}
	return nil
}

// ArchiveDocument implements `archive_document`: move the file (and every
// descendant, cascading) under .metis/archived/, preserving its relative
// path under the workspace root, and mark each archived in the cache. Short
// codes are never reused once assigned.
func (w *Workspace) ArchiveDocument(ctx context.Context, shortCode string) error {
	if err := w.reconcile(ctx); err != nil {
		return err
	}
	doc, _, _, err := w.loadByShortCode(shortCode)
	if err != nil {
		return err
	}
	return w.archiveCascade(ctx, doc.FilePath)
}

// archiveCascade archives the document at path and recurses into its
// cached children before they are moved, so each descendant is still
// resolvable by its current (pre-archive) filepath when visited.
func (w *Workspace) archiveCascade(ctx context.Context, path string) error {
	children, err := w.handle.Store.Queries().ListChildren(ctx, path)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := w.archiveCascade(ctx, child.FilePath); err != nil {
			return err
		}
	}

	doc, fm, _, err := w.loadByFilePath(path)
	if err != nil {
		return err
	}
	if doc.Archived {
		return nil
	}

	doc.Archived = true
	doc.UpdatedAt = time.Now()

	rel, err := filepath.Rel(w.handle.Root, doc.FilePath)
	if err != nil {
		return fmt.Errorf("compute archived path for %s: %w", doc.ShortCode, err)
	}
	newPath := filepath.Join(w.handle.Root, "archived", rel)

	oldPath := doc.FilePath
	if err := w.persist(ctx, doc, fm, newPath); err != nil {
		return err
	}
	return layout.RemoveEmptyParents(w.handle.Root, oldPath)
}
