// Package core implements C11: the public operation contract surfaced to
// adapters (CLI, TUI, MCP, GUI front-ends). A Workspace wires together the
// workspace validator (C9), the document model (C2), the phase/transition
// service (C7), the filesystem layout (C5), the cache store (C4), and the
// git sync engine (C10) behind the operation set in spec §6.4.
//
// It is grounded on the teacher's internal/repo.Repository: one large,
// documented interface-shaped set of methods; a concrete type wires the
// subsystems together. Unlike the teacher (which only reads through a
// cache backed by a remote API), every mutating method here also owns the
// filesystem write-through, since the filesystem is the source of truth
// (spec invariant 1).
package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/metis-io/metis/internal/config"
	"github.com/metis-io/metis/internal/docmodel"
	"github.com/metis-io/metis/internal/frontmatter"
	"github.com/metis-io/metis/internal/layout"
	"github.com/metis-io/metis/internal/metiserr"
	"github.com/metis-io/metis/internal/store"
	"github.com/metis-io/metis/internal/workspace"
)

// Workspace is an open, reconciling handle to a .metis directory — the
// object every C11 operation is a method on.
type Workspace struct {
	handle *workspace.Handle
}

// Open locates the .metis directory above path, self-heals its cache, and
// runs an initial reconcile pass (C9). Every subsequent method re-runs the
// reconciler before doing its own work, matching the control flow
// "adapter -> C11 -> C9 (reconcile) -> operation -> C4 write-through".
func Open(ctx context.Context, path string) (*Workspace, error) {
	h, err := workspace.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Workspace{handle: h}, nil
}

// InitializeProject implements `initialize_project`: it lays down the
// canonical directory tree (spec §6.1) and an initial config.toml, then
// opens the freshly created workspace.
func InitializeProject(ctx context.Context, path, prefix string, preset config.Preset, upstreamURL, workspacePrefix string) (*Workspace, error) {
	metisDir := workspace.Path(path)
	if _, err := os.Stat(metisDir); err == nil {
		return nil, fmt.Errorf("workspace already initialized at %s", metisDir)
	}

	for _, dir := range []string{
		"visions", "adrs",
		"strategies/NULL/initiatives",
		"backlog/bug", "backlog/feature", "backlog/tech-debt",
		"archived",
	} {
		if err := os.MkdirAll(filepath.Join(metisDir, dir), 0755); err != nil {
			return nil, fmt.Errorf("create workspace layout: %w", err)
		}
	}

	cfg := config.DefaultConfig(prefix)
	cfg.Workspace.Prefix = workspacePrefix
	cfg.Sync.UpstreamURL = upstreamURL
	if err := config.SetPreset(cfg, preset); err != nil {
		return nil, err
	}
	if err := config.Save(metisDir, cfg); err != nil {
		return nil, fmt.Errorf("save initial config: %w", err)
	}

	return Open(ctx, path)
}

// Root returns the workspace's .metis directory.
func (w *Workspace) Root() string {
	return w.handle.Root
}

// Close releases the workspace's cache database connection.
func (w *Workspace) Close() error {
	return w.handle.Close()
}

// reconcile runs C9's reconcile step, which every public operation does
// before touching a document.
func (w *Workspace) reconcile(ctx context.Context) error {
	_, err := w.handle.Reconcile(ctx)
	return err
}

// loadByShortCode resolves a short code to its file on disk and parses it
// twice, like the reconciler does: once through frontmatter.Parse to keep
// the original YAML node (so Render preserves untouched keys' order, spec
// §4.1), and once through docmodel.Parse for the typed view.
func (w *Workspace) loadByShortCode(shortCode string) (*docmodel.Document, *frontmatter.Document, []byte, error) {
	row, err := w.handle.Store.Queries().GetDocumentByShortCode(context.Background(), shortCode)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %s", metiserr.ErrDocumentNotFound, shortCode)
	}
	return w.loadByFilePath(row.FilePath)
}

func (w *Workspace) loadByFilePath(path string) (*docmodel.Document, *frontmatter.Document, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %s", metiserr.ErrDocumentNotFound, path)
	}
	fm, err := frontmatter.Parse(raw)
	if err != nil {
		return nil, nil, nil, err
	}
	doc, err := docmodel.Parse(path, raw)
	if err != nil {
		return nil, nil, nil, err
	}
	return doc, fm, raw, nil
}

// persist renders doc back to newPath (moving the file there first if it
// differs from doc.FilePath), then write-throughs the cache row and tags —
// C5 write, then C4 write-through, per the spec's per-operation control flow.
// The relationship edge is not written here; callers do that with
// writeRelationship.
func (w *Workspace) persist(ctx context.Context, doc *docmodel.Document, fm *frontmatter.Document, newPath string) error {
	if err := moveIfNeeded(doc.FilePath, newPath); err != nil {
		return err
	}
	doc.FilePath = newPath

	rendered, err := docmodel.Render(doc, fm)
	if err != nil {
		return fmt.Errorf("render %s: %w", doc.ShortCode, err)
	}
	if err := layout.WriteAtomic(doc.FilePath, rendered); err != nil {
		return err
	}
	doc.ContentHash = docmodel.ContentHash(rendered)

	row, err := store.RowFromDocument(doc)
	if err != nil {
		return err
	}
	if err := w.handle.Store.Queries().UpsertDocument(ctx, row); err != nil {
		return err
	}
	return w.handle.Store.Queries().ReplaceTags(ctx, doc.FilePath, doc.Tags)
}
