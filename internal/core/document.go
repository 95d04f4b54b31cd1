package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/metis-io/metis/internal/docmodel"
	"github.com/metis-io/metis/internal/frontmatter"
	"github.com/metis-io/metis/internal/layout"
	"github.com/metis-io/metis/internal/metiserr"
	"github.com/metis-io/metis/internal/phase"
	"github.com/metis-io/metis/internal/shortcode"
	"github.com/metis-io/metis/internal/store"
)

// ListDocuments implements `list_documents`.
func (w *Workspace) ListDocuments(ctx context.Context, includeArchived bool) ([]store.DocumentRow, error) {
	if err := w.reconcile(ctx); err != nil {
		return nil, err
	}
	return w.handle.Store.Queries().ListDocuments(ctx, includeArchived)
}

// SearchOptions narrows a `search_documents` call.
type SearchOptions struct {
	Kind            docmodel.Kind // empty means every kind
	Limit           int           // 0 means unbounded
	IncludeArchived bool
}

// SearchDocuments implements `search_documents`, running the FTS5 query and
// then applying the kind/archived/limit filters the schema doesn't express
// directly in the MATCH query.
func (w *Workspace) SearchDocuments(ctx context.Context, query string, opts SearchOptions) ([]store.DocumentRow, error) {
	if err := w.reconcile(ctx); err != nil {
		return nil, err
	}
	rows, err := w.handle.Store.Queries().SearchDocuments(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]store.DocumentRow, 0, len(rows))
	for _, r := range rows {
		if opts.Kind != "" && r.Kind != string(opts.Kind) {
			continue
		}
		if !opts.IncludeArchived && r.Archived {
			continue
		}
		out = append(out, r)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}

// ReadDocument implements `read_document`.
func (w *Workspace) ReadDocument(ctx context.Context, shortCode string) (*docmodel.Document, error) {
	if err := w.reconcile(ctx); err != nil {
		return nil, err
	}
	doc, _, _, err := w.loadByShortCode(shortCode)
	return doc, err
}

// CreateOptions carries the kind-specific fields `create_document` accepts
// (spec §6.4); only the fields relevant to the requested kind are read.
type CreateOptions struct {
	Parent          string // short code of the parent, if any
	Complexity      docmodel.Complexity
	DecisionMaker   string
	BacklogCategory docmodel.BacklogCategory
	RiskLevel       docmodel.RiskLevel
}

// CreateDocument implements `create_document`: resolve lineage and parent
// validity, allocate a short code, render a fresh document from a minimal
// template, and write it through C5/C4.
func (w *Workspace) CreateDocument(ctx context.Context, kind docmodel.Kind, title string, opts CreateOptions) (string, error) {
	if err := w.reconcile(ctx); err != nil {
		return "", err
	}

	lineage, parentDoc, err := w.resolveLineage(kind, opts.Parent)
	if err != nil {
		return "", err
	}

	code, err := w.allocateShortCode(ctx, kind)
	if err != nil {
		return "", err
	}

	now := time.Now()
	doc := &docmodel.Document{
		ShortCode:       code,
		SlugID:          docmodel.NewSlugID(),
		Kind:            kind,
		Title:           title,
		CreatedAt:       now,
		UpdatedAt:       now,
		Phase:           phase.InitialPhase(kind),
		ParentShortCode: opts.Parent,
		Tags:            []string{"#" + string(kind), "#phase/" + phase.InitialPhase(kind)},
		Body:            defaultBody(kind, title),
	}
	attachOptions(doc, opts)
	if parentDoc != nil {
		doc.ParentShortCode = parentDoc.ShortCode
	}

	path, err := layout.Path(w.handle.Root, doc, lineage)
	if err != nil {
		return "", err
	}
	doc.FilePath = path

	fm := &frontmatter.Document{Frontmatter: map[string]any{}, Body: doc.Body}
	if err := w.persist(ctx, doc, fm, path); err != nil {
		return "", err
	}
	if err := w.writeRelationship(ctx, doc); err != nil {
		return "", err
	}
	return doc.ShortCode, nil
}

// resolveLineage validates the proposed parent (if any) against the
// structural rules in spec invariants 3/4 and derives the directory
// lineage CreateDocument's layout.Path call needs.
func (w *Workspace) resolveLineage(kind docmodel.Kind, parentCode string) (layout.Lineage, *docmodel.Document, error) {
	if parentCode == "" {
		if kind == docmodel.KindInitiative {
			return layout.Lineage{}, nil, fmt.Errorf("%w: an initiative requires a parent", metiserr.ErrParentInvalid)
		}
		return layout.Lineage{}, nil, nil // standalone task, goes to backlog
	}

	parent, _, _, err := w.loadByShortCode(parentCode)
	if err != nil {
		return layout.Lineage{}, nil, err
	}
	if err := phase.ValidateParentKind(kind, parent.Kind, parent.Phase, w.handle.Config.Preset); err != nil {
		return layout.Lineage{}, nil, err
	}

	switch kind {
	case docmodel.KindInitiative:
		if parent.Kind == docmodel.KindStrategy {
			return layout.Lineage{StrategyCode: parent.ShortCode}, parent, nil
		}
		return layout.Lineage{}, parent, nil
	case docmodel.KindTask:
		lineage := layout.Lineage{InitiativeCode: parent.ShortCode}
		if parent.ParentShortCode != "" {
			if grandparent, _, _, err := w.loadByShortCode(parent.ParentShortCode); err == nil && grandparent.Kind == docmodel.KindStrategy {
				lineage.StrategyCode = grandparent.ShortCode
			}
		}
		return lineage, parent, nil
	default:
		return layout.Lineage{}, parent, nil
	}
}

func (w *Workspace) allocateShortCode(ctx context.Context, kind docmodel.Kind) (string, error) {
	known, err := w.handle.Store.Queries().ShortCodesForKind(ctx, string(kind))
	if err != nil {
		return "", err
	}
	counter, err := w.handle.Store.Queries().GetCounter(ctx, kind)
	if err != nil {
		return "", err
	}
	code, next := shortcode.Allocate(w.handle.Config.Prefix, kind, known, counter)
	if err := w.handle.Store.Queries().SetCounter(ctx, kind, next); err != nil {
		return "", err
	}
	return code, nil
}

func attachOptions(doc *docmodel.Document, opts CreateOptions) {
	switch doc.Kind {
	case docmodel.KindInitiative:
		doc.Initiative = &docmodel.InitiativeAttrs{Complexity: opts.Complexity}
	case docmodel.KindADR:
		doc.ADR = &docmodel.ADRAttrs{DecisionMaker: opts.DecisionMaker, DecisionDate: doc.CreatedAt.UTC().Format(time.RFC3339)}
	case docmodel.KindStrategy:
		doc.Strategy = &docmodel.StrategyAttrs{RiskLevel: opts.RiskLevel}
	case docmodel.KindTask:
		cat := opts.BacklogCategory
		if cat == "" {
			cat = docmodel.BacklogNone
		}
		doc.Task = &docmodel.TaskAttrs{BacklogCategory: cat}
	}
}

func defaultBody(kind docmodel.Kind, title string) string {
	return fmt.Sprintf("# %s\n\n## Exit Criteria\n\n- [ ] Define done for this %s\n", title, kind)
}

func (w *Workspace) writeRelationship(ctx context.Context, doc *docmodel.Document) error {
	if doc.ParentShortCode == "" {
		return w.handle.Store.Queries().DeleteRelationshipsForChild(ctx, doc.FilePath)
	}
	parent, err := w.handle.Store.Queries().GetDocumentByShortCode(ctx, doc.ParentShortCode)
	if err != nil {
		return nil // parent not yet cached; the next reconcile pass rebuilds lineage
	}
	return w.handle.Store.Queries().UpsertRelationship(ctx, doc.FilePath, parent.FilePath, doc.ShortCode, doc.ParentShortCode)
}

// EditDocument implements `edit_document`: a literal search-and-replace over
// the document body, leaving frontmatter untouched except for the derived
// exit_criteria_met/updated_at fields.
func (w *Workspace) EditDocument(ctx context.Context, shortCode, search, replace string, replaceAll bool) error {
	if err := w.reconcile(ctx); err != nil {
		return err
	}
	doc, fm, _, err := w.loadByShortCode(shortCode)
	if err != nil {
		return err
	}

	doc.Body = replaceBody(doc.Body, search, replace, replaceAll)
	doc.UpdatedAt = time.Now()
	criteria := docmodel.ParseExitCriteria(doc.Body)
	doc.ExitCriteriaMet = docmodel.ExitCriteriaMet(criteria)

	return w.persist(ctx, doc, fm, doc.FilePath)
}

func replaceBody(body, search, replace string, all bool) string {
	if search == "" {
		return body
	}
	if all {
		return strings.ReplaceAll(body, search, replace)
	}
	return strings.Replace(body, search, replace, 1)
}
