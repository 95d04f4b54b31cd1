// Package reconcile implements C6: the filesystem-is-source-of-truth
// reconciliation pass that keeps the SQLite cache consistent with the
// Markdown files under .metis/.
//
// It mirrors the teacher's sync worker shape — quarantine a bad item and
// keep going, log every step with a "[reconcile]" prefix, aggregate errors
// instead of aborting — but runs in the opposite direction: the filesystem
// is authoritative and the cache is rebuilt from it, rather than an API
// response hydrating a local store.
package reconcile

import (
	"context"
	"fmt"
	"log"

	"github.com/metis-io/metis/internal/docmodel"
	"github.com/metis-io/metis/internal/frontmatter"
	"github.com/metis-io/metis/internal/layout"
	"github.com/metis-io/metis/internal/shortcode"
	"github.com/metis-io/metis/internal/store"
)

// maxCollisionPasses bounds the "repeat from step 5" loop in spec §4.7 step
// 6. A single pass resolves every collision present at walk time; further
// passes only matter if renumbering itself manufactured a fresh collision,
// which does not happen with a monotonic per-kind counter, but the bound
// keeps the loop provably terminating regardless.
const maxCollisionPasses = 5

// QuarantineEntry records a file that failed to parse. The reconciler skips
// it and continues rather than aborting the whole pass.
type QuarantineEntry struct {
	Path string
	Err  error
}

// Result summarizes one reconciliation pass.
type Result struct {
	Created     int
	Updated     int
	Deleted     int
	Renumbered  []shortcode.RenumberedDocument
	Quarantined []QuarantineEntry
}

// Run walks root (a workspace's .metis directory), diffs it against st's
// cached rows, and brings the cache and the on-disk short codes back into
// agreement. ignoreDirs names top-level directory entries to skip entirely —
// used to exclude a sync's hydrated, read-only peer folders.
func Run(ctx context.Context, root, prefix string, st *store.Store, ignoreDirs []string) (*Result, error) {
	result := &Result{}

	fsFiles, err := walkDocuments(root, ignoreDirs)
	if err != nil {
		return nil, err
	}

	dbRows, err := st.Queries().ListDocuments(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("load cached rows: %w", err)
	}
	dbByPath := make(map[string]store.DocumentRow, len(dbRows))
	for _, r := range dbRows {
		dbByPath[r.FilePath] = r
	}

	counters, err := loadCounters(ctx, st)
	if err != nil {
		return nil, err
	}

	var docs []*docmodel.Document
	fmByDoc := map[*docmodel.Document]*frontmatter.Document{}
	seenPaths := map[string]bool{}
	needsWrite := map[*docmodel.Document]bool{}

	for _, f := range fsFiles {
		seenPaths[f.path] = true

		fm, err := frontmatter.Parse(f.raw)
		if err != nil {
			log.Printf("[reconcile] quarantine %s: %v", f.path, err)
			result.Quarantined = append(result.Quarantined, QuarantineEntry{Path: f.path, Err: err})
			continue
		}
		doc, err := docmodel.Parse(f.path, f.raw)
		if err != nil {
			log.Printf("[reconcile] quarantine %s: %v", f.path, err)
			result.Quarantined = append(result.Quarantined, QuarantineEntry{Path: f.path, Err: err})
			continue
		}

		if doc.ShortCode == "" {
			code, counter := shortcode.Allocate(prefix, doc.Kind, knownCodes(docs, doc.Kind), counters[doc.Kind])
			doc.ShortCode = code
			counters[doc.Kind] = counter
			fm.Set("short_code", code)
			needsWrite[doc] = true
		}

		docs = append(docs, doc)
		fmByDoc[doc] = fm
	}

	bumpCountersToObservedMax(counters, docs)

	pathBefore := make(map[*docmodel.Document]string, len(docs))
	for _, d := range docs {
		pathBefore[d] = d.FilePath
	}
	touched, err := resolveCollisions(prefix, counters, docs)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if old := pathBefore[d]; old != d.FilePath {
			delete(seenPaths, old)
			seenPaths[d.FilePath] = true
		}
	}
	result.Renumbered = touched.renumbered
	for d := range touched.docs {
		needsWrite[d] = true
	}

	for doc := range needsWrite {
		doc.ExitCriteriaMet = docmodel.ExitCriteriaMet(docmodel.ParseExitCriteria(doc.Body))
		fm := fmByDoc[doc]
		if fm == nil {
			continue
		}
		rendered, err := docmodel.Render(doc, fm)
		if err != nil {
			log.Printf("[reconcile] render %s: %v", doc.FilePath, err)
			continue
		}
		if err := layout.WriteAtomic(doc.FilePath, rendered); err != nil {
			log.Printf("[reconcile] write %s: %v", doc.FilePath, err)
			continue
		}
		doc.ContentHash = docmodel.ContentHash(rendered)
	}

	for _, doc := range docs {
		existing, known := dbByPath[doc.FilePath]
		if known && existing.ContentHash == doc.ContentHash && existing.ShortCode == doc.ShortCode {
			continue
		}

		row, err := store.RowFromDocument(doc)
		if err != nil {
			log.Printf("[reconcile] convert %s: %v", doc.FilePath, err)
			continue
		}
		if err := st.Queries().UpsertDocument(ctx, row); err != nil {
			log.Printf("[reconcile] upsert %s: %v", doc.FilePath, err)
			continue
		}
		if err := st.Queries().ReplaceTags(ctx, doc.FilePath, doc.Tags); err != nil {
			log.Printf("[reconcile] replace tags for %s: %v", doc.FilePath, err)
		}
		if known {
			result.Updated++
		} else {
			result.Created++
		}
	}

	for path := range dbByPath {
		if seenPaths[path] {
			continue
		}
		if err := st.Queries().DeleteDocument(ctx, path); err != nil {
			log.Printf("[reconcile] delete stale row %s: %v", path, err)
			continue
		}
		result.Deleted++
	}

	if err := rebuildLineage(ctx, st, docs); err != nil {
		return nil, err
	}

	for kind, counter := range counters {
		if err := st.Queries().SetCounter(ctx, kind, counter); err != nil {
			log.Printf("[reconcile] persist counter for %s: %v", kind, err)
		}
	}

	return result, nil
}

func loadCounters(ctx context.Context, st *store.Store) (map[docmodel.Kind]int, error) {
	counters := map[docmodel.Kind]int{}
	for _, k := range []docmodel.Kind{docmodel.KindVision, docmodel.KindStrategy, docmodel.KindInitiative, docmodel.KindTask, docmodel.KindADR} {
		n, err := st.Queries().GetCounter(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("load counter for %s: %w", k, err)
		}
		counters[k] = n
	}
	return counters, nil
}

// bumpCountersToObservedMax raises each kind's counter to the highest
// counter value among every short code already on disk, including codes
// about to collide. Without this, a collision-resolution pass could
// increment a counter that still trails a live code and mint a "new" code
// that collides again.
func bumpCountersToObservedMax(counters map[docmodel.Kind]int, docs []*docmodel.Document) {
	for _, d := range docs {
		if d.ShortCode == "" {
			continue
		}
		if n, ok := shortcode.ExtractCounter(d.ShortCode); ok && n > counters[d.Kind] {
			counters[d.Kind] = n
		}
	}
}

type collisionOutcome struct {
	docs       map[*docmodel.Document]bool
	renumbered []shortcode.RenumberedDocument
}

// resolveCollisions runs shortcode.ResolveCollisions, physically relocates
// every renumbered document, and repeats (bounded) as long as a pass
// produced renumbering, matching spec §4.7 step 6's "repeat from step 5".
func resolveCollisions(prefix string, counters map[docmodel.Kind]int, docs []*docmodel.Document) (collisionOutcome, error) {
	out := collisionOutcome{docs: map[*docmodel.Document]bool{}}

	for pass := 0; pass < maxCollisionPasses; pass++ {
		touchedThisPass := map[*docmodel.Document]bool{}
		siblingsOf := func(target *docmodel.Document) []*docmodel.Document {
			sibs := siblingDocuments(docs, target)
			for _, s := range sibs {
				touchedThisPass[s] = true
			}
			return sibs
		}

		logPass := shortcode.ResolveCollisions(prefix, counters, docs, siblingsOf)
		if len(logPass.Renumbered) == 0 {
			break
		}

		for _, r := range logPass.Renumbered {
			touchedThisPass[r.Document] = true
			if err := relocateRenumbered(docs, r); err != nil {
				return out, err
			}
			log.Printf("[reconcile] renumbered %s -> %s (%s)", r.OldCode, r.NewCode, r.Document.FilePath)
		}

		for d := range touchedThisPass {
			out.docs[d] = true
		}
		out.renumbered = append(out.renumbered, logPass.Renumbered...)
	}

	return out, nil
}

// rebuildLineage recomputes document_relationships from the current
// snapshot of parent references, after short codes have settled.
func rebuildLineage(ctx context.Context, st *store.Store, docs []*docmodel.Document) error {
	byShortCode := make(map[string]*docmodel.Document, len(docs))
	for _, doc := range docs {
		byShortCode[doc.ShortCode] = doc
	}

	for _, doc := range docs {
		if err := st.Queries().DeleteRelationshipsForChild(ctx, doc.FilePath); err != nil {
			log.Printf("[reconcile] clear relationships for %s: %v", doc.FilePath, err)
			continue
		}
		if doc.ParentShortCode == "" {
			continue
		}
		parent, ok := byShortCode[doc.ParentShortCode]
		if !ok {
			log.Printf("[reconcile] %s references unknown parent %s", doc.ShortCode, doc.ParentShortCode)
			continue
		}
		if err := st.Queries().UpsertRelationship(ctx, doc.FilePath, parent.FilePath, doc.ShortCode, parent.ShortCode); err != nil {
			log.Printf("[reconcile] upsert relationship %s -> %s: %v", doc.ShortCode, parent.ShortCode, err)
		}
	}
	return nil
}

