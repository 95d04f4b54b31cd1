package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/metis-io/metis/internal/docmodel"
)

// RowFromDocument projects a parsed Document into the row shape stored in
// the cache. frontmatter_json carries the fields that have no dedicated
// column (parent, blocked_by, tags, variant attributes) so a row can be
// reconstituted without re-reading the file.
func RowFromDocument(doc *docmodel.Document) (DocumentRow, error) {
	extra := map[string]any{
		"parent":     doc.ParentShortCode,
		"blocked_by": doc.BlockedBy,
		"tags":       doc.Tags,
	}
	switch doc.Kind {
	case docmodel.KindInitiative:
		extra["initiative"] = doc.Initiative
	case docmodel.KindADR:
		extra["adr"] = doc.ADR
	case docmodel.KindStrategy:
		extra["strategy"] = doc.Strategy
	case docmodel.KindTask:
		extra["task"] = doc.Task
	}
	blob, err := json.Marshal(extra)
	if err != nil {
		return DocumentRow{}, fmt.Errorf("marshal frontmatter for %s: %w", doc.FilePath, err)
	}

	return DocumentRow{
		FilePath:        doc.FilePath,
		ShortCode:       doc.ShortCode,
		Kind:            string(doc.Kind),
		Phase:           doc.Phase,
		Title:           doc.Title,
		CreatedAt:       doc.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       doc.UpdatedAt.UTC().Format(time.RFC3339),
		Archived:        doc.Archived,
		ExitCriteriaMet: doc.ExitCriteriaMet,
		ContentHash:     doc.ContentHash,
		FrontmatterJSON: string(blob),
		Body:            doc.Body,
	}, nil
}

// ShortCodesForKind returns every short code currently cached for a kind,
// feeding the allocator's "max over known codes" normal allocation path.
func (q *Queries) ShortCodesForKind(ctx context.Context, kind string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT short_code FROM documents WHERE kind = ?`, kind)
	if err != nil {
		return nil, fmt.Errorf("list short codes for kind %s: %w", kind, err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

const counterKeyPrefix = "counter."

// GetCounter reads the stored short-code counter for a kind, defaulting to 0.
func (q *Queries) GetCounter(ctx context.Context, kind docmodel.Kind) (int, error) {
	value, ok, err := q.GetConfigValue(ctx, counterKeyPrefix+string(kind))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	var n int
	if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
		return 0, nil
	}
	return n, nil
}

// SetCounter persists the short-code counter for a kind.
func (q *Queries) SetCounter(ctx context.Context, kind docmodel.Kind, counter int) error {
	return q.SetConfigValue(ctx, counterKeyPrefix+string(kind), fmt.Sprintf("%d", counter))
}

// nullString converts an empty string to a NULL column value.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
