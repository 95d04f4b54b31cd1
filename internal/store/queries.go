package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Queries is the hand-written accessor object for the cache schema, written
// in the same shape a generated query layer would produce (one method per
// statement, typed row/params structs) without running a generator.
type Queries struct {
	db dbtx
}

// WithTx returns a Queries bound to an existing transaction.
func (q *Queries) WithTx(tx dbtx) *Queries {
	return &Queries{db: tx}
}

// DocumentRow mirrors one row of the documents table.
type DocumentRow struct {
	FilePath        string
	ShortCode       string
	Kind            string
	Phase           string
	Title           string
	CreatedAt       string
	UpdatedAt       string
	Archived        bool
	ExitCriteriaMet bool
	ContentHash     string
	FrontmatterJSON string
	Body            string
	StrategyID      sql.NullString
	InitiativeID    sql.NullString
}

const documentColumns = `filepath, short_code, kind, phase, title, created_at, updated_at,
	archived, exit_criteria_met, content_hash, frontmatter_json, body, strategy_id, initiative_id`

func scanDocumentRow(scan func(...any) error) (DocumentRow, error) {
	var r DocumentRow
	var archived, exitMet int
	err := scan(&r.FilePath, &r.ShortCode, &r.Kind, &r.Phase, &r.Title, &r.CreatedAt, &r.UpdatedAt,
		&archived, &exitMet, &r.ContentHash, &r.FrontmatterJSON, &r.Body, &r.StrategyID, &r.InitiativeID)
	r.Archived = archived != 0
	r.ExitCriteriaMet = exitMet != 0
	return r, err
}

// UpsertDocument inserts or replaces a document row.
func (q *Queries) UpsertDocument(ctx context.Context, r DocumentRow) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(filepath) DO UPDATE SET
			short_code = excluded.short_code,
			kind = excluded.kind,
			phase = excluded.phase,
			title = excluded.title,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			archived = excluded.archived,
			exit_criteria_met = excluded.exit_criteria_met,
			content_hash = excluded.content_hash,
			frontmatter_json = excluded.frontmatter_json,
			body = excluded.body,
			strategy_id = excluded.strategy_id,
			initiative_id = excluded.initiative_id
	`, r.FilePath, r.ShortCode, r.Kind, r.Phase, r.Title, r.CreatedAt, r.UpdatedAt,
		boolToInt(r.Archived), boolToInt(r.ExitCriteriaMet), r.ContentHash, r.FrontmatterJSON, r.Body,
		r.StrategyID, r.InitiativeID)
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", r.FilePath, err)
	}
	return nil
}

// GetDocumentByFilepath fetches a single row by its primary key.
func (q *Queries) GetDocumentByFilepath(ctx context.Context, path string) (DocumentRow, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE filepath = ?`, path)
	return scanDocumentRow(row.Scan)
}

// GetDocumentByShortCode fetches a single row by short code, archived or not.
func (q *Queries) GetDocumentByShortCode(ctx context.Context, shortCode string) (DocumentRow, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE short_code = ?`, shortCode)
	return scanDocumentRow(row.Scan)
}

// ListDocuments returns every row, optionally filtering out archived ones.
func (q *Queries) ListDocuments(ctx context.Context, includeArchived bool) ([]DocumentRow, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
	if !includeArchived {
		query += ` WHERE archived = 0`
	}
	query += ` ORDER BY filepath`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	return scanDocumentRows(rows)
}

// ListDocumentsByKind returns every non-archived row of a given kind.
func (q *Queries) ListDocumentsByKind(ctx context.Context, kind string) ([]DocumentRow, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE kind = ? AND archived = 0 ORDER BY filepath`, kind)
	if err != nil {
		return nil, fmt.Errorf("list documents by kind: %w", err)
	}
	defer rows.Close()
	return scanDocumentRows(rows)
}

// ListAllFilepaths returns the primary key of every cached row, used by the
// reconciler to diff the cache against the current filesystem snapshot.
func (q *Queries) ListAllFilepaths(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT filepath FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("list filepaths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// DeleteDocument removes a row (and, via cascade, its relationships and tags).
func (q *Queries) DeleteDocument(ctx context.Context, path string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM documents WHERE filepath = ?`, path)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", path, err)
	}
	return nil
}

func scanDocumentRows(rows *sql.Rows) ([]DocumentRow, error) {
	var out []DocumentRow
	for rows.Next() {
		r, err := scanDocumentRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListCollisionGroups groups non-archived documents by short code, returning
// only groups with more than one member. core.ListCollisions does not use it;
// it reports the reconciler's renumbering log instead.
func (q *Queries) ListCollisionGroups(ctx context.Context) (map[string][]DocumentRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE archived = 0 AND short_code IN (
			SELECT short_code FROM documents WHERE archived = 0 GROUP BY short_code HAVING COUNT(*) > 1
		)
		ORDER BY short_code, filepath
	`)
	if err != nil {
		return nil, fmt.Errorf("list collision groups: %w", err)
	}
	defer rows.Close()

	groups := map[string][]DocumentRow{}
	for rows.Next() {
		r, err := scanDocumentRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		groups[r.ShortCode] = append(groups[r.ShortCode], r)
	}
	return groups, rows.Err()
}

// SetArchived flips the archived flag for a row (archive_document).
func (q *Queries) SetArchived(ctx context.Context, path string, archived bool) error {
	_, err := q.db.ExecContext(ctx, `UPDATE documents SET archived = ? WHERE filepath = ?`, boolToInt(archived), path)
	if err != nil {
		return fmt.Errorf("set archived for %s: %w", path, err)
	}
	return nil
}

// UpsertRelationship records a child/parent edge.
func (q *Queries) UpsertRelationship(ctx context.Context, childPath, parentPath, childCode, parentCode string) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO document_relationships (child_filepath, parent_filepath, child_short_code, parent_short_code)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(child_filepath, parent_filepath) DO UPDATE SET
			child_short_code = excluded.child_short_code,
			parent_short_code = excluded.parent_short_code
	`, childPath, parentPath, childCode, parentCode)
	if err != nil {
		return fmt.Errorf("upsert relationship %s -> %s: %w", childPath, parentPath, err)
	}
	return nil
}

// DeleteRelationshipsForChild removes every edge where path is the child,
// used before reassign_parent writes the new edge (or none, if standalone).
func (q *Queries) DeleteRelationshipsForChild(ctx context.Context, childPath string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM document_relationships WHERE child_filepath = ?`, childPath)
	if err != nil {
		return fmt.Errorf("delete relationships for %s: %w", childPath, err)
	}
	return nil
}

// ListChildren returns the direct children of a parent filepath.
func (q *Queries) ListChildren(ctx context.Context, parentPath string) ([]DocumentRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+prefixedColumns("d")+` FROM documents d
		JOIN document_relationships r ON r.child_filepath = d.filepath
		WHERE r.parent_filepath = ?
		ORDER BY d.filepath
	`, parentPath)
	if err != nil {
		return nil, fmt.Errorf("list children of %s: %w", parentPath, err)
	}
	defer rows.Close()
	return scanDocumentRows(rows)
}

func prefixedColumns(alias string) string {
	cols := []string{"filepath", "short_code", "kind", "phase", "title", "created_at", "updated_at",
		"archived", "exit_criteria_met", "content_hash", "frontmatter_json", "body", "strategy_id", "initiative_id"}
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += alias + "." + c
	}
	return out
}

// ReplaceTags overwrites the tag set for a document.
func (q *Queries) ReplaceTags(ctx context.Context, path string, tags []string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM document_tags WHERE filepath = ?`, path); err != nil {
		return fmt.Errorf("clear tags for %s: %w", path, err)
	}
	for _, tag := range tags {
		if _, err := q.db.ExecContext(ctx, `INSERT OR IGNORE INTO document_tags (filepath, tag) VALUES (?, ?)`, path, tag); err != nil {
			return fmt.Errorf("insert tag %q for %s: %w", tag, path, err)
		}
	}
	return nil
}

// ListTags returns every tag recorded for a document.
func (q *Queries) ListTags(ctx context.Context, path string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT tag FROM document_tags WHERE filepath = ? ORDER BY tag`, path)
	if err != nil {
		return nil, fmt.Errorf("list tags for %s: %w", path, err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// SearchDocuments runs a full-text query over title, body, and kind. Archived
// rows are included; callers filter them out when they need to.
func (q *Queries) SearchDocuments(ctx context.Context, query string) ([]DocumentRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+prefixedColumns("d")+` FROM documents_fts f
		JOIN documents d ON d.rowid = f.rowid
		WHERE documents_fts MATCH ?
		ORDER BY rank
	`, query)
	if err != nil {
		return nil, fmt.Errorf("search documents %q: %w", query, err)
	}
	defer rows.Close()
	return scanDocumentRows(rows)
}

// GetConfigValue reads one key from the configuration table.
func (q *Queries) GetConfigValue(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := q.db.QueryRowContext(ctx, `SELECT value FROM configuration WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %q: %w", key, err)
	}
	return value, true, nil
}

// SetConfigValue upserts one key in the configuration table.
func (q *Queries) SetConfigValue(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO configuration (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
