package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/metis-io/metis/internal/docmodel"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	return s
}

func TestOpenAndClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("cache file was not created")
	}
}

func TestIsSchemaMismatch(t *testing.T) {
	cases := []struct {
		msg  string
		want bool
	}{
		{"no such column: content_hash", true},
		{"no such table: documents", true},
		{"SQL logic error", true},
		{"disk I/O error", false},
	}
	for _, c := range cases {
		if got := isSchemaMismatch(errString(c.msg)); got != c.want {
			t.Errorf("isSchemaMismatch(%q) = %v, want %v", c.msg, got, c.want)
		}
	}
}

type errString string

func (e errString) Error() string { return string(e) }

func sampleDocument() *docmodel.Document {
	return &docmodel.Document{
		FilePath:    ".metis/tasks/PROJ-T-0001.md",
		Kind:        docmodel.KindTask,
		ShortCode:   "PROJ-T-0001",
		SlugID:      "abc-123",
		Title:       "Fix login",
		Phase:       "todo",
		Body:        "## Exit Criteria\n- [ ] done\n",
		ContentHash: "deadbeef",
		Task:        &docmodel.TaskAttrs{BacklogCategory: docmodel.BacklogBug},
	}
}

func TestUpsertAndGetDocument(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()
	ctx := context.Background()

	doc := sampleDocument()
	row, err := RowFromDocument(doc)
	if err != nil {
		t.Fatalf("RowFromDocument() error: %v", err)
	}

	if err := s.Queries().UpsertDocument(ctx, row); err != nil {
		t.Fatalf("UpsertDocument() error: %v", err)
	}

	got, err := s.Queries().GetDocumentByShortCode(ctx, "PROJ-T-0001")
	if err != nil {
		t.Fatalf("GetDocumentByShortCode() error: %v", err)
	}
	if got.Title != "Fix login" || got.Kind != "task" {
		t.Errorf("unexpected row: %+v", got)
	}
}

func TestListCollisionGroups(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()
	ctx := context.Background()

	a := sampleDocument()
	a.FilePath = ".metis/tasks/a.md"
	b := sampleDocument()
	b.FilePath = ".metis/tasks/b.md"
	c := sampleDocument()
	c.FilePath = ".metis/tasks/c.md"
	c.ShortCode = "PROJ-T-0002"

	for _, d := range []*docmodel.Document{a, b, c} {
		row, err := RowFromDocument(d)
		if err != nil {
			t.Fatalf("RowFromDocument() error: %v", err)
		}
		if err := s.Queries().UpsertDocument(ctx, row); err != nil {
			t.Fatalf("UpsertDocument() error: %v", err)
		}
	}

	groups, err := s.Queries().ListCollisionGroups(ctx)
	if err != nil {
		t.Fatalf("ListCollisionGroups() error: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 colliding group, got %d", len(groups))
	}
	if len(groups["PROJ-T-0001"]) != 2 {
		t.Errorf("expected 2 documents in colliding group, got %d", len(groups["PROJ-T-0001"]))
	}
}

func TestRelationshipsAndChildren(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()
	ctx := context.Background()

	parent := sampleDocument()
	parent.FilePath = ".metis/initiatives/PROJ-I-0001.md"
	parent.Kind = docmodel.KindInitiative
	parent.ShortCode = "PROJ-I-0001"
	parent.Task = nil
	parent.Initiative = &docmodel.InitiativeAttrs{Complexity: docmodel.ComplexityM}

	child := sampleDocument()
	child.ParentShortCode = "PROJ-I-0001"

	for _, d := range []*docmodel.Document{parent, child} {
		row, err := RowFromDocument(d)
		if err != nil {
			t.Fatalf("RowFromDocument() error: %v", err)
		}
		if err := s.Queries().UpsertDocument(ctx, row); err != nil {
			t.Fatalf("UpsertDocument() error: %v", err)
		}
	}

	if err := s.Queries().UpsertRelationship(ctx, child.FilePath, parent.FilePath, child.ShortCode, parent.ShortCode); err != nil {
		t.Fatalf("UpsertRelationship() error: %v", err)
	}

	children, err := s.Queries().ListChildren(ctx, parent.FilePath)
	if err != nil {
		t.Fatalf("ListChildren() error: %v", err)
	}
	if len(children) != 1 || children[0].FilePath != child.FilePath {
		t.Errorf("unexpected children: %+v", children)
	}
}

func TestSearchDocuments(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()
	ctx := context.Background()

	doc := sampleDocument()
	doc.Title = "Fix the login race condition"
	row, err := RowFromDocument(doc)
	if err != nil {
		t.Fatalf("RowFromDocument() error: %v", err)
	}
	if err := s.Queries().UpsertDocument(ctx, row); err != nil {
		t.Fatalf("UpsertDocument() error: %v", err)
	}

	results, err := s.Queries().SearchDocuments(ctx, "race")
	if err != nil {
		t.Fatalf("SearchDocuments() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 search result, got %d", len(results))
	}
}

func TestCounterRoundtrip(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()
	ctx := context.Background()

	n, err := s.Queries().GetCounter(ctx, docmodel.KindTask)
	if err != nil || n != 0 {
		t.Fatalf("GetCounter() on empty store = %d, %v, want 0, nil", n, err)
	}

	if err := s.Queries().SetCounter(ctx, docmodel.KindTask, 42); err != nil {
		t.Fatalf("SetCounter() error: %v", err)
	}

	n, err = s.Queries().GetCounter(ctx, docmodel.KindTask)
	if err != nil || n != 42 {
		t.Fatalf("GetCounter() after set = %d, %v, want 42, nil", n, err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()
	ctx := context.Background()

	doc := sampleDocument()
	row, err := RowFromDocument(doc)
	if err != nil {
		t.Fatalf("RowFromDocument() error: %v", err)
	}

	err = s.WithTx(ctx, func(q *Queries) error {
		if err := q.UpsertDocument(ctx, row); err != nil {
			return err
		}
		return os.ErrInvalid
	})
	if err == nil {
		t.Fatal("WithTx() should propagate the inner error")
	}

	if _, err := s.Queries().GetDocumentByFilepath(ctx, doc.FilePath); err == nil {
		t.Error("expected no row after rollback")
	}
}
