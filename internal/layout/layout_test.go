package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/metis-io/metis/internal/docmodel"
)

func TestPathVision(t *testing.T) {
	doc := &docmodel.Document{Kind: docmodel.KindVision, ShortCode: "PROJ-V-0001"}
	got, err := Path("/root", doc, Lineage{})
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}
	want := filepath.Join("/root", "visions", "PROJ-V-0001.md")
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestPathInitiativeUnderStrategy(t *testing.T) {
	doc := &docmodel.Document{Kind: docmodel.KindInitiative, ShortCode: "PROJ-I-0001"}
	got, err := Path("/root", doc, Lineage{StrategyCode: "PROJ-S-0001"})
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}
	want := filepath.Join("/root", "strategies", "PROJ-S-0001", "initiatives", "PROJ-I-0001", "initiative.md")
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestPathInitiativeWithoutStrategy(t *testing.T) {
	doc := &docmodel.Document{Kind: docmodel.KindInitiative, ShortCode: "PROJ-I-0002"}
	got, err := Path("/root", doc, Lineage{})
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}
	want := filepath.Join("/root", "strategies", "NULL", "initiatives", "PROJ-I-0002", "initiative.md")
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestPathTaskUnderInitiative(t *testing.T) {
	doc := &docmodel.Document{Kind: docmodel.KindTask, ShortCode: "PROJ-T-0005"}
	got, err := Path("/root", doc, Lineage{StrategyCode: "PROJ-S-0001", InitiativeCode: "PROJ-I-0001"})
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}
	want := filepath.Join("/root", "strategies", "PROJ-S-0001", "initiatives", "PROJ-I-0001", "tasks", "PROJ-T-0005.md")
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestPathStandaloneBacklogTask(t *testing.T) {
	doc := &docmodel.Document{
		Kind:      docmodel.KindTask,
		ShortCode: "PROJ-T-0006",
		Task:      &docmodel.TaskAttrs{BacklogCategory: docmodel.BacklogBug},
	}
	got, err := Path("/root", doc, Lineage{})
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}
	want := filepath.Join("/root", "backlog", "bug", "PROJ-T-0006.md")
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestPathArchived(t *testing.T) {
	doc := &docmodel.Document{Kind: docmodel.KindADR, ShortCode: "PROJ-A-0001", Archived: true}
	got, err := Path("/root", doc, Lineage{})
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}
	want := filepath.Join("/root", "archived", "adrs", "PROJ-A-0001.md")
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "doc.md")

	if err := WriteAtomic(path, []byte("hello")); err != nil {
		t.Fatalf("WriteAtomic() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read written file: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q, want hello", data)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain after rename")
	}
}

func TestRemoveEmptyParents(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "strategies", "PROJ-S-0001", "initiatives", "PROJ-I-0001", "tasks")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("setup: %v", err)
	}

	docPath := filepath.Join(nested, "PROJ-T-0001.md")
	if err := RemoveEmptyParents(root, docPath); err != nil {
		t.Fatalf("RemoveEmptyParents() error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "strategies")); !os.IsNotExist(err) {
		t.Error("empty ancestor chain should be fully removed up to root")
	}
}

func TestRemoveEmptyParentsStopsAtNonEmptyDir(t *testing.T) {
	root := t.TempDir()
	initDir := filepath.Join(root, "strategies", "PROJ-S-0001", "initiatives", "PROJ-I-0001")
	tasksDir := filepath.Join(initDir, "tasks")
	if err := os.MkdirAll(tasksDir, 0755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(filepath.Join(initDir, "initiative.md"), []byte("x"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	docPath := filepath.Join(tasksDir, "PROJ-T-0001.md")
	if err := RemoveEmptyParents(root, docPath); err != nil {
		t.Fatalf("RemoveEmptyParents() error: %v", err)
	}

	if _, err := os.Stat(initDir); os.IsNotExist(err) {
		t.Error("non-empty ancestor should survive")
	}
	if _, err := os.Stat(tasksDir); !os.IsNotExist(err) {
		t.Error("empty tasks dir should be removed")
	}
}
