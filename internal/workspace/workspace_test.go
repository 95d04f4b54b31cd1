package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/metis-io/metis/internal/config"
)

func initFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	metisDir := filepath.Join(root, ".metis")
	if err := os.MkdirAll(filepath.Join(metisDir, "visions"), 0755); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig("PROJ")
	if err := config.Save(metisDir, cfg); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestFindRoot(t *testing.T) {
	root := initFixture(t)
	nested := filepath.Join(root, "visions", "deep")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindRoot(nested)
	if err != nil {
		t.Fatalf("FindRoot() error: %v", err)
	}
	want := filepath.Join(root, ".metis")
	if got != want {
		t.Errorf("FindRoot() = %q, want %q", got, want)
	}
}

func TestFindRootNotFound(t *testing.T) {
	dir := t.TempDir()
	if _, err := FindRoot(dir); err == nil {
		t.Fatal("FindRoot() on a directory with no .metis: want error, got nil")
	}
}

func TestOpenReconciles(t *testing.T) {
	root := initFixture(t)
	ctx := context.Background()

	h, err := Open(ctx, root)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer h.Close()

	if h.LastResult() == nil {
		t.Error("Open() did not run an initial reconcile pass")
	}
}

func TestPeerDirsExcludesCanonicalLayout(t *testing.T) {
	root := initFixture(t)
	metisDir := filepath.Join(root, ".metis")
	if err := os.MkdirAll(filepath.Join(metisDir, "OTHER"), 0755); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	h, err := Open(ctx, root)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer h.Close()

	peers := h.PeerDirs()
	if len(peers) != 1 || peers[0] != "OTHER" {
		t.Errorf("PeerDirs() = %v, want [OTHER]", peers)
	}
}
