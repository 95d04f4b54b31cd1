package gitsync

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestIsNonFastForward(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{errors.New("non-fast-forward update: refs/heads/main"), true},
		{errors.New("failed to push some refs, fetch first"), true},
		{errors.New("remote repository is empty"), false},
		{nil, false},
	}
	for _, c := range cases {
		if got := isNonFastForward(c.err); got != c.want {
			t.Errorf("isNonFastForward(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestIsAuthError(t *testing.T) {
	if !isAuthError(errors.New("authentication required")) {
		t.Error("isAuthError() = false for an authentication-required message, want true")
	}
	if isAuthError(errors.New("connection refused")) {
		t.Error("isAuthError() = true for an unrelated network message, want false")
	}
}

func TestCommitMessage(t *testing.T) {
	if msg := commitMessage("PROJ"); msg == "" {
		t.Error("commitMessage() returned an empty string")
	}
}

func TestEnsureIgnoredIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	if err := ensureIgnored(dir, "PEER"); err != nil {
		t.Fatalf("ensureIgnored() error: %v", err)
	}
	if err := ensureIgnored(dir, "PEER"); err != nil {
		t.Fatalf("ensureIgnored() second call error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		t.Fatalf("read .gitignore: %v", err)
	}
	content := string(data)
	count := 0
	for _, line := range splitLines(content) {
		if line == "PEER/" {
			count++
		}
	}
	if count != 1 {
		t.Errorf(".gitignore has %d PEER/ lines, want exactly 1 (content: %q)", count, content)
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
