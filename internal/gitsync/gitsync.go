// Package gitsync implements C10: the multi-workspace git sync engine. A
// sync invocation opens a transient, in-memory working copy of a shared
// bare central repository, hydrates read-only copies of peer workspaces'
// documents, dehydrates this workspace's owned documents into the central
// repository's flat wire format, and pushes with non-fast-forward retry.
//
// It is new relative to the teacher, but follows the shape of the teacher's
// internal/sync.Worker (Config struct, a single entry point, bounded
// retries) adapted to drive git plumbing instead of a REST API, per spec §9's
// design note to use a library binding rather than shelling out to git.
package gitsync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/memory"
	"golang.org/x/time/rate"

	billyfs "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"

	"github.com/metis-io/metis/internal/metiserr"
)

// Config is the sync engine's view of one workspace's replication settings
// (spec §4.10; sourced from config C8's [sync]/[workspace] tables).
type Config struct {
	UpstreamURL     string
	WorkspacePrefix string
	MaxRetries      int           // default 3, spec §4.10 step 6
	Timeout         time.Duration // default 2 minutes
}

const (
	defaultMaxRetries = 3
	defaultTimeout    = 2 * time.Minute
	defaultBranch     = plumbing.ReferenceName("refs/heads/main")
)

// HydratedChange records one peer file written or removed while hydrating.
type HydratedChange struct {
	Prefix string
	Code   string
	Action string // "write" or "remove"
}

// Result summarizes one sync invocation.
type Result struct {
	Hydrated  []HydratedChange
	Committed bool
	Pushed    bool
	NewCommit string
}

// Sync implements spec §4.10's full sync procedure. metisDir is the
// workspace's .metis directory; pullOnly restricts the run to steps 1-3
// (fetch + hydrate), matching the read-only mode that needs no write
// credentials.
func Sync(ctx context.Context, metisDir string, cfg Config, pullOnly bool) (*Result, error) {
	if cfg.UpstreamURL == "" || cfg.WorkspacePrefix == "" {
		return nil, fmt.Errorf("%w: upstream_url and workspace.prefix must both be set", metiserr.ErrSyncNotConfigured)
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	result := &Result{}

	repo, fs, branch, err := openTransient(ctx, cfg.UpstreamURL)
	if err != nil {
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w: open transient worktree: %v", metiserr.ErrSyncNetwork, err)
	}

	hydrated, err := hydratePeers(fs, metisDir, cfg.WorkspacePrefix)
	if err != nil {
		return nil, err
	}
	result.Hydrated = hydrated

	if pullOnly {
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Every(time.Second), 1)

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := dehydrateOwned(fs, metisDir, cfg.WorkspacePrefix); err != nil {
			return nil, err
		}
		if _, err := wt.Add(cfg.WorkspacePrefix + "/"); err != nil {
			return nil, fmt.Errorf("%w: stage owned documents: %v", metiserr.ErrSyncNetwork, err)
		}

		status, err := wt.Status()
		if err != nil {
			return nil, fmt.Errorf("%w: worktree status: %v", metiserr.ErrSyncNetwork, err)
		}
		if status.IsClean() {
			// P6: nothing changed locally or remotely since the last sync.
			return result, nil
		}

		hash, err := wt.Commit(commitMessage(cfg.WorkspacePrefix), &git.CommitOptions{
			Author: signature(),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: commit owned changes: %v", metiserr.ErrSyncNetwork, err)
		}
		result.Committed = true

		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", metiserr.ErrSyncNetwork, err)
		}

		pushErr := repo.PushContext(ctx, &git.PushOptions{
			RemoteName: "origin",
			RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(branch + ":" + branch)},
		})
		if pushErr == nil {
			result.Pushed = true
			result.NewCommit = hash.String()
			return result, nil
		}
		if errors.Is(pushErr, git.NoErrAlreadyUpToDate) {
			result.NewCommit = hash.String()
			return result, nil
		}
		if isAuthError(pushErr) {
			return nil, fmt.Errorf("%w: %v", metiserr.ErrSyncAuth, pushErr)
		}
		if !isNonFastForward(pushErr) {
			return nil, fmt.Errorf("%w: %v", metiserr.ErrSyncNetwork, pushErr)
		}

		// Non-fast-forward: re-fetch and rebuild the owned-prefix diff
		// against the new tip before retrying (spec §4.10 step 6).
		if err := fetchAll(ctx, repo); err != nil {
			return nil, err
		}
		if err := resetToRemoteTip(wt, repo, branch); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: exhausted %d retries", metiserr.ErrSyncConflict, cfg.MaxRetries)
}

// openTransient creates an in-memory clone of the central repository,
// bootstrapping an empty repository and remote if the central repository
// has no commits yet. No persistent .git/ is ever created (spec §4.10's
// "transient context").
func openTransient(ctx context.Context, url string) (*git.Repository, billyfs.Filesystem, plumbing.ReferenceName, error) {
	storer := memory.NewStorage()
	fs := memfs.New()

	repo, err := git.CloneContext(ctx, storer, fs, &git.CloneOptions{URL: url})
	if err == nil {
		head, err := repo.Head()
		if err != nil {
			return nil, nil, "", fmt.Errorf("%w: resolve remote HEAD: %v", metiserr.ErrSyncNetwork, err)
		}
		return repo, fs, head.Name(), nil
	}

	if !errors.Is(err, transport.ErrEmptyRemoteRepository) {
		if isAuthError(err) {
			return nil, nil, "", fmt.Errorf("%w: %v", metiserr.ErrSyncAuth, err)
		}
		return nil, nil, "", fmt.Errorf("%w: clone %s: %v", metiserr.ErrSyncNetwork, url, err)
	}

	repo, err = git.InitWithOptions(storer, fs, git.InitOptions{DefaultBranch: defaultBranch})
	if err != nil {
		return nil, nil, "", fmt.Errorf("%w: bootstrap empty central repository: %v", metiserr.ErrSyncNetwork, err)
	}
	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{url}}); err != nil {
		return nil, nil, "", fmt.Errorf("%w: register origin: %v", metiserr.ErrSyncNetwork, err)
	}
	return repo, fs, defaultBranch, nil
}

func fetchAll(ctx context.Context, repo *git.Repository) error {
	err := repo.FetchContext(ctx, &git.FetchOptions{RemoteName: "origin", Force: true})
	if err == nil || errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if isAuthError(err) {
		return fmt.Errorf("%w: %v", metiserr.ErrSyncAuth, err)
	}
	return fmt.Errorf("%w: fetch: %v", metiserr.ErrSyncNetwork, err)
}

// resetToRemoteTip hard-resets the transient worktree to the freshly
// fetched remote tip of branch, discarding the rejected local commit so the
// next loop iteration rebuilds it from scratch (spec §4.10 step 6).
func resetToRemoteTip(wt *git.Worktree, repo *git.Repository, branch plumbing.ReferenceName) error {
	remoteRef := plumbing.NewRemoteReferenceName("origin", branch.Short())
	ref, err := repo.Reference(remoteRef, true)
	if err != nil {
		return fmt.Errorf("%w: resolve new remote tip: %v", metiserr.ErrSyncNetwork, err)
	}
	if err := wt.Reset(&git.ResetOptions{Commit: ref.Hash(), Mode: git.HardReset}); err != nil {
		return fmt.Errorf("%w: reset to remote tip: %v", metiserr.ErrSyncNetwork, err)
	}
	return nil
}

func isNonFastForward(err error) bool {
	return containsAny(err, "non-fast-forward", "not possible to fast-forward", "fetch first")
}

func isAuthError(err error) bool {
	if errors.Is(err, transport.ErrAuthenticationRequired) || errors.Is(err, transport.ErrAuthorizationFailed) {
		return true
	}
	return containsAny(err, "authentication required", "authorization failed")
}

func containsAny(err error, substrs ...string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, s := range substrs {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func commitMessage(prefix string) string {
	return fmt.Sprintf("sync: update %s", prefix)
}

// signature derives commit author identity from the local environment
// (spec §4.10 step 5), falling back to the OS user when no git-style
// environment override is set.
func signature() *object.Signature {
	name := envOr("GIT_AUTHOR_NAME", "")
	if name == "" {
		if u, err := user.Current(); err == nil && u.Username != "" {
			name = u.Username
		} else {
			name = "metis"
		}
	}
	email := envOr("GIT_AUTHOR_EMAIL", name+"@localhost")
	return &object.Signature{Name: name, Email: email, When: time.Now()}
}
