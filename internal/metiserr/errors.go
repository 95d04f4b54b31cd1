// Package metiserr defines the error taxonomy shared by every core package.
//
// Errors are sentinel *kinds*, not full messages: callers compare with
// errors.Is and wrap the kind with context via fmt.Errorf("...: %w", Kind).
package metiserr

import "errors"

var (
	// ErrWorkspaceNotFound means no .metis/ directory was found on the search path.
	ErrWorkspaceNotFound = errors.New("workspace not found: no .metis directory above this path")

	// ErrInvalidFrontmatter means a document's YAML frontmatter could not be parsed.
	ErrInvalidFrontmatter = errors.New("invalid frontmatter")

	// ErrMalformedDocument means a document failed to parse into a typed kind.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrDocumentNotFound means a short code did not resolve to any document.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrInvalidTransition means (current, target) is not in the transition table.
	ErrInvalidTransition = errors.New("invalid phase transition")

	// ErrTerminalPhase means the document is already in a terminal phase.
	ErrTerminalPhase = errors.New("document is in a terminal phase")

	// ErrExitCriteriaNotMet means a transition was blocked by incomplete exit criteria.
	ErrExitCriteriaNotMet = errors.New("exit criteria not met")

	// ErrParentInvalid means a parent reference is missing, of the wrong kind, or in a disallowed phase.
	ErrParentInvalid = errors.New("invalid parent")

	// ErrShortCodeFormat means a short code does not match the canonical format.
	ErrShortCodeFormat = errors.New("short code format invalid")

	// ErrDuplicateShortCode means two live documents share a short code (self-healed by the reconciler).
	ErrDuplicateShortCode = errors.New("duplicate short code")

	// ErrConfigInvariant means an explicit configuration mutation violates a hard invariant.
	ErrConfigInvariant = errors.New("configuration invariant violated")

	// ErrSyncNotConfigured means upstream_url or workspace_prefix is missing.
	ErrSyncNotConfigured = errors.New("sync not configured")

	// ErrSyncNetwork means a git fetch/push failed for network or timeout reasons.
	ErrSyncNetwork = errors.New("sync network error")

	// ErrSyncAuth means a git operation failed authentication against the upstream.
	ErrSyncAuth = errors.New("sync authentication error")

	// ErrSyncConflict means push retries were exhausted against a moving upstream tip.
	ErrSyncConflict = errors.New("sync conflict: push retries exhausted")

	// ErrCyclicParent means a reassign_parent would create a parent/child cycle.
	ErrCyclicParent = errors.New("cyclic parent reference")

	// ErrPeerReadOnly means a write was attempted against a hydrated peer directory.
	ErrPeerReadOnly = errors.New("peer workspace directories are read-only")
)

// Remediation returns a short, imperative, user-facing hint for a known error kind.
// It returns "" for errors not in the taxonomy.
func Remediation(err error) string {
	switch {
	case errors.Is(err, ErrWorkspaceNotFound):
		return "Run `metis init` in this directory or a parent directory."
	case errors.Is(err, ErrInvalidFrontmatter), errors.Is(err, ErrMalformedDocument):
		return "Fix the YAML frontmatter in the affected file and re-run the operation."
	case errors.Is(err, ErrDocumentNotFound):
		return "Check the short code with `metis list` and try again."
	case errors.Is(err, ErrInvalidTransition):
		return "Use `metis show <code>` to see the current phase, then pick a phase reachable from it."
	case errors.Is(err, ErrTerminalPhase):
		return "This document has no further phases to transition to."
	case errors.Is(err, ErrExitCriteriaNotMet):
		return "Check off all exit criteria, or pass --force to override."
	case errors.Is(err, ErrParentInvalid):
		return "Choose a parent of the correct kind and phase."
	case errors.Is(err, ErrShortCodeFormat):
		return "Short codes must match PREFIX-TYPE-NNNN."
	case errors.Is(err, ErrConfigInvariant):
		return "Set workspace.prefix and sync.upstream_url before enabling strategies."
	case errors.Is(err, ErrSyncNotConfigured):
		return "Run `metis config set --upstream <url> --workspace-prefix <prefix>` first."
	case errors.Is(err, ErrSyncNetwork), errors.Is(err, ErrSyncAuth):
		return "Check network connectivity and git credentials, then retry."
	case errors.Is(err, ErrSyncConflict):
		return "Retry the sync; local state was left untouched."
	case errors.Is(err, ErrCyclicParent):
		return "Choose a parent that is not a descendant of this document."
	case errors.Is(err, ErrPeerReadOnly):
		return "Edit the document in its owning workspace, not this hydrated copy."
	default:
		return ""
	}
}
