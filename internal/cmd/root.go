// Package cmd is the thin cobra-based CLI adapter over internal/core (C11).
// Every command except version and init resolves a *core.Workspace and calls
// exactly one C11 operation; none of them touch internal/store or the
// filesystem directly, and they use internal/docmodel only for its types and
// kind lookups.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metis-io/metis/internal/core"
	"github.com/metis-io/metis/internal/metiserr"
)

var workspacePath string

var rootCmd = &cobra.Command{
	Use:   "metis",
	Short: "Manage a hierarchical Markdown work-management workspace",
	Long: `Metis tracks Visions, Strategies, Initiatives, Tasks, and ADRs as
Markdown files with YAML frontmatter under .metis/, with a disposable
SQLite cache and optional multi-workspace git replication.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspacePath, "path", "C", ".", "path inside the workspace (or where to initialize one)")
}

// openWorkspace resolves the workspace above workspacePath, failing with a
// remediation hint if none exists.
func openWorkspace(ctx context.Context) (*core.Workspace, error) {
	ws, err := core.Open(ctx, workspacePath)
	if err != nil {
		if hint := metiserr.Remediation(err); hint != "" {
			return nil, fmt.Errorf("%w\n%s", err, hint)
		}
		return nil, err
	}
	return ws, nil
}
