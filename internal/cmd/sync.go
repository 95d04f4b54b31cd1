package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metis-io/metis/internal/core"
)

var (
	syncPullOnly   bool
	syncMaxRetries int
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replicate owned documents through the central git repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer ws.Close()

		result, err := ws.Sync(cmd.Context(), core.SyncOptions{PullOnly: syncPullOnly, MaxRetries: syncMaxRetries})
		if err != nil {
			return err
		}

		fmt.Printf("hydrated %d peer file(s)\n", len(result.Hydrated))
		if result.Pushed {
			fmt.Printf("pushed %s\n", result.NewCommit)
		} else if result.Committed {
			fmt.Println("committed locally, nothing to push")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVar(&syncPullOnly, "pull-only", false, "only fetch and hydrate peer documents")
	syncCmd.Flags().IntVar(&syncMaxRetries, "max-retries", 0, "push retry budget on non-fast-forward (0 = default)")
}
