package cmd

import (
	"github.com/spf13/cobra"

	"github.com/metis-io/metis/internal/docmodel"
)

var reassignBacklogCategory string

var reassignCmd = &cobra.Command{
	Use:   "reassign <short-code> [new-parent]",
	Short: "Move a document to a new parent, or make it standalone",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		newParent := ""
		if len(args) == 2 {
			newParent = args[1]
		}

		ws, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer ws.Close()

		return ws.ReassignParent(cmd.Context(), args[0], newParent, docmodel.BacklogCategory(reassignBacklogCategory))
	},
}

func init() {
	rootCmd.AddCommand(reassignCmd)
	reassignCmd.Flags().StringVar(&reassignBacklogCategory, "backlog-category", "", "category to assign if the task becomes standalone: bug|feature|tech-debt")
}
