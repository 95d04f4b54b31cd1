package cmd

import (
	"github.com/spf13/cobra"
)

var editReplaceAll bool

var editCmd = &cobra.Command{
	Use:   "edit <short-code> <search> <replace>",
	Short: "Search-and-replace a document's body",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer ws.Close()

		return ws.EditDocument(cmd.Context(), args[0], args[1], args[2], editReplaceAll)
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().BoolVar(&editReplaceAll, "all", false, "replace every occurrence instead of just the first")
}
