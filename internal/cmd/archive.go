package cmd

import (
	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive <short-code>",
	Short: "Archive a document and its descendants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer ws.Close()

		return ws.ArchiveDocument(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
}
