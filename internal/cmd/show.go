package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <short-code>",
	Short: "Print a document's frontmatter and body",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer ws.Close()

		doc, err := ws.ReadDocument(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s  %s  [%s]\n", doc.ShortCode, doc.Title, doc.Phase)
		if doc.ParentShortCode != "" {
			fmt.Printf("parent: %s\n", doc.ParentShortCode)
		}
		fmt.Printf("exit_criteria_met: %v\n\n", doc.ExitCriteriaMet)
		fmt.Println(doc.Body)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
