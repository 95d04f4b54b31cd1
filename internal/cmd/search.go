package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/metis-io/metis/internal/core"
	"github.com/metis-io/metis/internal/docmodel"
)

var (
	searchKind            string
	searchLimit           int
	searchIncludeArchived bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query terms...>",
	Short: "Full-text search over document title, body, and kind",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer ws.Close()

		rows, err := ws.SearchDocuments(cmd.Context(), strings.Join(args, " "), core.SearchOptions{
			Kind:            docmodel.Kind(searchKind),
			Limit:           searchLimit,
			IncludeArchived: searchIncludeArchived,
		})
		if err != nil {
			return err
		}
		for _, r := range rows {
			fmt.Printf("%-20s %-10s %s\n", r.ShortCode, r.Kind, r.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchKind, "kind", "", "restrict to one kind: vision|strategy|initiative|task|adr")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum number of results (0 = unbounded)")
	searchCmd.Flags().BoolVar(&searchIncludeArchived, "all", false, "include archived documents")
}
