package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var listIncludeArchived bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents in the workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer ws.Close()

		rows, err := ws.ListDocuments(cmd.Context(), listIncludeArchived)
		if err != nil {
			return err
		}

		// Columns are space-aligned either way; a human at a terminal also
		// gets relative timestamps, a pipe gets the raw stored timestamps.
		interactive := isatty.IsTerminal(os.Stdout.Fd())

		tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
		for _, r := range rows {
			updated := r.UpdatedAt
			if interactive {
				if t, err := time.Parse(time.RFC3339, r.UpdatedAt); err == nil {
					updated = humanize.Time(t)
				}
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ShortCode, r.Kind, r.Phase, r.Title, updated)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listIncludeArchived, "all", false, "include archived documents")
}
