package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var collisionsCmd = &cobra.Command{
	Use:   "collisions",
	Short: "Show short-code collisions renumbered by the reconcile passes of this run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer ws.Close()

		entries, err := ws.ListCollisions(cmd.Context())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("no collisions renumbered during this run")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s -> %s\t%s\n", e.OldCode, e.NewCode, e.FilePath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(collisionsCmd)
}
