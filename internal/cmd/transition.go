package cmd

import (
	"github.com/spf13/cobra"
)

var transitionForce bool

var transitionCmd = &cobra.Command{
	Use:   "transition <short-code> [target-phase]",
	Short: "Advance a document's phase",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := ""
		if len(args) == 2 {
			target = args[1]
		}

		ws, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer ws.Close()

		return ws.TransitionPhase(cmd.Context(), args[0], target, transitionForce)
	},
}

func init() {
	rootCmd.AddCommand(transitionCmd)
	transitionCmd.Flags().BoolVar(&transitionForce, "force", false, "skip the exit-criteria gate")
}
