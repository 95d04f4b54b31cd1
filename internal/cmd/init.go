package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metis-io/metis/internal/config"
	"github.com/metis-io/metis/internal/core"
)

var (
	initPrefix          string
	initPreset          string
	initUpstream        string
	initWorkspacePrefix string
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a new .metis workspace",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := workspacePath
		if len(args) > 0 {
			path = args[0]
		}
		if initPrefix == "" {
			return fmt.Errorf("--prefix is required")
		}

		ws, err := core.InitializeProject(cmd.Context(), path, initPrefix, config.Preset(initPreset), initUpstream, initWorkspacePrefix)
		if err != nil {
			return err
		}
		defer ws.Close()

		fmt.Printf("initialized workspace at %s\n", ws.Root())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initPrefix, "prefix", "", "short-code prefix for this workspace (required)")
	initCmd.Flags().StringVar(&initPreset, "preset", string(config.PresetDirect), "flight level preset: direct|streamlined|full")
	initCmd.Flags().StringVar(&initUpstream, "upstream", "", "central git repository URL for sync")
	initCmd.Flags().StringVar(&initWorkspacePrefix, "workspace-prefix", "", "this workspace's directory name in the central repository")
}
