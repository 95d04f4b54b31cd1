package cmd

import (
	"github.com/spf13/cobra"

	"github.com/metis-io/metis/internal/config"
	"github.com/metis-io/metis/internal/core"
)

var (
	configPreset          string
	configPrefix          string
	configUpstream        string
	configWorkspacePrefix string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or change workspace configuration",
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change one or more configuration values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer ws.Close()

		return ws.ConfigSet(cmd.Context(), core.ConfigSetOptions{
			Preset:          config.Preset(configPreset),
			Prefix:          configPrefix,
			UpstreamURL:     configUpstream,
			WorkspacePrefix: configWorkspacePrefix,
		})
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd)

	configSetCmd.Flags().StringVar(&configPreset, "preset", "", "flight level preset: direct|streamlined|full")
	configSetCmd.Flags().StringVar(&configPrefix, "prefix", "", "short-code prefix")
	configSetCmd.Flags().StringVar(&configUpstream, "upstream", "", "central git repository URL")
	configSetCmd.Flags().StringVar(&configWorkspacePrefix, "workspace-prefix", "", "this workspace's directory name in the central repository")
}
