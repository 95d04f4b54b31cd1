package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metis-io/metis/internal/core"
	"github.com/metis-io/metis/internal/docmodel"
)

var (
	newParent          string
	newComplexity      string
	newDecisionMaker   string
	newBacklogCategory string
	newRiskLevel       string
)

var newCmd = &cobra.Command{
	Use:   "new <kind> <title>",
	Short: "Create a document (vision|strategy|initiative|task|adr)",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, ok := docmodel.KindFromLetter(kindLetter(args[0]))
		if !ok {
			return fmt.Errorf("unknown kind %q: want vision|strategy|initiative|task|adr", args[0])
		}
		title := joinArgs(args[1:])

		ws, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer ws.Close()

		code, err := ws.CreateDocument(cmd.Context(), kind, title, core.CreateOptions{
			Parent:          newParent,
			Complexity:      docmodel.Complexity(newComplexity),
			DecisionMaker:   newDecisionMaker,
			BacklogCategory: docmodel.BacklogCategory(newBacklogCategory),
			RiskLevel:       docmodel.RiskLevel(newRiskLevel),
		})
		if err != nil {
			return err
		}

		fmt.Println(code)
		return nil
	},
}

func kindLetter(kind string) string {
	switch kind {
	case "vision":
		return "V"
	case "strategy":
		return "S"
	case "initiative":
		return "I"
	case "task":
		return "T"
	case "adr":
		return "A"
	default:
		return ""
	}
}

func joinArgs(args []string) string {
	out := args[0]
	for _, a := range args[1:] {
		out += " " + a
	}
	return out
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringVar(&newParent, "parent", "", "parent document's short code")
	newCmd.Flags().StringVar(&newComplexity, "complexity", "", "initiative complexity: xs|s|m|l|xl")
	newCmd.Flags().StringVar(&newDecisionMaker, "decision-maker", "", "ADR decision maker")
	newCmd.Flags().StringVar(&newBacklogCategory, "backlog-category", "", "standalone task category: bug|feature|tech-debt")
	newCmd.Flags().StringVar(&newRiskLevel, "risk-level", "", "strategy risk level: low|medium|high|critical")
}
