package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/envirofacts-cli/internal/epa"
)

var (
	complianceProgram string
	complianceYears   int
)

var complianceCmd = &cobra.Command{
	Use:   "compliance <registry-id>",
	Short: "Show a facility's compliance history",
	Long:  "Fetches facility info from FRS plus TRI and RCRA compliance records for the lookback window, and derives an overall status.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env := initEnv()

		history, err := env.Compliance.History(cmd.Context(), epa.ComplianceRequest{
			RegistryID: args[0],
			Program:    complianceProgram,
			Years:      complianceYears,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), history)
	},
}

func init() {
	complianceCmd.Flags().StringVar(&complianceProgram, "program", "", "limit to one program: TRI or RCRA")
	complianceCmd.Flags().IntVar(&complianceYears, "years", 0, "lookback window in years, 1-20 (default 5)")
	rootCmd.AddCommand(complianceCmd)
}
