package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/envirofacts-cli/internal/epa"
	"github.com/sells-group/envirofacts-cli/internal/model"
)

var searchFilter epa.FacilitySearch

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the FRS facility registry by attributes",
	Long:  "Attribute search over the EPA Facility Registry Service. At least one of --name, --naics, --state, --zip, or --city is required.",
	RunE: func(cmd *cobra.Command, args []string) error {
		env := initEnv()

		facilities, truncated, err := env.FRS.Search(cmd.Context(), searchFilter)
		if err != nil {
			return err
		}
		if truncated {
			zap.L().Warn("search results truncated", zap.Int("max_results", cfg.EPA.MaxResults))
		}

		out := struct {
			Count      int               `json:"count"`
			Truncated  bool              `json:"truncated"`
			Facilities []*model.Facility `json:"facilities"`
		}{
			Count:      len(facilities),
			Truncated:  truncated,
			Facilities: facilities,
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchFilter.Name, "name", "", "facility name (substring match)")
	searchCmd.Flags().StringVar(&searchFilter.NAICS, "naics", "", "NAICS industry code")
	searchCmd.Flags().StringVar(&searchFilter.State, "state", "", "two-letter state code")
	searchCmd.Flags().StringVar(&searchFilter.ZIP, "zip", "", "ZIP code")
	searchCmd.Flags().StringVar(&searchFilter.City, "city", "", "city name")
	rootCmd.AddCommand(searchCmd)
}
