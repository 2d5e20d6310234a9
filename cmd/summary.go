package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var summaryRadius float64

var summaryCmd = &cobra.Command{
	Use:   "summary <location>",
	Short: "Summarize EPA-regulated activity near a location",
	Long:  "Geocodes the location, queries all four EPA data systems concurrently, and prints the merged environmental summary as JSON. Individual source failures degrade the summary instead of failing the command.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env := initEnv()

		s, err := env.Aggregator.Summarize(cmd.Context(), args[0], summaryRadius)
		if err != nil {
			return err
		}

		if s.Degraded() {
			zap.L().Warn("summary is degraded: one or more sources failed",
				zap.String("query_id", s.QueryID),
			)
		}
		return printJSON(cmd.OutOrStdout(), s)
	},
}

func init() {
	summaryCmd.Flags().Float64Var(&summaryRadius, "radius", 0, "search radius in miles (default from config)")
	rootCmd.AddCommand(summaryCmd)
}
