package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var populateCmd = &cobra.Command{
	Use:   "populate",
	Short: "Backfill missing dates now",
	Long: `Run a population pass immediately.

The pass walks tracked records without a date added, pulls import
history from the configured managers and release dates from the
metadata providers, and stores the best date each record's signals
support. Runs in the background; follow with 'datarr executions show'.`,
	Args: cobra.NoArgs,
	RunE: runPopulate,
}

func init() {
	rootCmd.AddCommand(populateCmd)
	populateCmd.Flags().StringP("type", "t", "", "Restrict to one media type (movie, series)")
	populateCmd.Flags().StringArray("path", nil, "Restrict to library paths (repeatable)")
	populateCmd.Flags().Bool("full", false, "Also re-resolve records that already have a date")
}

func runPopulate(cmd *cobra.Command, args []string) error {
	req := PopulateRequest{}
	req.MediaType, _ = cmd.Flags().GetString("type")
	req.Paths, _ = cmd.Flags().GetStringArray("path")
	req.Full, _ = cmd.Flags().GetBool("full")

	client := NewClient(serverURL)
	run, err := client.Populate(req)
	if err != nil {
		return fmt.Errorf("populate: %w", err)
	}

	if jsonOutput {
		printJSON(run)
		return nil
	}

	fmt.Printf("Population started (execution %d). Follow with 'datarr executions show %d'.\n",
		run.ExecutionID, run.ExecutionID)
	return nil
}
