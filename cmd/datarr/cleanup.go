package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove records for media that no longer exists",
	Long: `Reconcile tracked records against the filesystem and the managers.

A record fails when every enabled check misses it: the file is gone
from disk and the managers no longer know the ID. Dry runs report what
would be removed and delete nothing.

Examples:
  datarr cleanup --dry-run          # preview, removes nothing
  datarr cleanup                    # remove orphaned records
  datarr cleanup --type movie --check-database=false`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().StringP("type", "t", "", "Restrict to one media type (movie, series)")
	cleanupCmd.Flags().Bool("dry-run", false, "Report what would be removed, delete nothing")
	cleanupCmd.Flags().Bool("check-filesystem", true, "Verify files on disk")
	cleanupCmd.Flags().Bool("check-database", true, "Verify records against the managers")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	req := CleanupRequest{}
	req.MediaType, _ = cmd.Flags().GetString("type")
	req.CheckFilesystem, _ = cmd.Flags().GetBool("check-filesystem")
	req.CheckDatabase, _ = cmd.Flags().GetBool("check-database")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	client := NewClient(serverURL)

	if dryRun {
		report, err := client.CleanupDryRun(req)
		if err != nil {
			return fmt.Errorf("cleanup: %w", err)
		}
		if jsonOutput {
			printJSON(report)
			return nil
		}
		printCleanupReport(report)
		return nil
	}

	run, err := client.Cleanup(req)
	if err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}

	if jsonOutput {
		printJSON(run)
		return nil
	}

	fmt.Printf("Cleanup started (execution %d). Follow with 'datarr executions show %d'.\n",
		run.ExecutionID, run.ExecutionID)
	return nil
}

func printCleanupReport(r *CleanupReport) {
	verb := "removed"
	if r.DryRun {
		fmt.Println("Dry run: nothing was removed.")
		verb = "would remove"
	}

	printTypeReport("Movies", r.Movies, verb)
	printTypeReport("Series", r.Series, verb)

	fmt.Printf("\nTotal %s: %d (checked via %v in %.1fs)\n",
		verb, r.TotalRemoved, r.ValidationMethods, r.Duration)
}

func printTypeReport(label string, tr *CleanupTypeReport, verb string) {
	if tr == nil {
		return
	}
	fmt.Printf("\n%s: %d checked, %d orphaned, %d %s\n",
		label, tr.Checked, tr.Orphaned, tr.Removed, verb)
	for _, title := range tr.RemovedTitles {
		fmt.Printf("  - %s\n", title)
	}
	if len(tr.MissingReasons) > 0 {
		fmt.Printf("  reasons: %v\n", tr.MissingReasons)
	}
}
