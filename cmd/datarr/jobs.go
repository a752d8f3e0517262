package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage scheduled jobs",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List scheduled jobs",
		Args:  cobra.NoArgs,
		RunE:  runJobsList,
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a scheduled job",
		Long: `Create a scheduled job.

Kinds:
  scan      populate missing dates from manager history and release dates
  cleanup   remove records whose media no longer exists

Examples:
  datarr jobs add --name nightly --kind scan --cron "0 3 * * *" --enable
  datarr jobs add --name weekly-tidy --kind cleanup --cron "0 4 * * 0" \
      --dry-run --check-filesystem --check-database`,
		Args: cobra.NoArgs,
		RunE: runJobsAdd,
	}
	addCmd.Flags().String("name", "", "Job name (required)")
	addCmd.Flags().String("kind", "", "Job kind: scan or cleanup (required)")
	addCmd.Flags().String("cron", "", "Cron expression, five fields (required)")
	addCmd.Flags().String("description", "", "Free-form description")
	addCmd.Flags().Bool("enable", false, "Enable the job immediately")
	addCmd.Flags().String("media-type", "", "Restrict to one media type (movie, series)")
	addCmd.Flags().StringArray("path", nil, "Restrict scan to library paths (repeatable)")
	addCmd.Flags().Bool("full", false, "Scan: re-resolve records that already have a date")
	addCmd.Flags().Bool("dry-run", false, "Cleanup: report only, remove nothing")
	addCmd.Flags().Bool("check-filesystem", false, "Cleanup: verify files on disk")
	addCmd.Flags().Bool("check-database", false, "Cleanup: verify records against the managers")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("kind")
	_ = addCmd.MarkFlagRequired("cron")

	enableCmd := &cobra.Command{
		Use:   "enable <id>",
		Short: "Enable a job",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return setJobEnabled(args[0], true) },
	}

	disableCmd := &cobra.Command{
		Use:   "disable <id>",
		Short: "Disable a job",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return setJobEnabled(args[0], false) },
	}

	runCmd := &cobra.Command{
		Use:   "run <id>",
		Short: "Run a job now",
		Long:  "Dispatch a job immediately, outside its schedule. The job runs in the background; follow it with 'datarr executions show'.",
		Args:  cobra.ExactArgs(1),
		RunE:  runJobsRun,
	}

	jobsCmd.AddCommand(listCmd)
	jobsCmd.AddCommand(addCmd)
	jobsCmd.AddCommand(enableCmd)
	jobsCmd.AddCommand(disableCmd)
	jobsCmd.AddCommand(runCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJobsList(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	jobs, err := client.Jobs()
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	if jsonOutput {
		printJSON(jobs)
		return nil
	}

	if len(jobs.Jobs) == 0 {
		fmt.Println("No jobs defined.")
		return nil
	}

	rows := make([][]string, 0, len(jobs.Jobs))
	for i := range jobs.Jobs {
		j := &jobs.Jobs[i]
		enabled := "no"
		if j.Enabled {
			enabled = "yes"
		}
		rows = append(rows, []string{
			strconv.FormatInt(j.ID, 10),
			j.Name,
			j.Kind,
			j.Cron,
			enabled,
			fmtDateTime(j.LastRunAt),
			fmtDateTime(j.NextRunAt),
			strconv.FormatInt(j.RunCount, 10),
		})
	}
	printTable(
		[]string{"ID", "NAME", "KIND", "CRON", "ENABLED", "LAST RUN", "NEXT RUN", "RUNS"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
	return nil
}

func runJobsAdd(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	kind, _ := cmd.Flags().GetString("kind")
	cron, _ := cmd.Flags().GetString("cron")
	description, _ := cmd.Flags().GetString("description")
	enable, _ := cmd.Flags().GetBool("enable")

	if kind != "scan" && kind != "cleanup" {
		return fmt.Errorf("--kind must be 'scan' or 'cleanup', got: %s", kind)
	}

	cfg := JobConfig{}
	cfg.MediaType, _ = cmd.Flags().GetString("media-type")
	cfg.Paths, _ = cmd.Flags().GetStringArray("path")
	cfg.Full, _ = cmd.Flags().GetBool("full")
	cfg.DryRun, _ = cmd.Flags().GetBool("dry-run")
	cfg.CheckFilesystem, _ = cmd.Flags().GetBool("check-filesystem")
	cfg.CheckDatabase, _ = cmd.Flags().GetBool("check-database")

	client := NewClient(serverURL)
	job, err := client.CreateJob(CreateJobRequest{
		Name:        name,
		Kind:        kind,
		Description: description,
		Cron:        cron,
		Enabled:     enable,
		Config:      &cfg,
	})
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}

	if jsonOutput {
		printJSON(job)
		return nil
	}

	state := "disabled"
	if job.Enabled {
		state = "enabled"
	}
	fmt.Printf("Created job %s [ID: %d, %s, cron: %s]\n", job.Name, job.ID, state, job.Cron)
	return nil
}

func setJobEnabled(idArg string, enabled bool) error {
	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid job ID: %s", idArg)
	}

	client := NewClient(serverURL)
	job, err := client.SetJobEnabled(id, enabled)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}

	if jsonOutput {
		printJSON(job)
		return nil
	}

	state := "disabled"
	if job.Enabled {
		state = "enabled"
	}
	fmt.Printf("Job %s [ID: %d] is now %s\n", job.Name, job.ID, state)
	return nil
}

func runJobsRun(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid job ID: %s", args[0])
	}

	client := NewClient(serverURL)
	run, err := client.RunJob(id)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if jsonOutput {
		printJSON(run)
		return nil
	}

	fmt.Printf("Job dispatched (execution %d). Follow with 'datarr executions show %d'.\n",
		run.ExecutionID, run.ExecutionID)
	return nil
}
