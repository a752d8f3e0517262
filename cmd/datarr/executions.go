package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	executionsCmd := &cobra.Command{
		Use:   "executions",
		Short: "Inspect job runs",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent job runs",
		Args:  cobra.NoArgs,
		RunE:  runExecutionsList,
	}
	listCmd.Flags().Int64("job", 0, "Only runs of this job ID")
	listCmd.Flags().StringP("status", "s", "", "Filter by status (running, completed, failed, canceled)")
	listCmd.Flags().IntP("limit", "l", 20, "Maximum number of runs to return")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run in full, including its report",
		Args:  cobra.ExactArgs(1),
		RunE:  runExecutionsShow,
	}

	executionsCmd.AddCommand(listCmd)
	executionsCmd.AddCommand(showCmd)
	rootCmd.AddCommand(executionsCmd)
}

func runExecutionsList(cmd *cobra.Command, args []string) error {
	filter := ExecutionFilter{}
	if id, _ := cmd.Flags().GetInt64("job"); id > 0 {
		filter.JobID = &id
	}
	filter.Status, _ = cmd.Flags().GetString("status")
	filter.Limit, _ = cmd.Flags().GetInt("limit")

	client := NewClient(serverURL)
	execs, err := client.Executions(filter)
	if err != nil {
		return fmt.Errorf("list executions: %w", err)
	}

	if jsonOutput {
		printJSON(execs)
		return nil
	}

	if len(execs.Items) == 0 {
		fmt.Println("No executions recorded.")
		return nil
	}

	rows := make([][]string, 0, len(execs.Items))
	for i := range execs.Items {
		e := &execs.Items[i]
		job := "-"
		if e.JobID != nil {
			job = strconv.FormatInt(*e.JobID, 10)
		}
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			job,
			e.Status,
			e.StartedAt.Local().Format("2006-01-02 15:04:05"),
			execDuration(e),
			strconv.Itoa(e.Processed),
			strconv.Itoa(e.Skipped),
			strconv.Itoa(e.Failed),
			e.TriggeredBy,
		})
	}
	printTable(
		[]string{"ID", "JOB", "STATUS", "STARTED", "DURATION", "PROCESSED", "SKIPPED", "FAILED", "TRIGGER"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	)

	if execs.Total > len(execs.Items) {
		fmt.Printf("\nShowing %d of %d executions. Use --limit to see more.\n",
			len(execs.Items), execs.Total)
	}
	return nil
}

func execDuration(e *ExecutionResponse) string {
	if e.FinishedAt == nil {
		return "-"
	}
	return e.FinishedAt.Sub(e.StartedAt).Round(time.Millisecond).String()
}

func runExecutionsShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid execution ID: %s", args[0])
	}

	client := NewClient(serverURL)
	exec, err := client.Execution(id)
	if err != nil {
		return fmt.Errorf("get execution: %w", err)
	}

	if jsonOutput {
		printJSON(exec)
		return nil
	}

	fmt.Printf("Execution:  %d\n", exec.ID)
	if exec.JobID != nil {
		fmt.Printf("Job:        %d\n", *exec.JobID)
	} else {
		fmt.Printf("Job:        - (ad-hoc)\n")
	}
	fmt.Printf("Status:     %s\n", exec.Status)
	fmt.Printf("Trigger:    %s\n", exec.TriggeredBy)
	fmt.Printf("Started:    %s\n", exec.StartedAt.Local().Format(time.RFC3339))
	if exec.FinishedAt != nil {
		fmt.Printf("Finished:   %s (%s)\n",
			exec.FinishedAt.Local().Format(time.RFC3339), execDuration(exec))
	}
	fmt.Printf("Processed:  %d\n", exec.Processed)
	fmt.Printf("Skipped:    %d\n", exec.Skipped)
	fmt.Printf("Failed:     %d\n", exec.Failed)
	if exec.Error != "" {
		fmt.Printf("Error:      %s\n", exec.Error)
	}

	if len(exec.Report) > 0 {
		fmt.Println("\nReport:")
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, exec.Report, "  ", "  "); err == nil {
			fmt.Println("  " + pretty.String())
		} else {
			fmt.Println("  " + string(exec.Report))
		}
	}
	return nil
}
