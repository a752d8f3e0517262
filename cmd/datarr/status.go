package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server health",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	health, err := client.Health()
	if err != nil {
		return fmt.Errorf("status check failed: %w", err)
	}

	if jsonOutput {
		printJSON(health)
		return nil
	}

	fmt.Printf("Server:     %s (%s)\n", serverURL, health.Status)
	fmt.Printf("Version:    %s\n", health.Version)
	fmt.Printf("Uptime:     %s\n", health.Uptime)
	fmt.Printf("Database:   %s\n", health.Database)
	return nil
}
