package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var webhookTestCmd = &cobra.Command{
	Use:   "webhook-test [radarr|sonarr]",
	Short: "Send a test webhook to the server",
	Long: `Send the managers' diagnostic test payload to a webhook endpoint.

Verifies that the URL you configured in Radarr or Sonarr reaches this
server and is answered. Defaults to the radarr endpoint.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"radarr", "sonarr"},
	RunE:      runWebhookTest,
}

func init() {
	rootCmd.AddCommand(webhookTestCmd)
}

func runWebhookTest(cmd *cobra.Command, args []string) error {
	manager := "radarr"
	if len(args) > 0 {
		manager = args[0]
	}
	if manager != "radarr" && manager != "sonarr" {
		return fmt.Errorf("manager must be 'radarr' or 'sonarr', got: %s", manager)
	}

	client := NewClient(serverURL)
	result, err := client.WebhookTest(manager)
	if err != nil {
		return fmt.Errorf("webhook test: %w", err)
	}

	if jsonOutput {
		printJSON(result)
		return nil
	}

	if result.Status == "success" {
		fmt.Printf("Webhook /webhook/%s reachable: %s\n", manager, result.Message)
	} else {
		fmt.Printf("Webhook /webhook/%s answered with status %q", manager, result.Status)
		if result.Reason != "" {
			fmt.Printf(" (%s)", result.Reason)
		}
		if result.Message != "" {
			fmt.Printf(": %s", result.Message)
		}
		fmt.Println()
	}
	return nil
}
