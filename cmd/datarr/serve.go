package main

import (
	"github.com/spf13/cobra"

	"github.com/vmunix/datarr/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the server in the foreground",
	Long: `Run the datarr server in the foreground.

Equivalent to the datarrd binary; useful for trying datarr out
without installing a second executable.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("config", "", "Path to config file (searched for when empty)")
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	return server.Run(configPath, version)
}
