package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show library date coverage",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	stats, err := client.Stats()
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	if jsonOutput {
		printJSON(stats)
		return nil
	}

	rows := [][]string{
		bucketRow("movies", stats.Movies),
		bucketRow("episodes", stats.Episodes),
	}
	printTable(
		[]string{"TYPE", "TOTAL", "WITH DATE", "MISSING", "SKIPPED"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
	)
	fmt.Printf("\nSeries tracked: %d\n", stats.Series)

	if len(stats.BySource) == 0 {
		return nil
	}

	// Stable source ordering for diffable output
	sources := make([]string, 0, len(stats.BySource))
	for s := range stats.BySource {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	fmt.Println()
	sourceRows := make([][]string, 0, len(sources))
	for _, s := range sources {
		sourceRows = append(sourceRows, []string{s, strconv.Itoa(stats.BySource[s])})
	}
	printTable(
		[]string{"SOURCE", "COUNT"},
		sourceRows,
		[]columnAlignment{alignLeft, alignRight},
	)
	return nil
}

func bucketRow(name string, b StatsBucket) []string {
	return []string{
		name,
		strconv.Itoa(b.Total),
		strconv.Itoa(b.WithDate),
		strconv.Itoa(b.Missing),
		strconv.Itoa(b.Skipped),
	}
}
