package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	moviesCmd := &cobra.Command{
		Use:   "movies",
		Short: "Inspect and correct tracked movies",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked movies",
		Args:  cobra.NoArgs,
		RunE:  runMoviesList,
	}
	listCmd.Flags().Bool("skipped", false, "Only skipped movies")
	listCmd.Flags().Bool("missing-date", false, "Only movies without a resolved date")
	listCmd.Flags().StringP("source", "s", "", "Filter by date source prefix (manual, radarr, tmdb, omdb, webhook)")
	listCmd.Flags().StringP("search", "q", "", "Title substring to search for")
	listCmd.Flags().IntP("limit", "l", 100, "Maximum number of movies to return")
	listCmd.Flags().Int("offset", 0, "Pagination offset")

	setDateCmd := &cobra.Command{
		Use:   "set-date <imdb-id> <date>",
		Short: "Override a movie's date added",
		Long: `Override a movie's date added by hand.

The date may be a plain day (2023-07-14) or a full RFC 3339 timestamp.
Manual dates outrank every automatic source and survive later
population runs.`,
		Args: cobra.ExactArgs(2),
		RunE: runMoviesSetDate,
	}
	setDateCmd.Flags().String("source", "", "Record the date under this source instead of manual")

	moviesCmd.AddCommand(listCmd)
	moviesCmd.AddCommand(setDateCmd)
	rootCmd.AddCommand(moviesCmd)
}

func runMoviesList(cmd *cobra.Command, args []string) error {
	filter := MovieFilter{}
	if v, _ := cmd.Flags().GetBool("skipped"); v {
		filter.Skipped = &v
	}
	if v, _ := cmd.Flags().GetBool("missing-date"); v {
		filter.MissingDate = &v
	}
	filter.Source, _ = cmd.Flags().GetString("source")
	filter.Search, _ = cmd.Flags().GetString("search")
	filter.Limit, _ = cmd.Flags().GetInt("limit")
	filter.Offset, _ = cmd.Flags().GetInt("offset")

	client := NewClient(serverURL)
	movies, err := client.Movies(filter)
	if err != nil {
		return fmt.Errorf("list movies: %w", err)
	}

	if jsonOutput {
		printJSON(movies)
		return nil
	}

	if len(movies.Items) == 0 {
		fmt.Println("No movies matched.")
		return nil
	}

	rows := make([][]string, 0, len(movies.Items))
	for i := range movies.Items {
		m := &movies.Items[i]
		notes := ""
		if m.Skipped {
			notes = "skipped"
			if m.SkipReason != "" {
				notes = "skipped: " + truncate(m.SkipReason, 30)
			}
		}
		rows = append(rows, []string{
			m.IMDbID,
			truncate(m.Title, 40),
			fmt.Sprintf("%d", m.Year),
			fmtDate(m.DateAdded),
			m.Source,
			notes,
		})
	}
	printTable(
		[]string{"IMDB ID", "TITLE", "YEAR", "DATE ADDED", "SOURCE", "NOTES"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
	)

	if movies.Total > len(movies.Items) {
		fmt.Printf("\nShowing %d of %d movies. Use --limit and --offset to see more.\n",
			len(movies.Items), movies.Total)
	}
	return nil
}

func runMoviesSetDate(cmd *cobra.Command, args []string) error {
	source, _ := cmd.Flags().GetString("source")

	client := NewClient(serverURL)
	movie, err := client.SetMovieDate(args[0], args[1], source)
	if err != nil {
		return fmt.Errorf("set date: %w", err)
	}

	if jsonOutput {
		printJSON(movie)
		return nil
	}

	fmt.Printf("Set date for %s (%d): %s [source: %s]\n",
		movie.Title, movie.Year, fmtDate(movie.DateAdded), movie.Source)
	return nil
}
