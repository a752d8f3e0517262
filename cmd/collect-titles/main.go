// Command collect-titles fetches movie and series titles from the
// configured managers, for use in building test suites for title
// matching.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/vmunix/datarr/internal/config"
	"github.com/vmunix/datarr/internal/radarr"
	"github.com/vmunix/datarr/internal/sonarr"
)

func main() {
	configPath := flag.String("config", "config.toml", "Path to config file")
	output := flag.String("output", "testdata/titles.csv", "Output CSV file")
	flag.Parse()

	if err := run(*configPath, *output); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, output string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Radarr == nil && cfg.Sonarr == nil {
		return fmt.Errorf("no managers configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// Dedupe by title+year across managers
	seen := make(map[string]bool)
	var results []record

	if cfg.Radarr != nil {
		client := radarr.NewClient(cfg.Radarr.URL, cfg.Radarr.APIKey)
		movies, err := client.Movies(ctx)
		if err != nil {
			return fmt.Errorf("fetch radarr movies: %w", err)
		}
		newCount := 0
		for _, m := range movies {
			key := fmt.Sprintf("%s|%d", m.Title, m.Year)
			if seen[key] {
				continue
			}
			seen[key] = true
			newCount++
			results = append(results, record{
				Title:     m.Title,
				Year:      m.Year,
				IMDbID:    m.IMDBID,
				MediaType: "movie",
			})
		}
		fmt.Printf("radarr: %d movies, %d new\n", len(movies), newCount)
	}

	if cfg.Sonarr != nil {
		client := sonarr.NewClient(cfg.Sonarr.URL, cfg.Sonarr.APIKey)
		series, err := client.Series(ctx)
		if err != nil {
			return fmt.Errorf("fetch sonarr series: %w", err)
		}
		newCount := 0
		for _, sr := range series {
			key := fmt.Sprintf("%s|%d", sr.Title, sr.Year)
			if seen[key] {
				continue
			}
			seen[key] = true
			newCount++
			results = append(results, record{
				Title:     sr.Title,
				Year:      sr.Year,
				IMDbID:    sr.IMDBID,
				MediaType: "series",
			})
		}
		fmt.Printf("sonarr: %d series, %d new\n", len(series), newCount)
	}

	fmt.Printf("\nTotal unique titles: %d\n", len(results))

	if err := writeCSV(output, results); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	fmt.Printf("Written to %s\n", output)
	return nil
}

type record struct {
	Title     string
	Year      int
	IMDbID    string
	MediaType string
}

func writeCSV(path string, records []record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"title", "year", "imdb_id", "media_type"}); err != nil {
		return err
	}

	for _, r := range records {
		if err := w.Write([]string{
			r.Title,
			strconv.Itoa(r.Year),
			r.IMDbID,
			r.MediaType,
		}); err != nil {
			return err
		}
	}

	return w.Error()
}
