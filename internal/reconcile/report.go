package reconcile

import "time"

// TypeReport summarizes one media type's pass.
type TypeReport struct {
	// Checked is the number of records examined, whether or not any
	// enabled check could reach a verdict on them.
	Checked int `json:"checked"`

	// Orphaned is the number of records every enabled check failed to
	// confirm.
	Orphaned int `json:"orphaned"`

	// Removed counts deletions, or would-be deletions on a dry run.
	Removed int `json:"removed"`

	// RemovedEpisodes counts the episodes cascaded away with removed
	// series.
	RemovedEpisodes int `json:"removed_episodes,omitempty"`

	// RemovedTitles names each removal as "Title (id)", series
	// suffixed with their episode count.
	RemovedTitles []string `json:"removed_titles"`

	// MissingReasons breaks orphans down by which check failed. A
	// record failing both counts under both keys.
	MissingReasons map[string]int `json:"missing_reasons,omitempty"`
}

func newTypeReport(checked int) *TypeReport {
	return &TypeReport{
		Checked:        checked,
		RemovedTitles:  []string{},
		MissingReasons: map[string]int{},
	}
}

// Report describes one reconciliation run.
type Report struct {
	StartedAt         time.Time   `json:"start_time"`
	EndedAt           time.Time   `json:"end_time"`
	Duration          float64     `json:"duration_seconds"`
	DryRun            bool        `json:"dry_run"`
	ValidationMethods []string    `json:"validation_methods"`
	Movies            *TypeReport `json:"movies,omitempty"`
	Series            *TypeReport `json:"series,omitempty"`
	TotalRemoved      int         `json:"total_removed"`
}
