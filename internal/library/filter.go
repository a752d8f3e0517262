package library

// MovieFilter specifies criteria for listing movies.
type MovieFilter struct {
	Skipped      *bool
	MissingDate  *bool // true: date_added is NULL; false: date_added is set
	Source       *string
	HasVideoFile *bool
	Search       *string // substring match on title
	Limit        int     // 0 = no limit
	Offset       int
}

// SeriesFilter specifies criteria for listing series.
type SeriesFilter struct {
	Search *string
	Limit  int
	Offset int
}

// EpisodeFilter specifies criteria for listing episodes.
type EpisodeFilter struct {
	SeriesID    *string
	Season      *int
	Skipped     *bool
	MissingDate *bool
	Limit       int
	Offset      int
}

// HistoryFilter specifies criteria for listing processing history.
type HistoryFilter struct {
	EntityType *MediaType
	EntityKey  *string
	Action     *HistoryAction
	Actor      *string
	Limit      int
	Offset     int
}
