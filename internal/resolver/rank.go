package resolver

// Provenance tags recorded with resolved dates. The tag names which
// system supplied the winning signal and through which channel.
const (
	SourceManual = "manual"
	SourceNone   = "no_valid_date_source"

	SourceRadarrDBImport           = "radarr:db.history.import"
	SourceRadarrAPIImport          = "radarr:api.import_history"
	SourceRadarrDigital            = "radarr:digital"
	SourceRadarrPhysical           = "radarr:physical"
	SourceRadarrTheatrical         = "radarr:theatrical"
	SourceRadarrDigitalFallback    = "radarr:digital_fallback"
	SourceRadarrPhysicalFallback   = "radarr:physical_fallback"
	SourceRadarrTheatricalFallback = "radarr:theatrical_fallback"

	SourceSonarrDBImport  = "sonarr:db.history.import"
	SourceSonarrAPIImport = "sonarr:api.import_history"
	SourceSonarrAired     = "sonarr:aired_fallback"

	SourceTMDBDigital    = "tmdb:digital"
	SourceTMDBPhysical   = "tmdb:physical"
	SourceTMDBTheatrical = "tmdb:theatrical"

	SourceOMDBDVD     = "omdb:dvd"
	SourceOMDBRelease = "omdb:release"

	SourceWebhookImport   = "webhook:import"
	SourceWebhookFallback = "webhook:fallback_timestamp"
)

// Kind selects the rank table for a media type.
type Kind int

const (
	KindMovie Kind = iota
	KindEpisode
)

// unranked sorts below every known tag; an unknown stored source never
// blocks a real signal.
const unranked = 1 << 10

// Lower rank outranks higher. Tags of equal confidence share a rank:
// an import date is an import date whether it was read from the
// manager's database, its API, or a webhook payload.
var movieRank = map[string]int{
	SourceManual:                   0,
	SourceRadarrDBImport:           1,
	SourceRadarrAPIImport:          2,
	SourceWebhookImport:            2,
	SourceRadarrDigital:            3,
	SourceRadarrPhysical:           4,
	SourceRadarrTheatrical:         5,
	SourceRadarrDigitalFallback:    6,
	SourceRadarrPhysicalFallback:   7,
	SourceRadarrTheatricalFallback: 8,
	SourceTMDBDigital:              9,
	SourceTMDBPhysical:             10,
	SourceTMDBTheatrical:           11,
	SourceOMDBDVD:                  12,
	SourceOMDBRelease:              13,
	SourceWebhookFallback:          14,
	SourceNone:                     unranked,
}

var episodeRank = map[string]int{
	SourceManual:          0,
	SourceSonarrDBImport:  1,
	SourceSonarrAPIImport: 2,
	SourceWebhookImport:   2,
	SourceSonarrAired:     3,
	SourceWebhookFallback: 4,
	SourceNone:            unranked,
}

// Rank returns the priority of a provenance tag for the media kind.
// Unknown tags rank below everything.
func Rank(kind Kind, source string) int {
	table := movieRank
	if kind == KindEpisode {
		table = episodeRank
	}
	if r, ok := table[source]; ok {
		return r
	}
	return unranked
}

// ShouldReplace reports whether a candidate signal may overwrite the
// stored provenance. Equal priority replaces (a fresher import is still
// an import); a stored manual override is only replaced by another
// manual override.
func ShouldReplace(kind Kind, storedSource, candidateSource string) bool {
	if storedSource == "" || storedSource == SourceNone {
		return true
	}
	return Rank(kind, candidateSource) <= Rank(kind, storedSource)
}
