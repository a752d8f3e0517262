package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRank_MovieOrdering(t *testing.T) {
	ordered := []string{
		SourceManual,
		SourceRadarrDBImport,
		SourceRadarrAPIImport,
		SourceRadarrDigital,
		SourceRadarrPhysical,
		SourceRadarrTheatrical,
		SourceRadarrDigitalFallback,
		SourceRadarrPhysicalFallback,
		SourceRadarrTheatricalFallback,
		SourceTMDBDigital,
		SourceTMDBPhysical,
		SourceTMDBTheatrical,
		SourceOMDBDVD,
		SourceOMDBRelease,
		SourceWebhookFallback,
	}
	for i := 1; i < len(ordered); i++ {
		prev, cur := ordered[i-1], ordered[i]
		assert.Less(t, Rank(KindMovie, prev), Rank(KindMovie, cur),
			"%s should outrank %s", prev, cur)
	}
}

func TestRank_EpisodeOrdering(t *testing.T) {
	ordered := []string{
		SourceManual,
		SourceSonarrDBImport,
		SourceSonarrAPIImport,
		SourceSonarrAired,
		SourceWebhookFallback,
	}
	for i := 1; i < len(ordered); i++ {
		prev, cur := ordered[i-1], ordered[i]
		assert.Less(t, Rank(KindEpisode, prev), Rank(KindEpisode, cur),
			"%s should outrank %s", prev, cur)
	}
}

func TestRank_WebhookImportEqualsAPIImport(t *testing.T) {
	assert.Equal(t, Rank(KindMovie, SourceRadarrAPIImport), Rank(KindMovie, SourceWebhookImport))
	assert.Equal(t, Rank(KindEpisode, SourceSonarrAPIImport), Rank(KindEpisode, SourceWebhookImport))
}

func TestRank_UnknownSource(t *testing.T) {
	assert.Equal(t, unranked, Rank(KindMovie, "bogus:source"))
	assert.Equal(t, unranked, Rank(KindMovie, SourceNone))
}

func TestShouldReplace(t *testing.T) {
	tests := []struct {
		name      string
		kind      Kind
		stored    string
		candidate string
		want      bool
	}{
		{"empty stored always replaceable", KindMovie, "", SourceOMDBRelease, true},
		{"placeholder stored always replaceable", KindMovie, SourceNone, SourceWebhookFallback, true},
		{"higher priority replaces lower", KindMovie, SourceRadarrTheatrical, SourceRadarrDigital, true},
		{"equal priority replaces", KindMovie, SourceRadarrAPIImport, SourceWebhookImport, true},
		{"lower priority does not replace", KindMovie, SourceRadarrDBImport, SourceTMDBDigital, false},
		{"manual beats everything", KindMovie, SourceTMDBDigital, SourceManual, true},
		{"manual not displaced by import", KindMovie, SourceManual, SourceRadarrDBImport, false},
		{"manual replaced by manual", KindMovie, SourceManual, SourceManual, true},
		{"unknown stored replaced by known", KindEpisode, "legacy:v1", SourceSonarrAired, true},
		{"unknown candidate keeps known stored", KindEpisode, SourceSonarrAired, "legacy:v1", false},
		{"episode import beats aired fallback", KindEpisode, SourceSonarrAired, SourceWebhookImport, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldReplace(tt.kind, tt.stored, tt.candidate))
		})
	}
}
