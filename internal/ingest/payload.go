package ingest

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/vmunix/datarr/pkg/mediaid"
)

// Manager webhook event types that trigger date resolution.
const (
	eventDownload = "Download"
	eventUpgrade  = "Upgrade"
	eventRename   = "Rename"
	eventTest     = "Test"
)

// testNotificationType marks diagnostic removal notifications.
const testNotificationType = "TEST_NOTIFICATION"

func importEvent(eventType string) bool {
	switch eventType {
	case eventDownload, eventUpgrade, eventRename:
		return true
	}
	return false
}

// decodePayload parses a raw body into a field map. Senders disagree on
// which fields they populate, so extraction below coerces recognized
// fields individually instead of binding the whole document.
func decodePayload(payload []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.New("empty payload")
	}
	return m, nil
}

// str returns the first non-empty string among keys, trimmed. Numeric
// values are rendered rather than rejected.
func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s := strings.TrimSpace(cast.ToString(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

// obj returns a nested object, nil when absent or empty.
func obj(m map[string]any, key string) map[string]any {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	mm := cast.ToStringMap(v)
	if len(mm) == 0 {
		return nil
	}
	return mm
}

// when parses a timestamp field, nil when absent or malformed.
func when(m map[string]any, key string) *time.Time {
	return parseWhen(cast.ToString(m[key]))
}

// parseWhen accepts the timestamp shapes managers emit: RFC 3339 with
// or without fractional seconds, and bare dates.
func parseWhen(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// movieEvent is the normalized form of a movie manager notification.
type movieEvent struct {
	EventType  string
	IMDbID     string
	Title      string
	Year       int
	Path       string
	HasFile    bool
	FileDate   *time.Time
	Digital    *time.Time
	Physical   *time.Time
	Theatrical *time.Time
	hasMovie   bool
}

func parseMovieEvent(m map[string]any) *movieEvent {
	ev := &movieEvent{EventType: str(m, "eventType")}
	movie := obj(m, "movie")
	if movie == nil {
		return ev
	}
	ev.hasMovie = true
	if id, err := mediaid.Normalize(str(movie, "imdbId")); err == nil {
		ev.IMDbID = id
	}
	ev.Title = str(movie, "title")
	ev.Year = cast.ToInt(movie["year"])
	ev.Path = str(movie, "folderPath", "path")
	ev.Digital = when(movie, "digitalRelease")
	ev.Physical = when(movie, "physicalRelease")
	ev.Theatrical = when(movie, "inCinemas")
	if file := obj(m, "movieFile"); file != nil {
		ev.HasFile = true
		ev.FileDate = when(file, "dateAdded")
	}
	return ev
}

// episodeEvent is one episode named by a TV manager notification.
type episodeEvent struct {
	Season  int
	Episode int
	Title   string
	Aired   *time.Time
}

// seriesEvent is the normalized form of a TV manager notification.
type seriesEvent struct {
	EventType string
	IMDbID    string
	Title     string
	Year      int
	Path      string
	Episodes  []episodeEvent
	FileDate  *time.Time
	hasSeries bool
	hasFile   bool
}

// episodeRefRegexes recover season/episode numbers from a file name
// when the payload carries a file but no episode objects: S01E02
// first, then the 1x02 form.
var episodeRefRegexes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)s(\d{1,2})[ ._-]?e(\d{1,3})`),
	regexp.MustCompile(`\b(\d{1,2})x(\d{2,3})\b`),
}

func parseSeriesEvent(m map[string]any) *seriesEvent {
	ev := &seriesEvent{EventType: str(m, "eventType")}
	series := obj(m, "series")
	if series == nil {
		return ev
	}
	ev.hasSeries = true
	if id, err := mediaid.Normalize(str(series, "imdbId")); err == nil {
		ev.IMDbID = id
	}
	ev.Title = str(series, "title")
	ev.Year = cast.ToInt(series["year"])
	ev.Path = str(series, "path")

	for _, raw := range cast.ToSlice(m["episodes"]) {
		em := cast.ToStringMap(raw)
		if len(em) == 0 {
			continue
		}
		ep := episodeEvent{
			Season:  cast.ToInt(em["seasonNumber"]),
			Episode: cast.ToInt(em["episodeNumber"]),
			Title:   str(em, "title"),
			Aired:   when(em, "airDateUtc"),
		}
		// Season 0 is real (specials); episode 0 is not.
		if ep.Episode > 0 {
			ev.Episodes = append(ev.Episodes, ep)
		}
	}

	if file := obj(m, "episodeFile"); file != nil {
		ev.hasFile = true
		ev.FileDate = when(file, "dateAdded")
		if len(ev.Episodes) == 0 {
			season := cast.ToInt(file["seasonNumber"])
			episode := cast.ToInt(file["episodeNumber"])
			if episode == 0 {
				if s, e := parseEpisodeRef(str(file, "relativePath", "path")); e > 0 {
					season, episode = s, e
				}
			}
			if episode > 0 {
				ev.Episodes = append(ev.Episodes, episodeEvent{
					Season:  season,
					Episode: episode,
					Title:   str(file, "title"),
				})
			}
		}
	}
	return ev
}

// parseEpisodeRef extracts season and episode numbers from a file name.
func parseEpisodeRef(path string) (season, episode int) {
	for _, re := range episodeRefRegexes {
		if m := re.FindStringSubmatch(path); m != nil {
			return cast.ToInt(m[1]), cast.ToInt(m[2])
		}
	}
	return 0, 0
}

// removalEvent is the normalized form of a collection manager cleanup
// notification.
type removalEvent struct {
	Type    string
	Subject string
	Message string
	Extra   string
}

func parseRemovalEvent(m map[string]any) *removalEvent {
	return &removalEvent{
		Type:    str(m, "notification_type", "type", "event"),
		Subject: str(m, "subject"),
		Message: str(m, "message", "body"),
		Extra:   extraText(m["extra"]),
	}
}

// extraText flattens the auxiliary field, which arrives as free text or
// as a list of name/value objects depending on sender version.
func extraText(v any) string {
	switch raw := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(raw)
	case []any:
		var parts []string
		for _, item := range raw {
			if mm := cast.ToStringMap(item); len(mm) > 0 {
				if s := str(mm, "name"); s != "" {
					parts = append(parts, s)
				}
				if s := str(mm, "value"); s != "" {
					parts = append(parts, s)
				}
				continue
			}
			if s := strings.TrimSpace(cast.ToString(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return strings.TrimSpace(cast.ToString(raw))
	}
}

// identifier scans the payload fields in fixed order for a media
// identifier: message body first, then subject, then auxiliary data.
func (ev *removalEvent) identifier() (string, bool) {
	for _, field := range []string{ev.Message, ev.Subject, ev.Extra} {
		if id, ok := mediaid.ExtractFromText(field); ok {
			return id, true
		}
	}
	return "", false
}

// titleRegex pulls a display title out of the message body when no
// subject is present.
var titleRegex = regexp.MustCompile(`(?i)(?:movie|series|show)\s*[:\-]?\s*(.+?)(?:\s*\(|$)`)

// title recovers a display title from the payload, used in logs and in
// responses for items the store no longer holds.
func (ev *removalEvent) title() string {
	if ev.Subject != "" {
		return ev.Subject
	}
	if m := titleRegex.FindStringSubmatch(ev.Message); m != nil {
		if t := strings.TrimSpace(m[1]); t != "" {
			return t
		}
	}
	if ev.Message != "" {
		return ev.Message
	}
	return "Unknown Media"
}
