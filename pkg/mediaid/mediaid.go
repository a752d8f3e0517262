// Package mediaid normalizes and extracts IMDb-style media identifiers.
//
// The canonical form is "tt" followed by 7 or 8 digits; bare numeric
// identifiers are accepted on input and prefixed. Items with no known
// identifier are tracked under a deterministic placeholder key derived
// from title and year until a real identifier appears.
package mediaid

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalid is returned when an identifier cannot be normalized.
var ErrInvalid = errors.New("invalid media identifier")

// PlaceholderPrefix marks records tracked without a real identifier.
const PlaceholderPrefix = "missing-"

// TMDBPrefix marks records tracked by TMDB id because the manager
// never supplied an IMDb identifier.
const TMDBPrefix = "tmdb-"

var (
	canonicalRe = regexp.MustCompile(`^tt\d{7,8}$`)
	bareRe      = regexp.MustCompile(`^\d{7,8}$`)

	// Text scanning accepts the canonical form anywhere, and a bare
	// 7-8 digit run only on word boundaries so years and episode
	// numbers are not mistaken for identifiers.
	textCanonicalRe = regexp.MustCompile(`(?i)\btt\d{7,8}\b`)
	textBareRe      = regexp.MustCompile(`\b\d{7,8}\b`)
)

// pathPatterns match the identifier conventions used in media folder
// names, most specific first: [imdb-tt123], [tt123], {imdb-tt123},
// (imdb-tt123), then a separator-delimited bare tt123.
var pathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\[imdb-?(tt\d{7,8})\]`),
	regexp.MustCompile(`(?i)\[(tt\d{7,8})\]`),
	regexp.MustCompile(`(?i)\{imdb-?(tt\d{7,8})\}`),
	regexp.MustCompile(`(?i)\(imdb-?(tt\d{7,8})\)`),
	regexp.MustCompile(`(?i)[-_\s](tt\d{7,8})\b`),
}

// Normalize converts raw into canonical form. It accepts canonical
// identifiers in any case and bare 7-8 digit identifiers, which are
// prefixed with "tt". Normalization is idempotent.
func Normalize(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return "", fmt.Errorf("%w: empty", ErrInvalid)
	case canonicalRe.MatchString(s):
		return s, nil
	case bareRe.MatchString(s):
		return "tt" + s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalid, raw)
}

// IsCanonical reports whether id is already in canonical form.
func IsCanonical(id string) bool {
	return canonicalRe.MatchString(id)
}

// ExtractFromText scans free-form text for an identifier. Canonical
// forms win over bare numeric runs regardless of position.
func ExtractFromText(s string) (string, bool) {
	if m := textCanonicalRe.FindString(s); m != "" {
		id, err := Normalize(m)
		return id, err == nil
	}
	if m := textBareRe.FindString(s); m != "" {
		id, err := Normalize(m)
		return id, err == nil
	}
	return "", false
}

// ExtractFromPath scans a file or folder path for an embedded
// identifier using common naming conventions.
func ExtractFromPath(path string) (string, bool) {
	for _, re := range pathPatterns {
		if m := re.FindStringSubmatch(path); m != nil {
			id, err := Normalize(m[1])
			if err == nil {
				return id, true
			}
		}
	}
	return "", false
}

// Derive picks a record key from the identifier fields a media manager
// exposes, in confidence order: an explicit IMDb id, an id embedded in
// the library path, then the TMDB fallback key. ok is false when none
// are present.
func Derive(imdbID, path string, tmdbID int64) (string, bool) {
	if id, err := Normalize(imdbID); err == nil {
		return id, true
	}
	if id, ok := ExtractFromPath(path); ok {
		return id, true
	}
	if tmdbID > 0 {
		return FromTMDB(tmdbID), true
	}
	return "", false
}

// Placeholder returns the deterministic key used to track an item that
// has no real identifier yet. The same title and year always produce
// the same key.
func Placeholder(title string, year int) string {
	seed := strings.ToLower(strings.TrimSpace(title)) + "|" + strconv.Itoa(year)
	sum := md5.Sum([]byte(seed))
	return PlaceholderPrefix + hex.EncodeToString(sum[:])[:12]
}

// IsPlaceholder reports whether id is a placeholder key rather than a
// real identifier.
func IsPlaceholder(id string) bool {
	return strings.HasPrefix(id, PlaceholderPrefix)
}

// FromTMDB returns the fallback key for an item known only by TMDB id.
func FromTMDB(id int64) string {
	return TMDBPrefix + strconv.FormatInt(id, 10)
}

// TMDBID recovers the numeric TMDB id from a fallback key.
func TMDBID(id string) (int64, bool) {
	rest, found := strings.CutPrefix(id, TMDBPrefix)
	if !found {
		return 0, false
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
