// Package resolver picks the authoritative added-date for a media item
// from an ordered list of candidate signals.
//
// Callers build the candidate list in priority order for the media type
// (import history first, release dates after, fallbacks last); the
// resolver selects the first candidate that carries a usable timestamp
// and reports its provenance tag. Replacement of an already-stored date
// is governed by rank: a candidate may only displace a stored value of
// equal or lower priority. Manual overrides outrank everything and are
// never displaced automatically.
package resolver

import "time"

// Signal is one candidate date with its provenance tag.
type Signal struct {
	Source string
	Value  *time.Time
}

// Resolution is a selected date and the tag recorded with it.
type Resolution struct {
	Date   time.Time
	Source string
}

// ReasonNoValidSource is the skip reason recorded when resolution finds
// no usable candidate.
const ReasonNoValidSource = "no valid date source found"

// futureSlack tolerates clock skew and timezone offsets in upstream
// timestamps before a candidate is rejected as being in the future.
const futureSlack = 48 * time.Hour

// Resolve returns the first candidate, in the given order, that passes
// validation. ok is false when no candidate is usable; the caller marks
// the item skipped with SourceNone.
func Resolve(now time.Time, signals []Signal) (Resolution, bool) {
	for _, s := range signals {
		if Valid(now, s.Value) {
			return Resolution{Date: s.Value.UTC(), Source: s.Source}, true
		}
	}
	return Resolution{}, false
}

// Valid reports whether ts is a usable date signal: present, not a
// known placeholder epoch, and not in the future beyond clock slack.
func Valid(now time.Time, ts *time.Time) bool {
	if ts == nil || ts.IsZero() {
		return false
	}
	u := ts.UTC()
	// Upstream systems emit the Unix epoch day and year-one dates for
	// "unknown"; both are placeholders, never real imports.
	if u.Year() < 1800 {
		return false
	}
	if y, m, d := u.Date(); y == 1970 && m == time.January && d == 1 {
		return false
	}
	return !u.After(now.Add(futureSlack))
}
