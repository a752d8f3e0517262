// Package title provides title normalization and fuzzy matching, used to
// correlate library records that lack a reliable external identifier.
package title

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// romanRegex matches Roman numerals II-IX when preceded by a space.
// Standalone "I" and "X" are left alone to avoid false positives like
// "I Robot" or "American History X", and numerals at the start of the
// string are not converted.
var romanRegex = regexp.MustCompile(`(?i) (ii|iii|iv|v|vi|vii|viii|ix)\b`)

var romanValues = map[string]string{
	"ii": "2", "iii": "3", "iv": "4", "v": "5",
	"vi": "6", "vii": "7", "viii": "8", "ix": "9",
}

// Clean normalizes a title for comparison: lowercase, Roman numerals to
// Arabic, accents folded, articles stripped, punctuation removed, and
// whitespace collapsed. Two renditions of the same title should clean
// to the same string.
func Clean(s string) string {
	s = strings.ToLower(s)

	s = romanRegex.ReplaceAllStringFunc(s, func(m string) string {
		if v, ok := romanValues[strings.TrimSpace(m)]; ok {
			return " " + v
		}
		return m
	})

	s = foldAccents(s)

	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, ".", " ")

	// Subtitles after a colon get their own article stripping, so
	// "Léon: The Professional" and "Leon The Professional" agree.
	parts := strings.Split(s, ":")
	for i, part := range parts {
		parts[i] = stripArticle(strings.TrimSpace(part))
	}
	s = strings.Join(parts, " ")

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, _ := transform.String(t, s)
	return out
}

func stripArticle(s string) string {
	for _, art := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(s, art) {
			return strings.TrimPrefix(s, art)
		}
	}
	return s
}
