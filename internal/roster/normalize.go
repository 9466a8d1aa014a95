package roster

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// UserID derives a stable identifier from an enrollee's display name:
// lowercase, diacritics stripped, words joined with dots. "Jiří Novák"
// becomes "jiri.novak".
func UserID(name string) string {
	name = RemoveDiacritics(name)
	name = strings.ToLower(name)

	var b strings.Builder
	lastDot := true // suppress a leading dot
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDot = false
		default:
			if !lastDot {
				b.WriteRune('.')
				lastDot = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), ".")
}
