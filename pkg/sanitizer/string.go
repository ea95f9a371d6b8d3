package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize collapses internal whitespace runs to single spaces and
// trims the ends.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeName collapses whitespace and Title Cases each word, so a
// transcribed "john  doe" is stored as "John Doe".
func NormalizeName(name string) string {
	name = TrimAndNormalize(name)
	if name == "" {
		return ""
	}

	words := strings.Split(name, " ")
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// NormalizeEmail trims and lowercases. It does not validate; that is the
// validator's job.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
