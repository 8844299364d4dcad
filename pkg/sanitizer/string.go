package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims the ends and collapses every run of whitespace to a
// single space.
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
			continue
		}
		result.WriteRune(r)
		lastWasSpace = false
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(stripControl(name))
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeIdentifier trims an opaque id such as an engineer or assignment id.
func NormalizeIdentifier(id string) string {
	return strings.TrimSpace(id)
}

// NormalizeText cleans multi-line free text such as override or decline
// reasons: control characters other than newlines are removed, each line is
// whitespace-collapsed, and blank leading and trailing lines are dropped.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = TrimAndNormalize(stripControl(line))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
