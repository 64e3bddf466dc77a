package sanitizer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

var markupReplacer = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// TrimSpace removes leading and trailing whitespace from the string.
func TrimSpace(s string) string {
	return strings.TrimSpace(s)
}

// TrimToLower trims whitespace and converts to lowercase in one operation.
func TrimToLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MaxLength truncates to maxLen runes.
func MaxLength(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	return string(runes[:maxLen])
}

// RemoveExtraWhitespace collapses whitespace runs into single spaces.
func RemoveExtraWhitespace(s string) string {
	normalized := whitespaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(normalized)
}

// RemoveControlChars drops control characters except common whitespace.
func RemoveControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)
}

// SingleLine converts multi-line strings to single line by replacing line breaks with spaces.
func SingleLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")

	return RemoveExtraWhitespace(s)
}

// NormalizeUnicode applies NFKC so lookalike code points (fullwidth brackets,
// ligatures) collapse to their canonical ASCII forms.
func NormalizeUnicode(s string) string {
	if norm.NFKC.IsNormalString(s) {
		return s
	}
	return norm.NFKC.String(s)
}

// EscapeMarkup replaces angle brackets with HTML entities. Ampersands are left
// alone so that applying it twice yields the same result.
func EscapeMarkup(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return s
	}
	return markupReplacer.Replace(s)
}

// NeutralizeXSS drops control characters, normalizes the string and escapes
// markup. The result never contains '<' or '>'.
// Control characters go first: removing them later could leave combining
// sequences that a second pass would compose differently.
func NeutralizeXSS(s string) string {
	return EscapeMarkup(NormalizeUnicode(RemoveControlChars(s)))
}
