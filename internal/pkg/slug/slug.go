// Package slug turns titles into URL-safe identifiers.
package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength is the longest slug Generate and GenerateUnique will return.
const MaxLength = 50

var (
	// separatorRun matches any run of characters that cannot appear in a slug.
	separatorRun = regexp.MustCompile(`[^a-z0-9]+`)
	validSlug    = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// Generate converts text to a lowercase, hyphen-separated slug of at most
// MaxLength characters. Accents are folded ("Café" becomes "cafe") and any
// other run of non-alphanumeric characters becomes a single hyphen.
func Generate(text string) string {
	if text == "" {
		return ""
	}

	// Decompose accents and compatibility forms (ligatures, digraphs,
	// full-width letters), then drop the combining marks.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, text)
	if err != nil {
		result = text
	}

	result = strings.TrimSpace(strings.ToLower(result))
	result = separatorRun.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	if len(result) > MaxLength {
		result = strings.TrimRight(result[:MaxLength], "-")
	}

	return result
}

// GenerateUnique returns base unchanged when it is not taken, otherwise the
// first of base-1, base-2, ... that is not in existing. The base is shortened
// when needed so the result never exceeds MaxLength.
func GenerateUnique(base string, existing []string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		taken[s] = struct{}{}
	}

	if _, ok := taken[base]; !ok {
		return base
	}

	for i := 1; ; i++ {
		suffix := "-" + strconv.Itoa(i)
		stem := base
		if len(stem)+len(suffix) > MaxLength {
			stem = strings.TrimRight(stem[:MaxLength-len(suffix)], "-")
		}

		candidate := stem + suffix
		if stem == "" {
			candidate = strconv.Itoa(i)
		}

		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

// IsValid reports whether s is a well-formed slug: lowercase letters, digits
// and hyphens, 1 to MaxLength characters, no leading or trailing hyphen.
func IsValid(s string) bool {
	if s == "" || len(s) > MaxLength {
		return false
	}
	if !validSlug.MatchString(s) {
		return false
	}
	return s[0] != '-' && s[len(s)-1] != '-'
}
