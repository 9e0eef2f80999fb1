// Package matcher decides which product photo, if any, belongs to a catalog
// row. It only looks at names: no image content is read.
package matcher

import (
	"regexp"
	"strings"
)

var (
	thicknessPattern = regexp.MustCompile(`\d+(?:\.\d+)?mm`)
	nonAlnumPattern  = regexp.MustCompile(`[^a-z0-9]+`)
)

// Normalize lowercases s, removes thickness suffixes such as "6mm" or
// "4.5mm", folds every other non-alphanumeric run to a single space and trims.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = thicknessPattern.ReplaceAllString(s, " ")
	s = nonAlnumPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeStem normalizes an image file name without its extension.
func NormalizeStem(stem string) string {
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	return Normalize(stem)
}

// ExactKey lowercases s and drops every non-alphanumeric character.
func ExactKey(s string) string {
	return nonAlnumPattern.ReplaceAllString(strings.ToLower(s), "")
}

// CleanDisplayName tidies a name read from the live part list: surrounding
// whitespace and repeated inner whitespace (including non-breaking spaces)
// are removed.
func CleanDisplayName(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}
