package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultSlugSuffixSize is the length of the random part appended by UniqueSlug.
const DefaultSlugSuffixSize = 6

var (
	slugInvalidChars = regexp.MustCompile(`[^\w\s-]`)
	slugSeparators   = regexp.MustCompile(`[-\s]+`)
)

// Slugify converts text into a lower-case ASCII slug.
// Accents are folded, anything outside word characters, spaces and hyphens
// is dropped, and runs of spaces/hyphens collapse into a single hyphen.
func Slugify(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}

	ascii := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, folded)

	ascii = slugInvalidChars.ReplaceAllString(strings.ToLower(ascii), "")
	ascii = slugSeparators.ReplaceAllString(strings.TrimSpace(ascii), "-")

	return strings.Trim(ascii, "-_")
}

// UniqueSlug returns Slugify(title) followed by a random suffix.
// Uniqueness is probabilistic; the storage unique index is the final guard.
func UniqueSlug(title string, suffixSize int) string {
	if suffixSize <= 0 {
		suffixSize = DefaultSlugSuffixSize
	}
	return Slugify(title) + "-" + RandomString(suffixSize)
}
