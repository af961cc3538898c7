// Package textnorm canonicalizes artist and title strings for comparison.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	leadingArticle = regexp.MustCompile(`(?i)^the\s+`)
	featuring      = regexp.MustCompile(`(?i)\s*\((?:feat|ft)\..*?\)`)
)

// Normalize lower-cases s, drops every rune that is not a letter, digit or
// whitespace, collapses whitespace runs and trims the result.
func Normalize(s string) string {
	return strings.Join(strings.Fields(StripPunctuation(s)), " ")
}

// StripPunctuation lower-cases s and removes everything except letters,
// digits and whitespace. Whitespace is left untouched.
func StripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, strings.ToLower(s))
}

// StripLeadingArticle removes a leading "the " token.
func StripLeadingArticle(s string) string {
	return leadingArticle.ReplaceAllString(s, "")
}

// StripFeaturing removes "(feat. ...)" and "(ft. ...)" parentheticals.
func StripFeaturing(title string) string {
	return strings.TrimSpace(featuring.ReplaceAllString(title, ""))
}

// PrimaryArtist returns the first artist of a comma or ampersand separated list.
func PrimaryArtist(artist string) string {
	first := artist
	if i := strings.IndexAny(first, ",&"); i >= 0 {
		first = first[:i]
	}
	return strings.TrimSpace(first)
}

// Key joins a normalized artist and title into an index key.
func Key(artist, title string) string {
	return artist + "|" + title
}

// SplitKey splits an "artist|title" key. ok is false for bare keys.
func SplitKey(key string) (artist, title string, ok bool) {
	return strings.Cut(key, "|")
}
