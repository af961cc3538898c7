package library

import (
	"regexp"
	"strings"
)

var filenamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.*?)\s*[-–—]\s*(.*?)$`),
	regexp.MustCompile(`^(.*?)\s*[\(\[]\s*(.*?)\s*[\)\]]$`),
}

// parseFilename guesses artist and title from a file stem such as
// "Artist - Title" or "Title (Artist)". The shorter group is taken as
// the artist unless the stem uses a spaced dash, which always reads
// artist first.
func parseFilename(stem string) (artist, title string, ok bool) {
	for _, re := range filenamePatterns {
		m := re.FindStringSubmatch(stem)
		if m == nil {
			continue
		}
		first, second := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		if first == "" || second == "" {
			continue
		}
		if len(first) < len(second) || strings.Contains(stem, " - ") {
			return first, second, true
		}
		return second, first, true
	}
	return "", "", false
}
