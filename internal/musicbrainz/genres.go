package musicbrainz

import "strings"

// DefaultGenreMap folds MusicBrainz folksonomy tags into a small set of
// top-level genres. Tags not listed are kept as they are.
var DefaultGenreMap = buildGenreMap(map[string][]string{
	"Rock": {
		"rock", "alternative rock", "indie rock", "hard rock", "punk", "punk rock",
		"post-punk", "garage rock", "grunge", "emo", "soft rock", "shoegaze",
	},
	"Metal": {
		"metal", "heavy metal", "nu metal", "death metal", "black metal",
		"thrash metal", "metalcore", "progressive metal", "alternative metal",
	},
	"Pop": {
		"pop", "indie pop", "synthpop", "synth-pop", "dance pop", "dance-pop",
		"electropop", "art pop", "k-pop",
	},
	"Hip-Hop": {"hip hop", "hip-hop", "rap", "trap", "drill", "boom bap"},
	"R&B":     {"r&b", "rnb", "contemporary r&b", "soul", "neo soul", "funk"},
	"Electronic": {
		"electronic", "edm", "house", "deep house", "techno", "trance", "dubstep",
		"drum and bass", "dnb", "trip hop", "ambient", "disco", "electronica",
		"french house", "idm",
	},
	"Latin":      {"latin", "reggaeton", "salsa", "bachata", "cumbia", "bossa nova"},
	"Country":    {"country", "americana", "alt-country"},
	"Jazz":       {"jazz", "smooth jazz", "bebop", "jazz fusion"},
	"Classical":  {"classical", "opera", "baroque", "orchestral"},
	"Folk":       {"folk", "indie folk", "acoustic", "singer-songwriter"},
	"Reggae":     {"reggae", "dancehall", "ska", "dub"},
	"Blues":      {"blues"},
	"Soundtrack": {"soundtrack", "film score"},
})

func buildGenreMap(groups map[string][]string) map[string]string {
	m := make(map[string]string)
	for genre, tags := range groups {
		for _, t := range tags {
			m[t] = genre
		}
	}
	return m
}

// mainGenre sums tag votes per mapped genre and returns the winner. sub is
// the single most voted raw tag when it differs from the winner.
func mainGenre(tags []tag, genreMap map[string]string) (top, sub string) {
	votes := make(map[string]int)
	var topTag string
	var topCount int

	for _, t := range tags {
		name := strings.ToLower(strings.TrimSpace(t.Name))
		if t.Count <= 0 || name == "" {
			continue
		}
		if mapped, ok := genreMap[name]; ok {
			votes[mapped] += t.Count
		} else {
			votes[t.Name] += t.Count
		}
		if t.Count > topCount {
			topCount = t.Count
			topTag = t.Name
		}
	}

	var best int
	for genre, n := range votes {
		if n > best || (n == best && genre < top) {
			best = n
			top = genre
		}
	}
	if top == "" {
		return "", ""
	}
	if topTag != "" && !strings.EqualFold(topTag, top) {
		return top, topTag
	}
	return top, ""
}
