package library

import (
	"fmt"
	"os"
	"strings"

	"github.com/dhowden/tag"
)

// Source yields an artist and title from parsed tags.
type Source interface {
	ArtistTitle(m tag.Metadata) (artist, title string, ok bool)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(m tag.Metadata) (artist, title string, ok bool)

func (f SourceFunc) ArtistTitle(m tag.Metadata) (string, string, bool) {
	return f(m)
}

// Chain tries each source in order and stops at the first complete pair.
type Chain []Source

func (c Chain) ArtistTitle(m tag.Metadata) (string, string, bool) {
	for _, src := range c {
		if artist, title, ok := src.ArtistTitle(m); ok {
			return artist, title, true
		}
	}
	return "", "", false
}

var _ Source = Chain(nil)

// DefaultChain is the tag lookup order used when building an index.
var DefaultChain = Chain{
	SourceFunc(commonFields),
	SourceFunc(albumArtistFields),
	RawFields{Artist: []string{"TPE1", "TP1", "TPE2", "TP2"}, Title: []string{"TIT2", "TT2"}},
	RawFields{Artist: []string{"artist", "ARTIST", "performer", "albumartist", "album_artist"}, Title: []string{"title", "TITLE"}},
	RawFields{Artist: []string{"\xa9ART", "aART"}, Title: []string{"\xa9nam"}},
}

func commonFields(m tag.Metadata) (string, string, bool) {
	return pair(m.Artist(), m.Title())
}

func albumArtistFields(m tag.Metadata) (string, string, bool) {
	return pair(m.AlbumArtist(), m.Title())
}

// RawFields looks artist and title up by raw tag key, first non-empty wins.
type RawFields struct {
	Artist []string
	Title  []string
}

func (r RawFields) ArtistTitle(m tag.Metadata) (string, string, bool) {
	raw := m.Raw()
	if len(raw) == 0 {
		return "", "", false
	}
	return pair(firstRaw(raw, r.Artist), firstRaw(raw, r.Title))
}

func firstRaw(raw map[string]interface{}, keys []string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		var s string
		switch val := v.(type) {
		case string:
			s = val
		case []string:
			s = strings.Join(val, ", ")
		case fmt.Stringer:
			s = val.String()
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func pair(artist, title string) (string, string, bool) {
	artist, title = strings.TrimSpace(artist), strings.TrimSpace(title)
	if artist == "" || title == "" {
		return "", "", false
	}
	return artist, title, true
}

// MetadataReader parses the tags of the file at path.
type MetadataReader func(path string) (tag.Metadata, error)

// ReadTags opens path and parses its tags with dhowden/tag.
func ReadTags(path string) (tag.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tag.ReadFrom(f)
}
