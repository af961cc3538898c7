// Package musicbrainz looks up recordings on MusicBrainz to fill in the
// genre and release year that the wanted list does not carry.
package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cesargomez89/slskdsync/internal/constants"
	"github.com/cesargomez89/slskdsync/internal/domain"
	"github.com/cesargomez89/slskdsync/internal/httpclient"
	"github.com/cesargomez89/slskdsync/internal/textnorm"
)

// Recording is the subset of a MusicBrainz recording used for tagging.
type Recording struct {
	ID          string `json:"id"`
	Genre       string `json:"genre,omitempty"`
	SubGenre    string `json:"sub_genre,omitempty"`
	Album       string `json:"album,omitempty"`
	AlbumArtist string `json:"album_artist,omitempty"`
	Year        int    `json:"year,omitempty"`
}

type Client struct {
	http      *httpclient.Client
	baseURL   string
	userAgent string
	genreMap  map[string]string
}

// NewClient returns a client for the web service at baseURL, limited to
// the one request per second MusicBrainz allows anonymous callers.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		http:      httpclient.NewClient(httpClient, constants.MusicBrainzRequestsPerSec),
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: constants.MusicBrainzUserAgent,
		genreMap:  DefaultGenreMap,
	}
}

// Lookup finds the recording for track, by ISRC when it has one and by
// artist and title otherwise. It returns nil when nothing matches.
func (c *Client) Lookup(ctx context.Context, track domain.Track) (*Recording, error) {
	q := searchQuery(track)
	if q == "" {
		return nil, nil
	}

	u := fmt.Sprintf("%s/recording?query=%s&inc=releases+tags&fmt=json&limit=5", c.baseURL, url.QueryEscape(q))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("musicbrainz returned status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Recordings) == 0 {
		return nil, nil
	}

	rec := result.Recordings[0]
	var tags []tag
	for _, r := range result.Recordings {
		if r.ID == rec.ID || track.ISRC != "" {
			tags = append(tags, r.Tags...)
		}
	}

	out := &Recording{ID: rec.ID}
	out.Genre, out.SubGenre = mainGenre(tags, c.genreMap)
	if rel := selectRelease(rec.Releases, track.Album); rel != nil {
		out.Album = rel.Title
		out.Year = releaseYear(rel.Date)
		if len(rel.ArtistCredit) > 0 {
			out.AlbumArtist = rel.ArtistCredit[0].Artist.Name
		}
	}
	return out, nil
}

func searchQuery(track domain.Track) string {
	if track.ISRC != "" {
		return "isrc:" + track.ISRC
	}
	title := textnorm.StripFeaturing(track.Name)
	artist := textnorm.PrimaryArtist(track.Artist)
	if title == "" || artist == "" {
		return ""
	}
	return fmt.Sprintf("recording:%q AND artist:%q", title, artist)
}

// selectRelease prefers the release whose normalized title matches album,
// falling back to the first one listed.
func selectRelease(releases []release, album string) *release {
	if len(releases) == 0 {
		return nil
	}
	want := textnorm.Normalize(album)
	for i := range releases {
		got := textnorm.Normalize(releases[i].Title)
		if want != "" && got != "" && (strings.Contains(got, want) || strings.Contains(want, got)) {
			return &releases[i]
		}
	}
	return &releases[0]
}

func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

type searchResponse struct {
	Recordings []recording `json:"recordings"`
}

type recording struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Tags     []tag     `json:"tags"`
	Releases []release `json:"releases"`
}

type release struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Date         string         `json:"date"`
	ArtistCredit []artistCredit `json:"artist-credit"`
}

type artistCredit struct {
	Name   string `json:"name"`
	Artist artist `json:"artist"`
}

type artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
