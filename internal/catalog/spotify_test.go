package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/zmb3/spotify/v2"
)

// savedTracksServer serves total saved tracks from /me/tracks and records
// the limit of every request.
func savedTracksServer(t *testing.T, total int, limits *[]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me/tracks" {
			http.NotFound(w, r)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		*limits = append(*limits, limit)

		var items []map[string]any
		for i := offset; i < offset+limit && i < total; i++ {
			items = append(items, map[string]any{
				"added_at": "2024-01-01T00:00:00Z",
				"track": map[string]any{
					"id":           fmt.Sprintf("id%d", i),
					"name":         fmt.Sprintf("Song %d", i),
					"duration_ms":  200000,
					"track_number": i + 1,
					"external_ids": map[string]any{"isrc": fmt.Sprintf("USRC1%07d", i)},
					"artists":      []map[string]any{{"name": "Main"}, {"name": "Guest"}},
					"album": map[string]any{
						"name":         "Record",
						"release_date": "2019-05-17",
						"artists":      []map[string]any{{"name": "Main"}},
						"images":       []map[string]any{{"url": "https://img/cover.jpg", "height": 640, "width": 640}},
					},
				},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"href":   r.URL.String(),
			"limit":  limit,
			"offset": offset,
			"total":  total,
			"items":  items,
		})
	}))
}

func TestSpotifyWantedTracks(t *testing.T) {
	var limits []int
	srv := savedTracksServer(t, 120, &limits)
	defer srv.Close()

	s := NewSpotify(spotify.New(srv.Client(), spotify.WithBaseURL(srv.URL+"/")))

	tracks, err := s.WantedTracks(context.Background(), 70)
	if err != nil {
		t.Fatalf("WantedTracks: %v", err)
	}
	if len(tracks) != 70 {
		t.Fatalf("got %d tracks, want 70", len(tracks))
	}
	if len(limits) != 2 || limits[0] != 50 || limits[1] != 20 {
		t.Errorf("page limits = %v, want [50 20]", limits)
	}

	first := tracks[0]
	if first.ID != "id0" || first.Name != "Song 0" {
		t.Errorf("unexpected first track %+v", first)
	}
	if first.Artist != "Main, Guest" {
		t.Errorf("Artist = %q", first.Artist)
	}
	if first.AlbumArtist != "Main" || first.Album != "Record" {
		t.Errorf("album fields = %q / %q", first.AlbumArtist, first.Album)
	}
	if first.Year != 2019 {
		t.Errorf("Year = %d", first.Year)
	}
	if first.CoverURL != "https://img/cover.jpg" {
		t.Errorf("CoverURL = %q", first.CoverURL)
	}
	if first.DurationMs != 200000 || first.TrackNumber != 1 {
		t.Errorf("duration/number = %d/%d", first.DurationMs, first.TrackNumber)
	}
	if first.ISRC != "USRC10000000" {
		t.Errorf("ISRC = %q", first.ISRC)
	}
	if tracks[69].ID != "id69" {
		t.Errorf("last track = %q, want id69", tracks[69].ID)
	}
}

func TestSpotifyWantedTracksStopsAtTotal(t *testing.T) {
	var limits []int
	srv := savedTracksServer(t, 7, &limits)
	defer srv.Close()

	s := NewSpotify(spotify.New(srv.Client(), spotify.WithBaseURL(srv.URL+"/")))

	tracks, err := s.WantedTracks(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 7 {
		t.Errorf("got %d tracks, want 7", len(tracks))
	}
	if len(limits) != 1 {
		t.Errorf("expected a single page request, got %d", len(limits))
	}
}

func TestTransformShortReleaseDate(t *testing.T) {
	var st spotify.FullTrack
	st.Name = "X"
	st.Album.ReleaseDate = "19"
	if got := transform(st); got.Year != 0 || got.AlbumArtist != "" || got.CoverURL != "" {
		t.Errorf("unexpected %+v", got)
	}
}
