package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/cesargomez89/slskdsync/internal/constants"
	"github.com/cesargomez89/slskdsync/internal/domain"
)

// Spotify reads the user's saved tracks.
type Spotify struct {
	client   *spotify.Client
	pageSize int
}

func NewSpotify(client *spotify.Client) *Spotify {
	return &Spotify{client: client, pageSize: constants.SpotifyPageSize}
}

func (s *Spotify) WantedTracks(ctx context.Context, limit int) ([]domain.Track, error) {
	var tracks []domain.Track
	offset := 0
	for limit <= 0 || len(tracks) < limit {
		size := s.pageSize
		if limit > 0 && limit-len(tracks) < size {
			size = limit - len(tracks)
		}

		page, err := s.client.CurrentUsersTracks(ctx, spotify.Limit(size), spotify.Offset(offset))
		if err != nil {
			return tracks, fmt.Errorf("saved tracks at offset %d: %w", offset, err)
		}

		for _, item := range page.Tracks {
			if item.ID == "" {
				continue
			}
			tracks = append(tracks, transform(item.FullTrack))
		}

		offset += len(page.Tracks)
		if len(page.Tracks) == 0 || offset >= int(page.Total) {
			break
		}
	}
	if limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return tracks, nil
}

func transform(st spotify.FullTrack) domain.Track {
	artists := make([]string, len(st.Artists))
	for i, a := range st.Artists {
		artists[i] = a.Name
	}

	t := domain.Track{
		ID:          string(st.ID),
		Name:        st.Name,
		Artist:      strings.Join(artists, ", "),
		Album:       st.Album.Name,
		DurationMs:  int(st.Duration),
		TrackNumber: int(st.TrackNumber),
		ISRC:        st.ExternalIDs["isrc"],
	}
	if len(st.Album.Artists) > 0 {
		t.AlbumArtist = st.Album.Artists[0].Name
	}
	if len(st.Album.ReleaseDate) >= 4 {
		if year, err := strconv.Atoi(st.Album.ReleaseDate[:4]); err == nil {
			t.Year = year
		}
	}
	if len(st.Album.Images) > 0 {
		t.CoverURL = st.Album.Images[0].URL
	}
	return t
}

var _ Catalog = (*Spotify)(nil)
