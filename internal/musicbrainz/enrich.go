package musicbrainz

import (
	"context"

	"github.com/cesargomez89/slskdsync/internal/domain"
	"github.com/cesargomez89/slskdsync/internal/logger"
)

// Enricher fills empty track fields from MusicBrainz. Lookup failures are
// logged and leave the track as it was.
type Enricher struct {
	Looker Looker
	Logger *logger.Logger
}

func NewEnricher(looker Looker, log *logger.Logger) *Enricher {
	if log == nil {
		log = logger.Default()
	}
	return &Enricher{Looker: looker, Logger: log.WithComponent("musicbrainz")}
}

func (e *Enricher) Enrich(ctx context.Context, track domain.Track) domain.Track {
	if track.Genre != "" && track.Year != 0 && track.AlbumArtist != "" {
		return track
	}

	rec, err := e.Looker.Lookup(ctx, track)
	if err != nil {
		e.Logger.Warn("MusicBrainz lookup failed", "track", track.String(), "isrc", track.ISRC, "error", err)
		return track
	}
	if rec == nil {
		e.Logger.Debug("No MusicBrainz recording", "track", track.String())
		return track
	}

	if track.Genre == "" && rec.Genre != "" {
		track.Genre = rec.Genre
		if rec.SubGenre != "" {
			track.Genre = rec.Genre + "; " + rec.SubGenre
		}
	}
	if track.Year == 0 && rec.Year > 0 {
		track.Year = rec.Year
	}
	if track.AlbumArtist == "" && rec.AlbumArtist != "" {
		track.AlbumArtist = rec.AlbumArtist
	}
	return track
}
