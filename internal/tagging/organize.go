package tagging

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cesargomez89/slskdsync/internal/constants"
	"github.com/cesargomez89/slskdsync/internal/domain"
	"github.com/cesargomez89/slskdsync/internal/httpclient"
	"github.com/cesargomez89/slskdsync/internal/logger"
	"github.com/cesargomez89/slskdsync/internal/storage"
	"github.com/cesargomez89/slskdsync/internal/textnorm"
)

// Enricher fills metadata the wanted list lacks before tagging.
type Enricher interface {
	Enrich(ctx context.Context, track domain.Track) domain.Track
}

// Organizer tags a fetched file and moves it under the music root.
type Organizer struct {
	MusicRoot string
	Template  string
	Covers    *httpclient.Client // nil skips cover art
	Enricher  Enricher           // optional
	Logger    *logger.Logger
	Now       func() time.Time
}

// NewOrganizer returns an Organizer with default template and clock.
func NewOrganizer(musicRoot string, covers *httpclient.Client, log *logger.Logger) *Organizer {
	return &Organizer{
		MusicRoot: musicRoot,
		Template:  constants.DefaultPathTemplate,
		Covers:    covers,
		Logger:    log.WithComponent("organizer"),
		Now:       time.Now,
	}
}

// Process tags localPath with track metadata and moves it to its library
// location, returning the final path. Tagging problems are logged and do
// not stop the move.
func (o *Organizer) Process(ctx context.Context, localPath string, track domain.Track) (string, error) {
	log := o.Logger.WithTrack(track.Artist, track.Name)
	if o.Enricher != nil {
		track = o.Enricher.Enrich(ctx, track)
	}

	var cover []byte
	if o.Covers != nil && track.CoverURL != "" {
		data, err := DownloadImage(ctx, o.Covers, track.CoverURL)
		if err != nil {
			log.Warn("Cover download failed", "url", track.CoverURL, "error", err)
		} else {
			cover = data
		}
	}

	if err := TagFile(localPath, track, cover); err != nil {
		if errors.Is(err, ErrUnsupportedFormat) {
			log.Debug("Skipping tags", "path", localPath, "error", err)
		} else {
			log.Warn("Tagging failed", "path", localPath, "error", err)
		}
	}

	dest, err := o.Destination(localPath, track)
	if err != nil {
		return "", err
	}
	if err := storage.EnsureDir(filepath.Dir(dest)); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	dest = storage.UniquePath(dest, o.now())
	if err := storage.MoveFile(localPath, dest); err != nil {
		return "", fmt.Errorf("failed to move %s: %w", localPath, err)
	}

	log.Info("Organized track", "path", dest)
	return dest, nil
}

// Destination renders the library path for track, keeping the source
// file's extension.
func (o *Organizer) Destination(localPath string, track domain.Track) (string, error) {
	tmpl := o.Template
	if tmpl == "" {
		tmpl = constants.DefaultPathTemplate
	}
	ext := strings.ToLower(filepath.Ext(localPath))
	title := textnorm.StripFeaturing(track.Name)
	if storage.Sanitize(title) == "" {
		title = strings.TrimSuffix(filepath.Base(localPath), filepath.Ext(localPath))
	}
	data := storage.NewPathTemplateData(
		textnorm.PrimaryArtist(track.Artist),
		track.AlbumArtist,
		track.Album,
		title,
		track.TrackNumber,
		track.Year,
		constants.DefaultUnknownArtist,
		constants.DefaultUnknownAlbum,
	)
	return storage.BuildFullPath(o.MusicRoot, tmpl, data, ext)
}

func (o *Organizer) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}
