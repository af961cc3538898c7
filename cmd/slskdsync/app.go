package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cesargomez89/slskdsync/internal/catalog"
	"github.com/cesargomez89/slskdsync/internal/config"
	"github.com/cesargomez89/slskdsync/internal/constants"
	"github.com/cesargomez89/slskdsync/internal/downloader"
	"github.com/cesargomez89/slskdsync/internal/httpclient"
	"github.com/cesargomez89/slskdsync/internal/library"
	"github.com/cesargomez89/slskdsync/internal/logger"
	"github.com/cesargomez89/slskdsync/internal/metrics"
	"github.com/cesargomez89/slskdsync/internal/musicbrainz"
	"github.com/cesargomez89/slskdsync/internal/slskd"
	"github.com/cesargomez89/slskdsync/internal/store"
	"github.com/cesargomez89/slskdsync/internal/tagging"
)

func buildIndex(ctx context.Context, cfg *config.Config, log *logger.Logger, progress bool) (*library.Index, error) {
	opts := library.Options{
		Logger: log,
		Policy: library.MatchPolicy{BareTitle: cfg.MatchBareTitle},
	}
	if progress {
		opts.Progress = os.Stderr
	}
	return library.Build(ctx, cfg.MusicRoots, opts)
}

func newAuth(cfg *config.Config, db *store.DB, log *logger.Logger) *catalog.Auth {
	return catalog.NewAuth(
		cfg.SpotifyClientID,
		cfg.SpotifyClientSecret,
		cfg.SpotifyRedirectURL,
		db.Settings(),
		log,
	)
}

// newBatch wires the slskd client, the Spotify catalog and the organizer
// into a batch controller. refresh drops the cached wanted list first.
func newBatch(ctx context.Context, cfg *config.Config, db *store.DB, log *logger.Logger, refresh bool) (*downloader.Batch, error) {
	network, err := slskd.New(slskd.Config{
		Host:              cfg.SlskdHost,
		URLBase:           cfg.SlskdURLBase,
		APIKey:            cfg.SlskdAPIKey,
		RequestsPerSecond: constants.SlskdRequestsPerSec,
	})
	if err != nil {
		return nil, fmt.Errorf("slskd client: %w", err)
	}

	client, err := newAuth(cfg, db, log).Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("spotify: %w (run `slskdsync auth` first)", err)
	}
	cat := catalog.NewCachedCatalog(catalog.NewSpotify(client), catalog.NewStoreCache(db), cfg.CacheTTL)
	if refresh {
		if err := cat.ClearCache(); err != nil {
			log.Warn("Failed to clear wanted list cache", "error", err)
		}
	}

	organizer := tagging.NewOrganizer(cfg.MusicRoot(), httpclient.NewClient(nil, 0), log)
	organizer.Template = cfg.PathTemplate
	if cfg.EnrichMetadata {
		mb := musicbrainz.NewCachedClient(musicbrainz.NewClient(cfg.MusicBrainzURL, nil), db, constants.MusicBrainzCacheTTL)
		organizer.Enricher = musicbrainz.NewEnricher(mb, log)
	}

	acq := downloader.NewAcquirer(network, organizer, cfg.Profile, cfg.DownloadsDir, cfg.IncompleteDir, log)
	acq.Metrics = metrics.Recorder{}

	index := func(ctx context.Context) (downloader.LocalIndex, error) {
		idx, err := buildIndex(ctx, cfg, log, true)
		if err != nil {
			return nil, err
		}
		return idx, nil
	}
	batch := downloader.NewBatch(acq, cat, index, db, log)
	batch.Limit = cfg.TrackLimit
	batch.Pacing = cfg.Pacing
	return batch, nil
}
