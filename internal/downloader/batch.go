package downloader

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/cesargomez89/slskdsync/internal/catalog"
	"github.com/cesargomez89/slskdsync/internal/domain"
	"github.com/cesargomez89/slskdsync/internal/logger"
)

// LocalIndex is the built library index as the batch sees it.
type LocalIndex interface {
	Library
	Len() int
	NearDuplicates() map[string][]string
}

// RunStore records runs and their attempts.
type RunStore interface {
	CreateRun(run *domain.Run) error
	FinishRun(run *domain.Run) error
	AddAttempt(a *domain.Attempt) error
	ListFailedTracks() ([]string, error)
}

// Summary is the result of one batch run.
type Summary struct {
	RunID     string           `json:"run_id"`
	Total     int              `json:"total"`
	Skipped   int              `json:"skipped"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Attempts  []domain.Attempt `json:"attempts"`
}

// Batch reconciles the wanted list against the local library, one track
// at a time.
type Batch struct {
	Acquirer   *Acquirer
	Catalog    catalog.Catalog
	BuildIndex func(ctx context.Context) (LocalIndex, error)
	Store      RunStore // optional
	Logger     *logger.Logger
	Limit      int
	Pacing     time.Duration

	// RetryFailed restricts the run to wanted tracks whose latest recorded
	// attempt failed. Limit then applies to that subset.
	RetryFailed bool
}

func NewBatch(acq *Acquirer, cat catalog.Catalog, buildIndex func(ctx context.Context) (LocalIndex, error), runs RunStore, log *logger.Logger) *Batch {
	if log == nil {
		log = logger.Default()
	}
	return &Batch{
		Acquirer:   acq,
		Catalog:    cat,
		BuildIndex: buildIndex,
		Store:      runs,
		Logger:     log.WithComponent("batch"),
	}
}

// Run performs the pre-flight checks and then acquires every wanted
// track. Pre-flight failures abort the run with an error. Cancelling ctx
// stops at the next track boundary and returns the partial summary along
// with the context error.
func (b *Batch) Run(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()
	acq := *b.Acquirer
	clock := acq.clock()
	mets := acq.metrics()
	log := b.Logger.WithRun(runID, acq.Policy.Name)
	summary := Summary{RunID: runID}

	status, err := acq.Network.Status(ctx)
	if err != nil {
		return summary, fmt.Errorf("slskd unavailable: %w", err)
	}
	log.Info("Connected to slskd", "version", status.Version)

	idx, err := b.BuildIndex(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to build library index: %w", err)
	}
	acq.Library = idx
	mets.LibraryKeys(idx.Len())
	logDuplicates(log, idx.NearDuplicates())

	limit := b.Limit
	if b.RetryFailed {
		limit = 0
	}
	tracks, err := b.Catalog.WantedTracks(ctx, limit)
	if err != nil {
		return summary, fmt.Errorf("failed to fetch wanted tracks: %w", err)
	}
	if b.RetryFailed {
		if tracks, err = b.failedOnly(tracks); err != nil {
			return summary, fmt.Errorf("failed to list failed tracks: %w", err)
		}
	}
	summary.Total = len(tracks)
	log.Info("Starting run", "tracks", len(tracks))

	run := &domain.Run{
		ID:        runID,
		Profile:   acq.Policy.Name,
		Total:     len(tracks),
		StartedAt: clock.Now(),
	}
	mets.RunStarted()
	if b.Store != nil {
		if err := b.Store.CreateRun(run); err != nil {
			log.Error("Failed to record run", "error", err)
		}
	}

	var runErr error
	for i, track := range tracks {
		if i > 0 && b.Pacing > 0 {
			if err := clock.Sleep(ctx, b.Pacing); err != nil {
				runErr = err
				break
			}
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		log.Info("Processing track", "index", i+1, "of", len(tracks), "track", track.String())
		started := clock.Now()
		att := acq.Acquire(ctx, track)
		att.RunID = runID
		mets.TrackFinished(string(att.Outcome), string(att.State), clock.Now().Sub(started))

		switch att.Outcome {
		case domain.OutcomeSkipped:
			summary.Skipped++
		case domain.OutcomeSucceeded:
			summary.Succeeded++
		default:
			summary.Failed++
		}

		if b.Store != nil {
			if err := b.Store.AddAttempt(&att); err != nil {
				log.Error("Failed to record attempt", "track", track.String(), "error", err)
			}
		}
		summary.Attempts = append(summary.Attempts, att)
	}

	run.Skipped = summary.Skipped
	run.Succeeded = summary.Succeeded
	run.Failed = summary.Failed
	finished := clock.Now()
	run.FinishedAt = &finished
	if runErr != nil {
		msg := runErr.Error()
		if errors.Is(runErr, context.Canceled) {
			msg = "cancelled"
		}
		run.Error = &msg
	}
	if b.Store != nil {
		if err := b.Store.FinishRun(run); err != nil {
			log.Error("Failed to finish run", "error", err)
		}
	}

	log.Info("Run finished",
		"total", summary.Total,
		"skipped", summary.Skipped,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
	)
	return summary, runErr
}

// failedOnly keeps the wanted tracks whose latest attempt failed, in
// wanted order.
func (b *Batch) failedOnly(tracks []domain.Track) ([]domain.Track, error) {
	if b.Store == nil {
		return nil, errors.New("no run store configured")
	}
	ids, err := b.Store.ListFailedTracks()
	if err != nil {
		return nil, err
	}
	failed := make(map[string]bool, len(ids))
	for _, id := range ids {
		failed[id] = true
	}

	out := make([]domain.Track, 0, len(ids))
	for _, t := range tracks {
		if !failed[t.ID] {
			continue
		}
		out = append(out, t)
		if b.Limit > 0 && len(out) == b.Limit {
			break
		}
	}
	return out, nil
}

func logDuplicates(log *logger.Logger, dupes map[string][]string) {
	if len(dupes) == 0 {
		return
	}
	keys := make([]string, 0, len(dupes))
	for k := range dupes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	log.Warn("Potential duplicates in library", "groups", len(keys))
	for _, k := range keys {
		log.Info("Potential duplicate", "key", k, "similar", dupes[k])
	}
}
