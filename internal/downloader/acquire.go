// Package downloader drives wanted tracks through search, selection,
// transfer and filing on the peer network.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cesargomez89/slskdsync/internal/constants"
	"github.com/cesargomez89/slskdsync/internal/domain"
	"github.com/cesargomez89/slskdsync/internal/logger"
	"github.com/cesargomez89/slskdsync/internal/poll"
	"github.com/cesargomez89/slskdsync/internal/quality"
	"github.com/cesargomez89/slskdsync/internal/slskd"
	"github.com/cesargomez89/slskdsync/internal/textnorm"
)

var (
	ErrNoResults           = errors.New("no results")
	ErrNoSuitableCandidate = errors.New("no suitable candidate")
	ErrMonitorTimeout      = errors.New("monitoring timeout")
	ErrTransferFailed      = errors.New("transfer failed")
	ErrFileNotFound        = errors.New("downloaded file not found")
)

// PeerNetwork is the slice of the slskd API an acquisition needs.
type PeerNetwork interface {
	Status(ctx context.Context) (domain.ServiceStatus, error)
	Searches(ctx context.Context) ([]domain.SearchSession, error)
	Submit(ctx context.Context, query string) (domain.SearchSession, error)
	Search(ctx context.Context, id string) (domain.SearchSession, error)
	Responses(ctx context.Context, id string) ([]domain.SearchResponse, error)
	Enqueue(ctx context.Context, file domain.FileCandidate) error
	Transfers(ctx context.Context) ([]domain.Transfer, error)
}

// Library answers whether a track is already in the local collection.
type Library interface {
	Exists(track domain.Track) bool
}

// Processor tags and files a downloaded file, returning where it ended up.
type Processor interface {
	Process(ctx context.Context, localPath string, track domain.Track) (string, error)
}

// Metrics receives run and track events. metrics.Recorder implements it.
type Metrics interface {
	RunStarted()
	TrackFinished(outcome, state string, d time.Duration)
	SearchReused()
	LibraryKeys(n int)
}

type noopMetrics struct{}

func (noopMetrics) RunStarted()                                 {}
func (noopMetrics) TrackFinished(string, string, time.Duration) {}
func (noopMetrics) SearchReused()                               {}
func (noopMetrics) LibraryKeys(int)                             {}

// Acquirer runs the acquisition state machine for one track at a time.
type Acquirer struct {
	Network   PeerNetwork
	Library   Library
	Processor Processor
	Policy    quality.Policy
	Clock     poll.Clock
	Metrics   Metrics
	Logger    *logger.Logger

	// DownloadsDir and IncompleteDir are where slskd writes transfers.
	DownloadsDir  string
	IncompleteDir string

	SearchPoll   poll.Policy
	TransferPoll poll.Policy
}

func NewAcquirer(network PeerNetwork, processor Processor, profile quality.Profile, downloadsDir, incompleteDir string, log *logger.Logger) *Acquirer {
	if log == nil {
		log = logger.Default()
	}
	return &Acquirer{
		Network:       network,
		Processor:     processor,
		Policy:        profile.Policy(),
		Clock:         poll.RealClock{},
		Metrics:       noopMetrics{},
		Logger:        log.WithComponent("acquirer"),
		DownloadsDir:  downloadsDir,
		IncompleteDir: incompleteDir,
		SearchPoll:    poll.Fixed(constants.SearchPollInterval, constants.SearchPollTimeout),
		TransferPoll:  poll.Fixed(constants.TransferPollInterval, constants.TransferPollTimeout),
	}
}

// acquisition is the mutable state of one Acquire call.
type acquisition struct {
	track   domain.Track
	attempt domain.Attempt
	trail   []domain.AcquisitionState
	log     *logger.Logger
}

func (r *acquisition) enter(s domain.AcquisitionState) {
	r.trail = append(r.trail, s)
	r.attempt.State = s
	r.log.Debug("State", "state", s)
}

func (r *acquisition) fail(err error) {
	failedIn := r.attempt.State
	r.enter(domain.StateFailed)
	r.attempt.State = failedIn
	r.attempt.Outcome = domain.OutcomeFailed
	r.attempt.Reason = err.Error()
	r.log.Warn("Track failed", "state", failedIn, "reason", err)
}

// Query is the search text for track.
func Query(track domain.Track) string {
	return strings.TrimSpace(track.Artist + " " + textnorm.StripFeaturing(track.Name))
}

// Acquire takes track through every state and reports what happened. It
// never returns an error: failures, including panics, are recorded on the
// attempt.
func (a *Acquirer) Acquire(ctx context.Context, track domain.Track) (att domain.Attempt) {
	r := &acquisition{
		track: track,
		attempt: domain.Attempt{
			TrackID:   track.ID,
			Artist:    track.Artist,
			Title:     track.Name,
			Album:     track.Album,
			CreatedAt: a.clock().Now(),
		},
		log: a.Logger.WithTrack(track.Artist, track.Name),
	}

	defer func() {
		if p := recover(); p != nil {
			r.log.Error("Panic during acquisition", "panic", p)
			r.fail(fmt.Errorf("panic: %v", p))
		}
		r.attempt.Trail = domain.TrailOf(r.trail)
		att = r.attempt
	}()

	a.run(ctx, r)
	return r.attempt
}

func (a *Acquirer) run(ctx context.Context, r *acquisition) {
	r.enter(domain.StateCheckLocal)
	if a.Library != nil && a.Library.Exists(r.track) {
		r.enter(domain.StateDone)
		r.attempt.Outcome = domain.OutcomeSkipped
		r.attempt.Reason = "already in library"
		r.log.Info("Already in library, skipping")
		return
	}

	r.enter(domain.StateSearching)
	session, err := a.search(ctx, r)
	if err != nil {
		r.fail(fmt.Errorf("search: %w", err))
		return
	}

	r.enter(domain.StateAwaitingResults)
	responses, err := a.awaitResults(ctx, r, session)
	if err != nil {
		r.fail(err)
		return
	}

	r.enter(domain.StateMatching)
	if countFiles(responses) == 0 {
		r.fail(ErrNoResults)
		return
	}
	match, ok := quality.SelectBest(responses, r.track, a.Policy)
	if !ok {
		r.fail(ErrNoSuitableCandidate)
		return
	}
	r.attempt.Peer = match.Peer
	r.attempt.Filename = match.File.Filename
	r.attempt.Score = match.Score
	r.log.Info("Selected candidate",
		"peer", match.Peer,
		"file", slskd.BaseName(match.File.Filename),
		"size", humanize.Bytes(uint64(max(match.File.Size, 0))),
		"score", fmt.Sprintf("%.1f", match.Score),
	)

	r.enter(domain.StateFetching)
	stale := a.existingTransfers(ctx, r, match.File)
	if err := a.Network.Enqueue(ctx, match.File); err != nil {
		r.fail(fmt.Errorf("enqueue: %w", err))
		return
	}

	r.enter(domain.StateVerifying)
	if err := a.verify(ctx, r, match.File, stale); err != nil {
		r.fail(err)
		return
	}

	a.postProcess(ctx, r, slskd.BaseName(match.File.Filename))
	r.enter(domain.StateDone)
	r.attempt.Outcome = domain.OutcomeSucceeded
	r.log.Info("Track acquired", "path", r.attempt.FinalPath)
}

// search reuses an existing search with the same text or submits a new one.
func (a *Acquirer) search(ctx context.Context, r *acquisition) (domain.SearchSession, error) {
	query := Query(r.track)

	existing, err := a.Network.Searches(ctx)
	if err != nil {
		r.log.Warn("Could not list existing searches", "error", err)
	}
	for _, s := range existing {
		if strings.EqualFold(strings.TrimSpace(s.Query), query) {
			a.metrics().SearchReused()
			r.log.Info("Reusing existing search", "search_id", s.ID, "query", query)
			return s, nil
		}
	}

	s, err := a.Network.Submit(ctx, query)
	if err != nil {
		return domain.SearchSession{}, err
	}
	r.log.Info("Submitted search", "search_id", s.ID, "query", query)
	return s, nil
}

// awaitResults waits for the search to complete, then returns whatever
// responses exist. A search that never completes still yields its partial
// responses, or none when those cannot be fetched either.
func (a *Acquirer) awaitResults(ctx context.Context, r *acquisition, session domain.SearchSession) ([]domain.SearchResponse, error) {
	timedOut := false
	if !session.Complete {
		err := poll.Until(ctx, a.clock(), a.SearchPoll, func(ctx context.Context) (bool, error) {
			s, err := a.Network.Search(ctx, session.ID)
			if err != nil {
				return false, err
			}
			return s.Complete, nil
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			timedOut = true
			r.log.Warn("Search did not complete, using partial results", "search_id", session.ID, "error", err)
		}
	}

	responses, err := a.Network.Responses(ctx, session.ID)
	if err != nil {
		if timedOut && ctx.Err() == nil {
			r.log.Warn("Partial results unavailable", "search_id", session.ID, "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("responses: %w", err)
	}
	r.log.Info("Search results", "responses", len(responses), "files", countFiles(responses))
	return responses, nil
}

func countFiles(responses []domain.SearchResponse) int {
	n := 0
	for _, resp := range responses {
		n += len(resp.Files)
	}
	return n
}

func sameFile(t domain.Transfer, file domain.FileCandidate) bool {
	return t.Peer == file.Peer && slskd.BaseName(t.Filename) == slskd.BaseName(file.Filename)
}

// existingTransfers returns the IDs of transfer records for file that exist
// before it is enqueued, so verify does not mistake an old attempt for the
// new one.
func (a *Acquirer) existingTransfers(ctx context.Context, r *acquisition, file domain.FileCandidate) map[string]bool {
	transfers, err := a.Network.Transfers(ctx)
	if err != nil {
		r.log.Warn("Could not list transfers before enqueue", "error", err)
		return nil
	}
	stale := make(map[string]bool)
	for _, t := range transfers {
		if t.ID != "" && sameFile(t, file) {
			stale[t.ID] = true
		}
	}
	return stale
}

// verify watches the transfer list until the enqueued file reaches a final
// state. Records listed in stale are ignored. A succeeded record wins over
// failed ones, and polling continues while any matching record is active.
func (a *Acquirer) verify(ctx context.Context, r *acquisition, file domain.FileCandidate, stale map[string]bool) error {
	var final domain.Transfer

	err := poll.Until(ctx, a.clock(), a.TransferPoll, func(ctx context.Context) (bool, error) {
		transfers, err := a.Network.Transfers(ctx)
		if err != nil {
			return false, err
		}
		var failed *domain.Transfer
		active := false
		for i, t := range transfers {
			if !sameFile(t, file) || (t.ID != "" && stale[t.ID]) {
				continue
			}
			switch {
			case t.Succeeded():
				final = t
				return true, nil
			case t.Terminal():
				if failed == nil {
					failed = &transfers[i]
				}
			default:
				active = true
				r.log.Debug("Transfer progress",
					"state", t.State,
					"done", humanize.Bytes(uint64(max(t.BytesTransferred, 0))),
					"percent", fmt.Sprintf("%.0f", t.PercentComplete),
				)
			}
		}
		if failed != nil && !active {
			final = *failed
			return true, nil
		}
		return false, nil
	})
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, poll.ErrTimeout):
		return ErrMonitorTimeout
	default:
		return err
	}

	if !final.Succeeded() {
		return fmt.Errorf("%w: %s", ErrTransferFailed, final.State)
	}
	return nil
}

// postProcess files the downloaded file. Problems here are notes on an
// otherwise successful attempt.
func (a *Acquirer) postProcess(ctx context.Context, r *acquisition, base string) {
	local, err := a.locate(base)
	if err != nil {
		r.attempt.Note = err.Error()
		r.log.Warn("Downloaded file not located", "file", base, "error", err)
		return
	}
	r.attempt.FinalPath = local

	if a.Processor == nil {
		return
	}
	final, err := a.Processor.Process(ctx, local, r.track)
	if err != nil {
		r.attempt.Note = fmt.Sprintf("processing: %v", err)
		r.log.Warn("Post-processing failed", "path", local, "error", err)
		return
	}
	r.attempt.FinalPath = final
}

// locate finds base under the downloads dir, then in the incomplete dir by
// exact name and finally by substring.
func (a *Acquirer) locate(base string) (string, error) {
	if a.DownloadsDir != "" {
		var found string
		_ = filepath.WalkDir(a.DownloadsDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() && d.Name() == base {
				found = path
				return fs.SkipAll
			}
			return nil
		})
		if found != "" {
			return found, nil
		}
	}

	if a.IncompleteDir != "" {
		exact := filepath.Join(a.IncompleteDir, base)
		if _, err := os.Stat(exact); err == nil {
			return exact, nil
		}
		entries, err := os.ReadDir(a.IncompleteDir)
		if err == nil {
			for _, e := range entries {
				if !e.IsDir() && strings.Contains(e.Name(), base) {
					return filepath.Join(a.IncompleteDir, e.Name()), nil
				}
			}
		}
	}

	return "", fmt.Errorf("%w: %s", ErrFileNotFound, base)
}

func (a *Acquirer) clock() poll.Clock {
	if a.Clock == nil {
		return poll.RealClock{}
	}
	return a.Clock
}

func (a *Acquirer) metrics() Metrics {
	if a.Metrics == nil {
		return noopMetrics{}
	}
	return a.Metrics
}
