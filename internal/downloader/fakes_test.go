package downloader

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cesargomez89/slskdsync/internal/domain"
	"github.com/cesargomez89/slskdsync/internal/logger"
	"github.com/cesargomez89/slskdsync/internal/poll"
	"github.com/cesargomez89/slskdsync/internal/quality"
)

var testTrack = domain.Track{
	ID:         "t1",
	Name:       "Get Lucky (feat. Pharrell Williams)",
	Artist:     "Daft Punk",
	Album:      "Random Access Memories",
	DurationMs: 248000,
}

const (
	goodFile = `Music\Daft Punk\Random Access Memories\08 - Daft Punk - Get Lucky.flac`
	goodBase = "08 - Daft Punk - Get Lucky.flac"
)

func goodResponses() []domain.SearchResponse {
	return []domain.SearchResponse{
		{Peer: "peer1", Files: []domain.FileCandidate{
			{Filename: `Music\Daft Punk\Get Lucky.mp3`, Size: 8_000_000, Peer: "peer1"},
			{Filename: goodFile, Size: 40_000_000, Peer: "peer1"},
		}},
	}
}

// fakeNetwork scripts the slskd API. Every field is optional.
type fakeNetwork struct {
	mu sync.Mutex

	statusErr error

	existing    []domain.SearchSession
	searchesErr error
	panicOnList bool

	submitted      []string
	submitErr      error
	submitComplete bool

	// completeAfter is how many Search calls report an incomplete search;
	// a negative value never completes.
	completeAfter int
	searchCalls   int

	responses    []domain.SearchResponse
	responsesErr error

	enqueued   []domain.FileCandidate
	enqueueErr error

	// before is the transfer list reported until something is enqueued.
	before []domain.Transfer

	// transfers returns the transfer list for the n-th call after enqueue,
	// starting at 0.
	transfers     func(n int) []domain.Transfer
	transferCalls int
}

func (f *fakeNetwork) Status(ctx context.Context) (domain.ServiceStatus, error) {
	return domain.ServiceStatus{Version: "0.20.0", Connected: true}, f.statusErr
}

func (f *fakeNetwork) Searches(ctx context.Context) ([]domain.SearchSession, error) {
	if f.panicOnList {
		panic("boom")
	}
	return f.existing, f.searchesErr
}

func (f *fakeNetwork) Submit(ctx context.Context, query string) (domain.SearchSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, query)
	if f.submitErr != nil {
		return domain.SearchSession{}, f.submitErr
	}
	return domain.SearchSession{ID: "s1", Query: query, Complete: f.submitComplete}, nil
}

func (f *fakeNetwork) Search(ctx context.Context, id string) (domain.SearchSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	complete := f.completeAfter >= 0 && f.searchCalls > f.completeAfter
	return domain.SearchSession{ID: id, Complete: complete}, nil
}

func (f *fakeNetwork) Responses(ctx context.Context, id string) ([]domain.SearchResponse, error) {
	return f.responses, f.responsesErr
}

func (f *fakeNetwork) Enqueue(ctx context.Context, file domain.FileCandidate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, file)
	return f.enqueueErr
}

func (f *fakeNetwork) Transfers(ctx context.Context) ([]domain.Transfer, error) {
	f.mu.Lock()
	if len(f.enqueued) == 0 {
		f.mu.Unlock()
		return f.before, nil
	}
	n := f.transferCalls
	f.transferCalls++
	f.mu.Unlock()
	if f.transfers == nil {
		return nil, errors.New("no transfers scripted")
	}
	return f.transfers(n), nil
}

// finishesAfter reports the good file in progress for n polls, then in state.
func finishesAfter(n int, state string) func(int) []domain.Transfer {
	return func(call int) []domain.Transfer {
		t := domain.Transfer{Peer: "peer1", Filename: goodFile, State: "InProgress", Size: 40_000_000, BytesTransferred: 1_000_000}
		if call >= n {
			t.State = state
			t.BytesTransferred = t.Size
		}
		other := domain.Transfer{Peer: "peer2", Filename: goodFile, State: "Completed, Errored"}
		return []domain.Transfer{other, t}
	}
}

type fakeLibrary struct {
	has    map[string]bool
	onCall func()
}

func (l *fakeLibrary) Exists(track domain.Track) bool {
	if l.onCall != nil {
		l.onCall()
	}
	return l.has[track.ID]
}

type fakeProcessor struct {
	calls []string
	final string
	err   error
}

func (p *fakeProcessor) Process(ctx context.Context, localPath string, track domain.Track) (string, error) {
	p.calls = append(p.calls, localPath)
	if p.err != nil {
		return "", p.err
	}
	return p.final, nil
}

type fakeMetrics struct {
	mu       sync.Mutex
	runs     int
	reused   int
	keys     int
	outcomes []string
}

func (m *fakeMetrics) RunStarted() { m.mu.Lock(); m.runs++; m.mu.Unlock() }

func (m *fakeMetrics) TrackFinished(outcome, state string, d time.Duration) {
	m.mu.Lock()
	m.outcomes = append(m.outcomes, outcome)
	m.mu.Unlock()
}

func (m *fakeMetrics) SearchReused() { m.mu.Lock(); m.reused++; m.mu.Unlock() }

func (m *fakeMetrics) LibraryKeys(n int) { m.mu.Lock(); m.keys = n; m.mu.Unlock() }

func newTestAcquirer(net *fakeNetwork, proc Processor, downloads, incomplete string) (*Acquirer, *poll.FakeClock, *fakeMetrics) {
	clock := poll.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	m := &fakeMetrics{}
	a := NewAcquirer(net, proc, quality.Lossless, downloads, incomplete, logger.Discard())
	a.Clock = clock
	a.Metrics = m
	return a, clock, m
}
