package domain

import (
	"strings"
	"time"
)

// Track is one wanted item from the catalog. It is never mutated after creation.
type Track struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	AlbumArtist string `json:"album_artist,omitempty"`
	Genre       string `json:"genre,omitempty"`
	CoverURL    string `json:"cover_url,omitempty"`
	DurationMs  int    `json:"duration_ms"`
	TrackNumber int    `json:"track_number,omitempty"`
	Year        int    `json:"year,omitempty"`
	ISRC        string `json:"isrc,omitempty"`
}

func (t Track) String() string {
	return t.Artist + " - " + t.Name
}

// FileCandidate is a file offered by a peer in a search response.
type FileCandidate struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Peer     string `json:"peer"`
}

// SearchResponse groups the files a single peer returned for a search.
type SearchResponse struct {
	Peer  string          `json:"peer"`
	Files []FileCandidate `json:"files"`
}

// SearchSession is a search owned by the peer network.
type SearchSession struct {
	ID            string `json:"id"`
	Query         string `json:"query"`
	State         string `json:"state"`
	ResponseCount int    `json:"response_count"`
	FileCount     int    `json:"file_count"`
	Complete      bool   `json:"complete"`
}

// Transfer is a download tracked by the peer network.
type Transfer struct {
	ID               string  `json:"id,omitempty"`
	Peer             string  `json:"peer"`
	Filename         string  `json:"filename"`
	State            string  `json:"state"`
	Size             int64   `json:"size"`
	BytesTransferred int64   `json:"bytes_transferred"`
	PercentComplete  float64 `json:"percent_complete"`
}

// Transfer states reported by slskd are a comma separated flag list,
// e.g. "Completed, Succeeded" or "InProgress".
const (
	TransferStateCompleted = "Completed"
	TransferStateSucceeded = "Succeeded"
)

// Terminal reports whether the transfer has reached a final state.
func (t Transfer) Terminal() bool {
	return strings.HasPrefix(t.State, TransferStateCompleted)
}

// Succeeded reports whether the transfer finished without error.
func (t Transfer) Succeeded() bool {
	if t.State == TransferStateCompleted {
		return true
	}
	return t.Terminal() && strings.Contains(t.State, TransferStateSucceeded)
}

// ServiceStatus is the subset of the peer network's application state we use.
type ServiceStatus struct {
	Version   string `json:"version"`
	Connected bool   `json:"connected"`
	LoggedIn  bool   `json:"logged_in"`
}

type AcquisitionState string

const (
	StateCheckLocal      AcquisitionState = "check_local"
	StateSearching       AcquisitionState = "searching"
	StateAwaitingResults AcquisitionState = "awaiting_results"
	StateMatching        AcquisitionState = "matching"
	StateFetching        AcquisitionState = "fetching"
	StateVerifying       AcquisitionState = "verifying"
	StateDone            AcquisitionState = "done"
	StateFailed          AcquisitionState = "failed"
)

type Outcome string

const (
	OutcomeSkipped   Outcome = "skipped"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// Attempt records what happened to one track during a run.
type Attempt struct { //nolint:govet // field ordering prioritizes readability over memory alignment
	ID        int64            `json:"id" db:"id"`
	RunID     string           `json:"run_id" db:"run_id"`
	TrackID   string           `json:"track_id" db:"track_id"`
	Artist    string           `json:"artist" db:"artist"`
	Title     string           `json:"title" db:"title"`
	Album     string           `json:"album" db:"album"`
	Outcome   Outcome          `json:"outcome" db:"outcome"`
	State     AcquisitionState `json:"state" db:"state"`
	Trail     StringSlice      `json:"trail" db:"trail"`
	Reason    string           `json:"reason,omitempty" db:"reason"`
	Note      string           `json:"note,omitempty" db:"note"`
	Peer      string           `json:"peer,omitempty" db:"peer"`
	Filename  string           `json:"filename,omitempty" db:"filename"`
	Score     float64          `json:"score" db:"score"`
	FinalPath string           `json:"final_path,omitempty" db:"final_path"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// Run is one pass of the batch controller over the wanted list.
type Run struct { //nolint:govet // field ordering prioritizes readability over memory alignment
	ID         string     `json:"id" db:"id"`
	Profile    string     `json:"profile" db:"profile"`
	Total      int        `json:"total" db:"total"`
	Skipped    int        `json:"skipped" db:"skipped"`
	Succeeded  int        `json:"succeeded" db:"succeeded"`
	Failed     int        `json:"failed" db:"failed"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	Error      *string    `json:"error,omitempty" db:"error"`
}
