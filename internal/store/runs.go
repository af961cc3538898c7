package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/cesargomez89/slskdsync/internal/domain"
)

var ErrNotFound = errors.New("not found")

func (db *DB) CreateRun(run *domain.Run) error {
	_, err := db.NamedExec(`
		INSERT INTO runs (id, profile, total, skipped, succeeded, failed, started_at)
		VALUES (:id, :profile, :total, :skipped, :succeeded, :failed, :started_at)
	`, run)
	return err
}

// FinishRun stores the final counters of a run.
func (db *DB) FinishRun(run *domain.Run) error {
	if run.FinishedAt == nil {
		now := time.Now()
		run.FinishedAt = &now
	}
	_, err := db.NamedExec(`
		UPDATE runs SET total = :total, skipped = :skipped, succeeded = :succeeded,
			failed = :failed, finished_at = :finished_at, error = :error
		WHERE id = :id
	`, run)
	return err
}

func (db *DB) GetRun(id string) (*domain.Run, error) {
	var run domain.Run
	err := db.Get(&run, "SELECT * FROM runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent runs first.
func (db *DB) ListRuns(limit int) ([]domain.Run, error) {
	runs := []domain.Run{}
	err := db.Select(&runs, "SELECT * FROM runs ORDER BY started_at DESC LIMIT ?", limit)
	return runs, err
}

func (db *DB) AddAttempt(a *domain.Attempt) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	res, err := db.NamedExec(`
		INSERT INTO attempts (run_id, track_id, artist, title, album, outcome, state, trail,
			reason, note, peer, filename, score, final_path, created_at)
		VALUES (:run_id, :track_id, :artist, :title, :album, :outcome, :state, :trail,
			:reason, :note, :peer, :filename, :score, :final_path, :created_at)
	`, a)
	if err != nil {
		return err
	}
	a.ID, err = res.LastInsertId()
	return err
}

// ListAttempts returns the attempts of a run in processing order.
func (db *DB) ListAttempts(runID string) ([]domain.Attempt, error) {
	attempts := []domain.Attempt{}
	err := db.Select(&attempts, "SELECT * FROM attempts WHERE run_id = ? ORDER BY id", runID)
	return attempts, err
}

// ListFailedTracks returns track IDs whose latest attempt failed.
func (db *DB) ListFailedTracks() ([]string, error) {
	ids := []string{}
	err := db.Select(&ids, `
		SELECT a.track_id FROM attempts a
		WHERE a.id = (SELECT MAX(b.id) FROM attempts b WHERE b.track_id = a.track_id)
			AND a.outcome = ?
		ORDER BY a.id
	`, domain.OutcomeFailed)
	return ids, err
}
