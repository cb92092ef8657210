package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a session or comment id matches no row.
var ErrNotFound = errors.New("not found")

// CreateSession inserts a new review round. The caller supplies ThreadID
// and Round; ID and StartedAt are filled in here if zero.
func (db *DB) CreateSession(s *ReviewSession) error {
	if s.ID == "" {
		s.ID = GenerateID()
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}
	if s.Outcome == "" {
		s.Outcome = OutcomePending
	}

	_, err := db.Exec(`
		INSERT INTO review_sessions
		  (id, thread_id, round, repo_path, branch, start_ref, end_ref, agent, model, outcome, difficulty, confidence, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.ThreadID, s.Round, s.RepoPath, s.Branch, s.StartRef, s.EndRef,
		s.Agent, s.Model, string(s.Outcome), s.Difficulty, s.Confidence, formatTime(s.StartedAt))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// CloseSession stamps the outcome, end time, and elapsed duration of a round.
func (db *DB) CloseSession(id string, outcome Outcome, endRef string) error {
	now := time.Now().UTC()
	res, err := db.Exec(`
		UPDATE review_sessions
		SET outcome = ?,
		    end_ref = CASE WHEN ? != '' THEN ? ELSE end_ref END,
		    finished_at = ?,
		    elapsed_secs = CAST(strftime('%s', ?) AS INTEGER) - CAST(strftime('%s', started_at) AS INTEGER)
		WHERE id = ?
	`, string(outcome), endRef, endRef, formatTime(now), formatTime(now), id)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return checkAffected(res)
}

// AmendOutcome corrects a closed round's outcome. The only field amendable
// after close.
func (db *DB) AmendOutcome(id string, outcome Outcome) error {
	res, err := db.Exec(`UPDATE review_sessions SET outcome = ? WHERE id = ?`, string(outcome), id)
	if err != nil {
		return fmt.Errorf("amend outcome: %w", err)
	}
	return checkAffected(res)
}

// SetRatings records the 1-5 difficulty/confidence ratings for a round.
// Nil leaves a rating unset.
func (db *DB) SetRatings(id string, difficulty, confidence *int) error {
	res, err := db.Exec(`
		UPDATE review_sessions
		SET difficulty = COALESCE(?, difficulty), confidence = COALESCE(?, confidence)
		WHERE id = ?
	`, difficulty, confidence, id)
	if err != nil {
		return fmt.Errorf("set ratings: %w", err)
	}
	return checkAffected(res)
}

// GetSession fetches one session by id.
func (db *DB) GetSession(id string) (*ReviewSession, error) {
	row := db.QueryRow(sessionSelect+` WHERE id = ?`, id)
	return scanSession(row)
}

// SessionsForThread returns all rounds of a thread in round order.
func (db *DB) SessionsForThread(threadID string) ([]*ReviewSession, error) {
	rows, err := db.Query(sessionSelect+` WHERE thread_id = ? ORDER BY round`, threadID)
	if err != nil {
		return nil, fmt.Errorf("sessions for thread: %w", err)
	}
	defer rows.Close()

	var sessions []*ReviewSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// MaxRoundForThread returns the highest round number in a thread, or 0 if
// the thread has no sessions.
func (db *DB) MaxRoundForThread(threadID string) (int, error) {
	var round int
	err := db.QueryRow(`SELECT COALESCE(MAX(round), 0) FROM review_sessions WHERE thread_id = ?`, threadID).Scan(&round)
	if err != nil {
		return 0, fmt.Errorf("max round for thread: %w", err)
	}
	return round, nil
}

// ListThreads summarizes every thread, most recently started first.
func (db *DB) ListThreads() ([]*ThreadSummary, error) {
	rows, err := db.Query(`
		SELECT s.thread_id,
		       COUNT(*) AS rounds,
		       MAX(s.branch) AS branch,
		       (SELECT outcome FROM review_sessions WHERE thread_id = s.thread_id ORDER BY round DESC LIMIT 1) AS last_outcome,
		       (SELECT COUNT(*) FROM review_comments c
		          JOIN review_sessions cs ON cs.id = c.session_id
		         WHERE cs.thread_id = s.thread_id AND c.resolved = 0 AND c.deleted = 0) AS open_comments,
		       MIN(s.started_at) AS started_at
		FROM review_sessions s
		GROUP BY s.thread_id
		ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var threads []*ThreadSummary
	for rows.Next() {
		var t ThreadSummary
		var outcome, startedAt string
		if err := rows.Scan(&t.ThreadID, &t.Rounds, &t.Branch, &outcome, &t.OpenComments, &startedAt); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		t.LastOutcome = Outcome(outcome)
		t.StartedAt = parseTime(startedAt)
		threads = append(threads, &t)
	}
	return threads, rows.Err()
}

const sessionSelect = `
	SELECT id, thread_id, round, repo_path, branch, start_ref, end_ref, agent, model,
	       outcome, difficulty, confidence, started_at, finished_at, elapsed_secs
	FROM review_sessions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*ReviewSession, error) {
	var s ReviewSession
	var outcome, startedAt string
	var finishedAt sql.NullString
	var difficulty, confidence sql.NullInt64

	err := row.Scan(&s.ID, &s.ThreadID, &s.Round, &s.RepoPath, &s.Branch, &s.StartRef, &s.EndRef,
		&s.Agent, &s.Model, &outcome, &difficulty, &confidence, &startedAt, &finishedAt, &s.ElapsedSecs)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	s.Outcome = Outcome(outcome)
	s.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		t := parseTime(finishedAt.String)
		s.FinishedAt = &t
	}
	if difficulty.Valid {
		d := int(difficulty.Int64)
		s.Difficulty = &d
	}
	if confidence.Valid {
		c := int(confidence.Int64)
		s.Confidence = &c
	}
	return &s, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
