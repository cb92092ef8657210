// Package session bridges interactive review actions to the store and
// computes round-to-round carry-forward.
package session

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/wizardengineer/airev-sub001/internal/git"
	"github.com/wizardengineer/airev-sub001/internal/storage"
)

// ErrInvalidRange is returned when a comment's line range is reversed.
// Surfaced synchronously: the reviewer's input is rejected, never coerced.
var ErrInvalidRange = errors.New("invalid line range")

// Manager owns the store handle. All calls originate from the single
// interactive goroutine, so no two writers ever contend.
type Manager struct {
	db *storage.DB
}

// NewManager wraps an open store.
func NewManager(db *storage.DB) *Manager {
	return &Manager{db: db}
}

// StartRoundOptions carries the optional attributes of a new round.
type StartRoundOptions struct {
	ThreadID string // empty mints a new thread
	RepoPath string
	Branch   string
	StartRef string
	Agent    string
	Model    string
}

// StartRound creates the next session of a thread. With an empty ThreadID a
// new thread is minted and the round is 1; otherwise the round is the
// thread's max round + 1, keeping round numbers contiguous from 1. A
// ThreadID with no recorded rounds is treated the same as empty: a fresh
// thread is minted rather than adopting an arbitrary caller-supplied ID.
func (m *Manager) StartRound(opts StartRoundOptions) (*storage.ReviewSession, error) {
	threadID := opts.ThreadID
	round := 1
	if threadID != "" {
		max, err := m.db.MaxRoundForThread(threadID)
		if err != nil {
			return nil, err
		}
		if max == 0 {
			log.Warn().Str("thread", threadID).Msg("unknown thread, starting a new one")
			threadID = ""
		} else {
			round = max + 1
		}
	}
	if threadID == "" {
		threadID = storage.GenerateID()
	}

	s := &storage.ReviewSession{
		ThreadID: threadID,
		Round:    round,
		RepoPath: opts.RepoPath,
		Branch:   opts.Branch,
		StartRef: opts.StartRef,
		Agent:    opts.Agent,
		Model:    opts.Model,
	}
	if err := m.db.CreateSession(s); err != nil {
		return nil, err
	}
	log.Info().Str("thread", threadID).Int("round", round).Msg("round started")
	return s, nil
}

// CloseRound records the outcome and end ref of a session.
func (m *Manager) CloseRound(sessionID string, outcome storage.Outcome, endRef string) error {
	if !storage.ValidOutcome(string(outcome)) {
		return fmt.Errorf("unknown outcome %q", outcome)
	}
	return m.db.CloseSession(sessionID, outcome, endRef)
}

// RateRound records difficulty/confidence ratings (1-5) for a session.
func (m *Manager) RateRound(sessionID string, difficulty, confidence *int) error {
	for _, r := range []*int{difficulty, confidence} {
		if r != nil && (*r < 1 || *r > 5) {
			return fmt.Errorf("rating %d out of range 1-5", *r)
		}
	}
	return m.db.SetRatings(sessionID, difficulty, confidence)
}

// RecordComment validates and inserts a new annotation. A reversed range
// fails with ErrInvalidRange. Editing is modeled as delete-then-recreate,
// so this always creates a fresh comment.
func (m *Manager) RecordComment(c *storage.ReviewComment) (*storage.ReviewComment, error) {
	if c.StartLine > c.EndLine {
		return nil, fmt.Errorf("%w: start %d > end %d", ErrInvalidRange, c.StartLine, c.EndLine)
	}
	if c.Type == "" {
		c.Type = storage.CommentQuestion
	}
	if !storage.ValidCommentType(string(c.Type)) {
		return nil, fmt.Errorf("unknown comment type %q", c.Type)
	}
	if c.Severity != "" && !storage.ValidSeverity(string(c.Severity)) {
		return nil, fmt.Errorf("unknown severity %q", c.Severity)
	}
	if err := m.db.AddComment(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Resolve marks a comment resolved in the given round. Idempotent.
func (m *Manager) Resolve(commentID string, round int) error {
	return m.db.ResolveComment(commentID, round)
}

// Reopen clears a comment's resolved state and round stamp.
func (m *Manager) Reopen(commentID string) error {
	return m.db.ReopenComment(commentID)
}

// Delete soft-deletes a comment by explicit reviewer command.
func (m *Manager) Delete(commentID string) error {
	return m.db.DeleteComment(commentID)
}

// OpenComments returns the thread's unresolved comments in creation order.
// This is the set a new round carries forward.
func (m *Manager) OpenComments(threadID string) ([]*storage.ReviewComment, error) {
	return m.db.CommentsForThread(threadID, true)
}

// OpenCommentsForExport returns all unresolved comments across the thread
// ordered by severity descending (critical > major > minor > info), then
// file path, then starting line. The ordering is a contract consumed by the
// export layer and must be deterministic for identical input.
func (m *Manager) OpenCommentsForExport(threadID string) ([]*storage.ReviewComment, error) {
	comments, err := m.db.CommentsForThread(threadID, true)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(comments, func(i, j int) bool {
		a, b := comments[i], comments[j]
		ra, rb := storage.SeverityRank[a.Severity], storage.SeverityRank[b.Severity]
		if ra != rb {
			return ra < rb
		}
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		return a.StartLine < b.StartLine
	})
	return comments, nil
}

// RecordFileSummaries writes the review_files rows for a round's diff.
// Called when a diff payload lands so the file panel state survives restarts.
func (m *Manager) RecordFileSummaries(sessionID string, result *git.DiffResult) error {
	for _, f := range result.Files {
		err := m.db.UpsertFileSummary(&storage.ReviewFile{
			SessionID:  sessionID,
			FilePath:   f.Path,
			ChangeKind: string(f.Change),
			Added:      f.Added,
			Removed:    f.Removed,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
