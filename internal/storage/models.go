package storage

import "time"

// Outcome is the verdict recorded when a review round closes.
type Outcome string

const (
	OutcomePending          Outcome = "pending"
	OutcomeAccepted         Outcome = "accepted"
	OutcomeRejected         Outcome = "rejected"
	OutcomeChangesRequested Outcome = "changes_requested"
)

// ValidOutcome reports whether s is one of the recognized outcomes.
func ValidOutcome(s string) bool {
	switch Outcome(s) {
	case OutcomePending, OutcomeAccepted, OutcomeRejected, OutcomeChangesRequested:
		return true
	}
	return false
}

// CommentType classifies what kind of feedback a comment carries.
type CommentType string

const (
	CommentQuestion   CommentType = "question"
	CommentConcern    CommentType = "concern"
	CommentTIL        CommentType = "til"
	CommentSuggestion CommentType = "suggestion"
	CommentPraise     CommentType = "praise"
	CommentNitpick    CommentType = "nitpick"
)

// ValidCommentType reports whether s is one of the recognized comment types.
func ValidCommentType(s string) bool {
	switch CommentType(s) {
	case CommentQuestion, CommentConcern, CommentTIL, CommentSuggestion, CommentPraise, CommentNitpick:
		return true
	}
	return false
}

// Severity ranks how much a comment matters.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
	SeverityInfo     Severity = "info"
)

// SeverityRank maps severities to sort keys: lower ranks sort first in
// export order.
var SeverityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityMajor:    1,
	SeverityMinor:    2,
	SeverityInfo:     3,
}

// ValidSeverity reports whether s is one of the recognized severities.
func ValidSeverity(s string) bool {
	_, ok := SeverityRank[Severity(s)]
	return ok
}

// ReviewSession is one review round. Immutable after close except for
// outcome correction and the rating fields.
type ReviewSession struct {
	ID          string     `json:"id"` // sortable by creation time
	ThreadID    string     `json:"thread_id"`
	Round       int        `json:"round"` // 1-based within the thread
	RepoPath    string     `json:"repo_path"`
	Branch      string     `json:"branch,omitempty"`
	StartRef    string     `json:"start_ref,omitempty"`
	EndRef      string     `json:"end_ref,omitempty"`
	Agent       string     `json:"agent,omitempty"` // attribution for AI-authored changesets
	Model       string     `json:"model,omitempty"`
	Outcome     Outcome    `json:"outcome"`
	Difficulty  *int       `json:"difficulty,omitempty"` // 1-5
	Confidence  *int       `json:"confidence,omitempty"` // 1-5
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	ElapsedSecs int64      `json:"elapsed_secs,omitempty"`
}

// ReviewComment is one annotation on a line range. Mutated only by
// resolve/reopen; removal is a soft delete.
type ReviewComment struct {
	ID            string      `json:"id"`
	SessionID     string      `json:"session_id"`
	FilePath      string      `json:"file_path"`
	StartLine     int         `json:"start_line"` // inclusive
	EndLine       int         `json:"end_line"`   // inclusive
	Body          string      `json:"body"`
	Type          CommentType `json:"type"`
	Severity      Severity    `json:"severity"`
	Context       string      `json:"context,omitempty"` // surrounding code captured at creation
	Resolved      bool        `json:"resolved"`
	ResolvedRound *int        `json:"resolved_round,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// ReviewFile is the per-file summary row for one session's diff.
type ReviewFile struct {
	SessionID  string `json:"session_id"`
	FilePath   string `json:"file_path"`
	ChangeKind string `json:"change_kind"`
	Added      int    `json:"added"`
	Removed    int    `json:"removed"`
	Reviewed   bool   `json:"reviewed"`
}

// ThreadSummary aggregates one review thread for listings.
type ThreadSummary struct {
	ThreadID     string    `json:"thread_id"`
	Rounds       int       `json:"rounds"`
	Branch       string    `json:"branch,omitempty"`
	LastOutcome  Outcome   `json:"last_outcome"`
	OpenComments int       `json:"open_comments"`
	StartedAt    time.Time `json:"started_at"`
}
