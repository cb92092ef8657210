package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// AddComment inserts a new annotation. ID and CreatedAt are filled in here
// if zero. Severity defaults to info.
func (db *DB) AddComment(c *ReviewComment) error {
	if c.ID == "" {
		c.ID = GenerateID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.Severity == "" {
		c.Severity = SeverityInfo
	}

	_, err := db.Exec(`
		INSERT INTO review_comments
		  (id, session_id, file_path, start_line, end_line, body, comment_type, severity, context, resolved, resolved_round, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.SessionID, c.FilePath, c.StartLine, c.EndLine, c.Body,
		string(c.Type), string(c.Severity), c.Context, boolToInt(c.Resolved), c.ResolvedRound, formatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}

// ResolveComment marks a comment resolved in the given round. Idempotent:
// resolving an already-resolved comment keeps its original resolution round.
func (db *DB) ResolveComment(id string, round int) error {
	res, err := db.Exec(`
		UPDATE review_comments
		SET resolved = 1,
		    resolved_round = CASE WHEN resolved = 1 THEN resolved_round ELSE ? END
		WHERE id = ? AND deleted = 0
	`, round, id)
	if err != nil {
		return fmt.Errorf("resolve comment: %w", err)
	}
	return checkAffected(res)
}

// ReopenComment clears the resolved flag and the round stamp.
func (db *DB) ReopenComment(id string) error {
	res, err := db.Exec(`
		UPDATE review_comments
		SET resolved = 0, resolved_round = NULL
		WHERE id = ? AND deleted = 0
	`, id)
	if err != nil {
		return fmt.Errorf("reopen comment: %w", err)
	}
	return checkAffected(res)
}

// DeleteComment soft-deletes a comment. Deleted comments drop out of every
// query but the row survives; hard delete is intentionally not offered.
func (db *DB) DeleteComment(id string) error {
	res, err := db.Exec(`UPDATE review_comments SET deleted = 1 WHERE id = ? AND deleted = 0`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return checkAffected(res)
}

// GetComment fetches one comment by id. Deleted comments are not returned.
func (db *DB) GetComment(id string) (*ReviewComment, error) {
	row := db.QueryRow(commentSelect+` WHERE c.id = ? AND c.deleted = 0`, id)
	return scanComment(row)
}

// CommentsForSession returns a session's comments in creation order.
func (db *DB) CommentsForSession(sessionID string) ([]*ReviewComment, error) {
	rows, err := db.Query(commentSelect+` WHERE c.session_id = ? AND c.deleted = 0 ORDER BY c.id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("comments for session: %w", err)
	}
	defer rows.Close()
	return collectComments(rows)
}

// CommentsForThread returns comments across every round of a thread, in
// creation order. With openOnly, resolved comments are filtered out — this
// is the carry-forward set a new round starts from.
func (db *DB) CommentsForThread(threadID string, openOnly bool) ([]*ReviewComment, error) {
	q := commentSelect + `
		JOIN review_sessions s ON s.id = c.session_id
		WHERE s.thread_id = ? AND c.deleted = 0`
	if openOnly {
		q += ` AND c.resolved = 0`
	}
	q += ` ORDER BY c.id`

	rows, err := db.Query(q, threadID)
	if err != nil {
		return nil, fmt.Errorf("comments for thread: %w", err)
	}
	defer rows.Close()
	return collectComments(rows)
}

const commentSelect = `
	SELECT c.id, c.session_id, c.file_path, c.start_line, c.end_line, c.body,
	       c.comment_type, c.severity, c.context, c.resolved, c.resolved_round, c.created_at
	FROM review_comments c`

func scanComment(row rowScanner) (*ReviewComment, error) {
	var c ReviewComment
	var ctype, severity, createdAt string
	var resolved int
	var resolvedRound sql.NullInt64

	err := row.Scan(&c.ID, &c.SessionID, &c.FilePath, &c.StartLine, &c.EndLine, &c.Body,
		&ctype, &severity, &c.Context, &resolved, &resolvedRound, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan comment: %w", err)
	}

	c.Type = CommentType(ctype)
	c.Severity = Severity(severity)
	c.Resolved = resolved != 0
	if resolvedRound.Valid {
		r := int(resolvedRound.Int64)
		c.ResolvedRound = &r
	}
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

func collectComments(rows *sql.Rows) ([]*ReviewComment, error) {
	var comments []*ReviewComment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
