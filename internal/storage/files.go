package storage

import "fmt"

// UpsertFileSummary records (or refreshes) the per-file summary row for one
// session's diff. Keyed on (session, path) so re-running a diff in the same
// round overwrites counts instead of duplicating rows.
func (db *DB) UpsertFileSummary(f *ReviewFile) error {
	_, err := db.Exec(`
		INSERT INTO review_files (session_id, file_path, change_kind, added, removed, reviewed)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, file_path) DO UPDATE SET
		  change_kind = excluded.change_kind,
		  added = excluded.added,
		  removed = excluded.removed
	`, f.SessionID, f.FilePath, f.ChangeKind, f.Added, f.Removed, boolToInt(f.Reviewed))
	if err != nil {
		return fmt.Errorf("upsert file summary: %w", err)
	}
	return nil
}

// SetFileReviewed toggles the reviewed flag for one file in a session.
func (db *DB) SetFileReviewed(sessionID, filePath string, reviewed bool) error {
	res, err := db.Exec(`
		UPDATE review_files SET reviewed = ? WHERE session_id = ? AND file_path = ?
	`, boolToInt(reviewed), sessionID, filePath)
	if err != nil {
		return fmt.Errorf("set file reviewed: %w", err)
	}
	return checkAffected(res)
}

// FilesForSession returns the session's file summaries in path order.
func (db *DB) FilesForSession(sessionID string) ([]*ReviewFile, error) {
	rows, err := db.Query(`
		SELECT session_id, file_path, change_kind, added, removed, reviewed
		FROM review_files
		WHERE session_id = ?
		ORDER BY file_path
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("files for session: %w", err)
	}
	defer rows.Close()

	var files []*ReviewFile
	for rows.Next() {
		var f ReviewFile
		var reviewed int
		if err := rows.Scan(&f.SessionID, &f.FilePath, &f.ChangeKind, &f.Added, &f.Removed, &reviewed); err != nil {
			return nil, fmt.Errorf("scan file summary: %w", err)
		}
		f.Reviewed = reviewed != 0
		files = append(files, &f)
	}
	return files, rows.Err()
}
