// Package testutil provides shared test utilities for airev tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/wizardengineer/airev-sub001/internal/storage"
)

// OpenTestDB creates a test database in a temporary directory.
// The database is automatically closed when the test completes.
func OpenTestDB(t *testing.T) *storage.DB {
	t.Helper()

	db, _ := OpenTestDBWithDir(t)
	return db
}

// OpenTestDBWithDir creates a test database and returns both the DB and the
// temporary directory path. Useful when tests need to create repos or other
// files in the same directory. The database is automatically closed when
// the test completes.
func OpenTestDBWithDir(t *testing.T) (*storage.DB, string) {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := storage.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db, tmpDir
}

// CreateTestSession creates a round-1 session for a fresh thread and
// returns it. Thread ID is generated by the store.
func CreateTestSession(t *testing.T, db *storage.DB) *storage.ReviewSession {
	t.Helper()

	sess := &storage.ReviewSession{
		ThreadID: storage.GenerateID(),
		Round:    1,
		RepoPath: t.TempDir(),
		Branch:   "main",
		StartRef: "abc123",
		Agent:    "claude",
		Model:    "test-model",
	}
	if err := db.CreateSession(sess); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return sess
}

// CreateTestComment attaches a comment to a session with sensible defaults.
func CreateTestComment(t *testing.T, db *storage.DB, sessionID, file string, line int) *storage.ReviewComment {
	t.Helper()

	c := &storage.ReviewComment{
		SessionID: sessionID,
		FilePath:  file,
		StartLine: line,
		EndLine:   line,
		Body:      "test comment",
		Type:      storage.CommentConcern,
		Severity:  storage.SeverityMinor,
	}
	if err := db.AddComment(c); err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	return c
}
