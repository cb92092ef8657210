package storage

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, _ := openTestDBAt(t, filepath.Join(t.TempDir(), "test.db"))
	return db
}

func openTestDBAt(t *testing.T, path string) (*DB, string) {
	t.Helper()
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, path
}

func TestOpenFreshStore(t *testing.T) {
	db := openTestDB(t)

	version, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("expected version %d, got %d", currentSchemaVersion, version)
	}

	// The model tables must exist and accept writes immediately.
	sess := &ReviewSession{ThreadID: GenerateID(), Round: 1, RepoPath: "/tmp/repo"}
	if err := db.CreateSession(sess); err != nil {
		t.Fatalf("CreateSession on fresh store failed: %v", err)
	}
}

func TestReopenIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, _ := openTestDBAt(t, path)

	sess := &ReviewSession{ThreadID: GenerateID(), Round: 1, RepoPath: "/tmp/repo"}
	if err := db.CreateSession(sess); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	db.Close()

	db2, _ := openTestDBAt(t, path)
	got, err := db2.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("GetSession after reopen failed: %v", err)
	}
	if got.ThreadID != sess.ThreadID {
		t.Errorf("thread ID changed across reopen: %q != %q", got.ThreadID, sess.ThreadID)
	}

	version, err := db2.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("expected version %d after reopen, got %d", currentSchemaVersion, version)
	}
}

func TestOpenNewerStoreFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, _ := openTestDBAt(t, path)

	if _, err := db.Exec(`UPDATE schema_version SET version = ?`, currentSchemaVersion+1); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	_, err := Open(path)
	if !errors.Is(err, ErrUnsupportedSchemaVersion) {
		t.Fatalf("expected ErrUnsupportedSchemaVersion, got %v", err)
	}
}

func TestLegacyStoreMigration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	// Build a version-0 store: legacy tables, no schema_version row.
	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	stmts := []string{
		`CREATE TABLE comments (id INTEGER PRIMARY KEY, text TEXT)`,
		`CREATE TABLE sessions (id INTEGER PRIMARY KEY)`,
		`CREATE TABLE threads (id INTEGER PRIMARY KEY)`,
		`CREATE TABLE file_review_state (path TEXT)`,
		`INSERT INTO comments (text) VALUES ('old data')`,
	}
	for _, s := range stmts {
		if _, err := raw.Exec(s); err != nil {
			t.Fatalf("seed legacy table: %v", err)
		}
	}
	raw.Close()

	db, _ := openTestDBAt(t, path)

	version, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("expected version %d after migration, got %d", currentSchemaVersion, version)
	}

	// Legacy tables are dropped, not preserved.
	for _, table := range legacyTables {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != sql.ErrNoRows {
			t.Errorf("legacy table %q survived migration (err=%v)", table, err)
		}
	}

	// And the new store is usable.
	sess := &ReviewSession{ThreadID: GenerateID(), Round: 1, RepoPath: "/tmp/repo"}
	if err := db.CreateSession(sess); err != nil {
		t.Fatalf("CreateSession after migration failed: %v", err)
	}
}
