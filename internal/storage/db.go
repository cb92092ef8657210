package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wizardengineer/airev-sub001/internal/config"
	_ "modernc.org/sqlite"
)

// currentSchemaVersion gates migration at open time. Version 0 denotes a
// legacy pre-model store whose tables are dropped, not translated.
const currentSchemaVersion = 1

// ErrUnsupportedSchemaVersion means the store was written by a newer build.
// Fatal at open time: refusing to continue beats misreading newer data.
var ErrUnsupportedSchemaVersion = errors.New("unsupported schema version")

const schema = `
CREATE TABLE IF NOT EXISTS review_sessions (
  id TEXT PRIMARY KEY,
  thread_id TEXT NOT NULL,
  round INTEGER NOT NULL CHECK(round >= 1),
  repo_path TEXT NOT NULL,
  branch TEXT NOT NULL DEFAULT '',
  start_ref TEXT NOT NULL DEFAULT '',
  end_ref TEXT NOT NULL DEFAULT '',
  agent TEXT NOT NULL DEFAULT '',
  model TEXT NOT NULL DEFAULT '',
  outcome TEXT NOT NULL CHECK(outcome IN ('pending','accepted','rejected','changes_requested')) DEFAULT 'pending',
  difficulty INTEGER CHECK(difficulty BETWEEN 1 AND 5),
  confidence INTEGER CHECK(confidence BETWEEN 1 AND 5),
  started_at TEXT NOT NULL,
  finished_at TEXT,
  elapsed_secs INTEGER NOT NULL DEFAULT 0,
  UNIQUE(thread_id, round)
);

CREATE TABLE IF NOT EXISTS review_comments (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL REFERENCES review_sessions(id),
  file_path TEXT NOT NULL,
  start_line INTEGER NOT NULL,
  end_line INTEGER NOT NULL,
  body TEXT NOT NULL,
  comment_type TEXT NOT NULL CHECK(comment_type IN ('question','concern','til','suggestion','praise','nitpick')),
  severity TEXT NOT NULL CHECK(severity IN ('critical','major','minor','info')) DEFAULT 'info',
  context TEXT NOT NULL DEFAULT '',
  resolved INTEGER NOT NULL DEFAULT 0,
  resolved_round INTEGER,
  deleted INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS review_files (
  session_id TEXT NOT NULL REFERENCES review_sessions(id),
  file_path TEXT NOT NULL,
  change_kind TEXT NOT NULL DEFAULT 'modified',
  added INTEGER NOT NULL DEFAULT 0,
  removed INTEGER NOT NULL DEFAULT 0,
  reviewed INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (session_id, file_path)
);

CREATE INDEX IF NOT EXISTS idx_review_sessions_thread ON review_sessions(thread_id, round);
CREATE INDEX IF NOT EXISTS idx_review_comments_session ON review_comments(session_id);
CREATE INDEX IF NOT EXISTS idx_review_comments_resolved ON review_comments(resolved);
`

// legacyTables are the pre-model tables a version-0 store may contain.
// Migration from 0 drops them unconditionally: version 0 is "no usable
// data", and no recovery is attempted.
var legacyTables = []string{
	"comments",
	"file_review_state",
	"threads",
	"sessions",
}

type DB struct {
	*sql.DB
}

// DefaultDBPath returns the review store path for a repository.
func DefaultDBPath(repoRoot string) string {
	return filepath.Join(config.ProjectDataDir(repoRoot), "reviews.db")
}

// Open opens or creates the store at dbPath and brings the schema to the
// current version. Fails with ErrUnsupportedSchemaVersion if the store was
// written by a newer build.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Open with WAL mode and busy timeout
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	wrapped := &DB{db}

	if err := wrapped.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return wrapped, nil
}

// migrate reads the schema version and brings the store current. The
// destructive drop, table creation, and version bump run in one
// transaction, so a crash mid-migration leaves the old state fully intact —
// the version marker can never disagree with table contents.
func (db *DB) migrate() error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var version int
	err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version > currentSchemaVersion {
		return fmt.Errorf("%w: store has version %d, this build supports %d",
			ErrUnsupportedSchemaVersion, version, currentSchemaVersion)
	}
	if version == currentSchemaVersion {
		return nil
	}

	// version == 0: either a fresh store (drops are no-ops) or a legacy
	// pre-model store whose tables are discarded.
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range legacyTables {
		if _, err := tx.Exec(`DROP TABLE IF EXISTS ` + table); err != nil {
			return fmt.Errorf("drop legacy table %s: %w", table, err)
		}
	}

	if _, err := tx.Exec(schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, currentSchemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

// SchemaVersion returns the persisted schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

// formatTime renders a timestamp for storage. All times are stored UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime reads a stored timestamp, tolerating both RFC3339 and sqlite's
// datetime('now') format for rows written by older builds.
func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
