package storage

import "testing"

func TestUpsertFileSummary(t *testing.T) {
	db := openTestDB(t)
	sess := seedSession(t, db)

	f := &ReviewFile{SessionID: sess.ID, FilePath: "a.go", ChangeKind: "added", Added: 10}
	if err := db.UpsertFileSummary(f); err != nil {
		t.Fatalf("UpsertFileSummary failed: %v", err)
	}

	if err := db.SetFileReviewed(sess.ID, "a.go", true); err != nil {
		t.Fatalf("SetFileReviewed failed: %v", err)
	}

	// Refreshing counts must not clear the reviewed flag.
	f.ChangeKind = "modified"
	f.Added = 12
	f.Removed = 3
	if err := db.UpsertFileSummary(f); err != nil {
		t.Fatalf("second UpsertFileSummary failed: %v", err)
	}

	files, err := db.FilesForSession(sess.ID)
	if err != nil {
		t.Fatalf("FilesForSession failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file row, got %d", len(files))
	}
	got := files[0]
	if got.ChangeKind != "modified" || got.Added != 12 || got.Removed != 3 {
		t.Errorf("counts not refreshed: %+v", got)
	}
	if !got.Reviewed {
		t.Error("reviewed flag lost on upsert")
	}
}

func TestFilesForSessionPathOrder(t *testing.T) {
	db := openTestDB(t)
	sess := seedSession(t, db)

	for _, path := range []string{"z.go", "a.go", "m.go"} {
		f := &ReviewFile{SessionID: sess.ID, FilePath: path, ChangeKind: "modified"}
		if err := db.UpsertFileSummary(f); err != nil {
			t.Fatalf("UpsertFileSummary failed: %v", err)
		}
	}

	files, err := db.FilesForSession(sess.ID)
	if err != nil {
		t.Fatalf("FilesForSession failed: %v", err)
	}
	want := []string{"a.go", "m.go", "z.go"}
	for i, w := range want {
		if files[i].FilePath != w {
			t.Errorf("position %d: expected %s, got %s", i, w, files[i].FilePath)
		}
	}
}
