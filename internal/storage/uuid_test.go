package storage

import (
	"regexp"
	"testing"
	"time"
)

var idPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestGenerateIDFormat(t *testing.T) {
	id := GenerateID()
	if !idPattern.MatchString(id) {
		t.Errorf("ID %q does not match UUIDv7 shape", id)
	}
}

func TestGenerateIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateID()
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestGenerateIDSortsByTime(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	earlier := generateIDAt(base)
	later := generateIDAt(base.Add(time.Second))

	if !(earlier < later) {
		t.Errorf("IDs not time-ordered: %s !< %s", earlier, later)
	}
}
