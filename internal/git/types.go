package git

import "fmt"

// ModeKind identifies which comparison a diff query performs.
type ModeKind int

const (
	// ModeUnstaged compares the working tree against the index (git diff).
	ModeUnstaged ModeKind = iota
	// ModeStaged compares the index against HEAD (git diff --cached).
	ModeStaged
	// ModeBranch compares a base ref against HEAD.
	ModeBranch
	// ModeRange compares two explicit refs.
	ModeRange

	modeCount
)

// DiffMode is a pure request description: which comparison to run and the
// refs it needs. It carries no mutable state.
type DiffMode struct {
	Kind ModeKind
	Base string // comparison base for ModeBranch (empty means default branch)
	From string // range start for ModeRange
	To   string // range end for ModeRange
}

// Next returns the mode that follows in the cycle, wrapping after the last
// kind. Refs carried by the current mode are preserved so cycling back
// restores the same comparison.
func (m DiffMode) Next() DiffMode {
	m.Kind = (m.Kind + 1) % modeCount
	return m
}

// Prev returns the mode that precedes in the cycle, wrapping before the first.
func (m DiffMode) Prev() DiffMode {
	m.Kind = (m.Kind + modeCount - 1) % modeCount
	return m
}

func (m DiffMode) String() string {
	switch m.Kind {
	case ModeUnstaged:
		return "unstaged"
	case ModeStaged:
		return "staged"
	case ModeBranch:
		if m.Base == "" {
			return "branch"
		}
		return "branch:" + m.Base
	case ModeRange:
		if m.From == "" && m.To == "" {
			return "range"
		}
		return fmt.Sprintf("range:%s..%s", m.From, m.To)
	}
	return "unknown"
}

// ChangeKind classifies how a file changed within one diff.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeModified ChangeKind = "modified"
	ChangeRenamed  ChangeKind = "renamed"
)

// LineKind tags one line within a hunk.
type LineKind int

const (
	LineContext LineKind = iota
	LineAdded
	LineRemoved
)

// Line is a single diff line with its position in the old and new file.
// OldLine is 0 for added lines; NewLine is 0 for removed lines.
type Line struct {
	Kind    LineKind
	Content string
	OldLine int64
	NewLine int64
}

// Hunk is one contiguous block of changed and context lines.
type Hunk struct {
	Header   string
	OldStart int64
	OldLines int64
	NewStart int64
	NewLines int64
	Lines    []Line
}

// FileDiff holds everything one diff query produced for a single file.
type FileDiff struct {
	Path    string
	OldPath string // differs from Path only for renames
	Change  ChangeKind
	Added   int
	Removed int
	Binary  bool
	Hunks   []Hunk
}

// DiffResult is the payload of one diff query. A failed or inapplicable
// query yields the well-formed empty result (zero files) — callers cannot
// distinguish "nothing changed" from "query failed" at this layer.
type DiffResult struct {
	Mode  DiffMode
	Files []FileDiff
}

// Empty reports whether the result contains no files.
func (r *DiffResult) Empty() bool {
	return len(r.Files) == 0
}

// TotalAdded returns the added-line count summed over all files.
func (r *DiffResult) TotalAdded() int {
	n := 0
	for _, f := range r.Files {
		n += f.Added
	}
	return n
}

// TotalRemoved returns the removed-line count summed over all files.
func (r *DiffResult) TotalRemoved() int {
	n := 0
	for _, f := range r.Files {
		n += f.Removed
	}
	return n
}
