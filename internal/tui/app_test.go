package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wizardengineer/airev-sub001/internal/git"
	"github.com/wizardengineer/airev-sub001/internal/session"
	"github.com/wizardengineer/airev-sub001/internal/storage"
	"github.com/wizardengineer/airev-sub001/internal/testutil"
)

// stubWorker records requests and lets tests feed responses by hand.
type stubWorker struct {
	requests  []git.DiffRequest
	responses chan git.DiffResponse
}

func newStubWorker() *stubWorker {
	return &stubWorker{responses: make(chan git.DiffResponse, 16)}
}

func (s *stubWorker) Request(req git.DiffRequest)         { s.requests = append(s.requests, req) }
func (s *stubWorker) Responses() <-chan git.DiffResponse { return s.responses }

func newTestModel(t *testing.T) (Model, *stubWorker, *storage.DB) {
	t.Helper()
	db := testutil.OpenTestDB(t)
	mgr := session.NewManager(db)
	sess, err := mgr.StartRound(session.StartRoundOptions{RepoPath: t.TempDir(), Branch: "main"})
	if err != nil {
		t.Fatalf("StartRound failed: %v", err)
	}
	w := newStubWorker()
	return NewModel(w, mgr, sess, git.DiffMode{Kind: git.ModeUnstaged}, 3), w, db
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// update runs one message through the model. Commands returned for key and
// start messages are executed so fire-and-forget requests reach the stub
// worker; commands returned for responses are the blocking channel reads
// and are left unexecuted.
func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	switch msg.(type) {
	case tea.KeyMsg, startMsg:
		if cmd != nil {
			cmd()
		}
	}
	return next.(Model)
}

func TestPanelFocusCycle(t *testing.T) {
	f := FocusFileList
	order := []PanelFocus{FocusDiff, FocusComments, FocusFileList}
	for i, want := range order {
		f = f.Next()
		if f != want {
			t.Errorf("Next %d: expected %d, got %d", i, want, f)
		}
	}
	if back := FocusFileList.Prev(); back != FocusComments {
		t.Errorf("Prev from first: expected comments, got %d", back)
	}
}

func TestModeCycleIssuesRequest(t *testing.T) {
	m, w, _ := newTestModel(t)

	m = update(t, m, keyMsg("m"))
	if m.diffMode.Kind != git.ModeStaged {
		t.Errorf("expected staged after cycle, got %s", m.diffMode)
	}
	if len(w.requests) != 1 {
		t.Fatalf("expected 1 request after mode cycle, got %d", len(w.requests))
	}
	if w.requests[0].Mode.Kind != git.ModeStaged || w.requests[0].Seq != m.reqSeq {
		t.Errorf("request mismatch: %+v (want seq %d)", w.requests[0], m.reqSeq)
	}

	m = update(t, m, keyMsg("M"))
	if m.diffMode.Kind != git.ModeUnstaged {
		t.Errorf("expected unstaged after reverse cycle, got %s", m.diffMode)
	}
	if len(w.requests) != 2 || w.requests[1].Seq != w.requests[0].Seq+1 {
		t.Errorf("sequence numbers not monotonic: %+v", w.requests)
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	m, _, _ := newTestModel(t)

	// Two quick mode switches leave an in-flight query for the old mode.
	m = update(t, m, keyMsg("m"))
	m = update(t, m, keyMsg("m"))
	if m.reqSeq != 2 {
		t.Fatalf("expected seq 2 after two requests, got %d", m.reqSeq)
	}

	stale := git.DiffResponse{
		Seq:    1,
		Mode:   git.DiffMode{Kind: git.ModeStaged},
		Result: &git.DiffResult{Files: []git.FileDiff{{Path: "old.go"}}},
	}
	m = update(t, m, diffResponseMsg(stale))
	if m.result != nil {
		t.Error("stale response was accepted")
	}
	if !m.loading {
		t.Error("stale response cleared the loading flag")
	}

	fresh := git.DiffResponse{
		Seq:    2,
		Mode:   git.DiffMode{Kind: git.ModeBranch},
		Result: &git.DiffResult{Files: []git.FileDiff{{Path: "new.go", Change: git.ChangeModified}}},
	}
	m = update(t, m, diffResponseMsg(fresh))
	if m.result == nil || m.result.Files[0].Path != "new.go" {
		t.Fatalf("current response not accepted: %+v", m.result)
	}
	if m.loading {
		t.Error("loading flag still set after payload landed")
	}
}

func TestDiffResponsePersistsFileSummaries(t *testing.T) {
	m, _, db := newTestModel(t)
	m = update(t, m, keyMsg("r"))

	resp := git.DiffResponse{
		Seq:  m.reqSeq,
		Mode: git.DiffMode{Kind: git.ModeUnstaged},
		Result: &git.DiffResult{Files: []git.FileDiff{
			{Path: "a.go", Change: git.ChangeModified, Added: 4, Removed: 1},
		}},
	}
	m = update(t, m, diffResponseMsg(resp))

	got, err := db.FilesForSession(m.sess.ID)
	if err != nil {
		t.Fatalf("FilesForSession failed: %v", err)
	}
	if len(got) != 1 || got[0].FilePath != "a.go" || got[0].Added != 4 {
		t.Errorf("file summary not persisted: %+v", got)
	}
}

func TestCommentEditorFlow(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = update(t, m, keyMsg("r"))

	resp := git.DiffResponse{
		Seq:  m.reqSeq,
		Mode: git.DiffMode{Kind: git.ModeUnstaged},
		Result: &git.DiffResult{Files: []git.FileDiff{{
			Path: "a.go", Change: git.ChangeModified, Added: 1,
			Hunks: []git.Hunk{{
				Header: "@@ -1,2 +1,3 @@", OldStart: 1, OldLines: 2, NewStart: 1, NewLines: 3,
				Lines: []git.Line{
					{Kind: git.LineContext, Content: "package main", OldLine: 1, NewLine: 1},
					{Kind: git.LineAdded, Content: "func run() {}", NewLine: 2},
					{Kind: git.LineContext, Content: "", OldLine: 2, NewLine: 3},
				},
			}},
		}}},
	}
	m = update(t, m, diffResponseMsg(resp))

	m = update(t, m, keyMsg("c"))
	if m.mode != modeInsert {
		t.Fatal("comment key did not open the editor")
	}

	for _, r := range "looks wrong" {
		m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m = update(t, m, keyMsg("enter"))

	if m.mode != modeNormal {
		t.Fatalf("editor did not close after save (mode %d, err %q)", m.mode, m.editorError)
	}
	if len(m.comments) != 1 {
		t.Fatalf("expected 1 open comment after save, got %d", len(m.comments))
	}
	c := m.comments[0]
	if c.FilePath != "a.go" || c.Body != "looks wrong" {
		t.Errorf("saved comment mismatch: %+v", c)
	}
	if c.Context == "" {
		t.Error("saved comment has no captured context")
	}
}

func TestEditorEscapeCancels(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = update(t, m, keyMsg("r"))
	resp := git.DiffResponse{
		Seq:    m.reqSeq,
		Mode:   git.DiffMode{Kind: git.ModeUnstaged},
		Result: &git.DiffResult{Files: []git.FileDiff{{Path: "a.go"}}},
	}
	m = update(t, m, diffResponseMsg(resp))

	m = update(t, m, keyMsg("c"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	m = update(t, m, keyMsg("esc"))

	if m.mode != modeNormal || m.editorBody != "" {
		t.Errorf("escape did not clear editor: mode=%d body=%q", m.mode, m.editorBody)
	}
	if len(m.comments) != 0 {
		t.Errorf("canceled editor produced a comment")
	}
}

func TestResolveFromCommentsPanel(t *testing.T) {
	m, _, db := newTestModel(t)

	c, err := m.mgr.RecordComment(&storage.ReviewComment{
		SessionID: m.sess.ID, FilePath: "a.go", StartLine: 1, EndLine: 1,
		Body: "note", Type: storage.CommentConcern,
	})
	if err != nil {
		t.Fatalf("RecordComment failed: %v", err)
	}
	m.refreshComments()

	// x is a no-op unless the comments panel has focus.
	m = update(t, m, keyMsg("x"))
	if len(m.comments) != 1 {
		t.Fatal("resolve fired without comments focus")
	}

	m = update(t, m, keyMsg("tab"))
	m = update(t, m, keyMsg("tab"))
	if m.focus != FocusComments {
		t.Fatalf("expected comments focus, got %d", m.focus)
	}
	m = update(t, m, keyMsg("x"))

	if len(m.comments) != 0 {
		t.Errorf("comment still open after resolve: %+v", m.comments)
	}
	got, err := db.GetComment(c.ID)
	if err != nil {
		t.Fatalf("comment lookup failed: %v", err)
	}
	if !got.Resolved || got.ResolvedRound == nil || *got.ResolvedRound != m.sess.Round {
		t.Errorf("comment not resolved in current round: %+v", got)
	}
}

func TestStartupRequestAccepted(t *testing.T) {
	m, w, _ := newTestModel(t)

	// The first request is scheduled by Init but issued through Update so
	// the sequence bump lands on the model the runtime keeps.
	m = update(t, m, startMsg{})
	if len(w.requests) != 1 {
		t.Fatalf("expected the startup request, got %d requests", len(w.requests))
	}
	if m.reqSeq != 1 || w.requests[0].Seq != 1 {
		t.Fatalf("startup sequence mismatch: model=%d request=%d", m.reqSeq, w.requests[0].Seq)
	}
	if !m.loading {
		t.Error("startup request did not set the loading flag")
	}

	resp := git.DiffResponse{
		Seq:    1,
		Mode:   git.DiffMode{Kind: git.ModeUnstaged},
		Result: &git.DiffResult{Files: []git.FileDiff{{Path: "boot.go"}}},
	}
	m = update(t, m, diffResponseMsg(resp))
	if m.result == nil || m.result.Files[0].Path != "boot.go" {
		t.Fatalf("startup response was dropped: %+v", m.result)
	}
	if m.loading {
		t.Error("loading flag still set after the startup payload landed")
	}
}

func TestQuitGuardedByDraft(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = update(t, m, keyMsg("r"))
	resp := git.DiffResponse{
		Seq:    m.reqSeq,
		Mode:   git.DiffMode{Kind: git.ModeUnstaged},
		Result: &git.DiffResult{Files: []git.FileDiff{{Path: "a.go"}}},
	}
	m = update(t, m, diffResponseMsg(resp))

	m = update(t, m, keyMsg("c"))
	for _, r := range "wip" {
		m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m = update(t, m, keyMsg("esc"))
	if m.draft != "wip" {
		t.Fatalf("escape did not stash the draft: %q", m.draft)
	}

	m = update(t, m, keyMsg("q"))
	if m.mode != modeConfirmQuit {
		t.Fatalf("quit with a pending draft skipped confirmation (mode %d)", m.mode)
	}
	m = update(t, m, keyMsg("n"))
	if m.mode != modeNormal {
		t.Fatalf("declining the prompt did not return to normal mode (mode %d)", m.mode)
	}

	// The draft is still there, so quitting again re-prompts; y confirms.
	m = update(t, m, keyMsg("c"))
	if m.editorBody != "wip" {
		t.Fatalf("draft not restored into the editor: %q", m.editorBody)
	}
	m = update(t, m, keyMsg("esc"))
	m = update(t, m, keyMsg("q"))
	next, cmd := m.Update(keyMsg("y"))
	m = next.(Model)
	if cmd == nil {
		t.Fatal("confirming quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("confirming quit did not quit")
	}
}

func TestEditorCtrlCPromptsWhenDirty(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = update(t, m, keyMsg("r"))
	resp := git.DiffResponse{
		Seq:    m.reqSeq,
		Mode:   git.DiffMode{Kind: git.ModeUnstaged},
		Result: &git.DiffResult{Files: []git.FileDiff{{Path: "a.go"}}},
	}
	m = update(t, m, diffResponseMsg(resp))

	m = update(t, m, keyMsg("c"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if m.mode != modeConfirmQuit {
		t.Fatalf("ctrl+c with editor text skipped confirmation (mode %d)", m.mode)
	}
	if m.draft != "x" {
		t.Errorf("editor text not stashed as a draft: %q", m.draft)
	}

	// An empty editor has nothing to lose; ctrl+c quits outright.
	m2, _, _ := newTestModel(t)
	m2 = update(t, m2, keyMsg("r"))
	m2 = update(t, m2, diffResponseMsg(git.DiffResponse{
		Seq:    m2.reqSeq,
		Mode:   git.DiffMode{Kind: git.ModeUnstaged},
		Result: &git.DiffResult{Files: []git.FileDiff{{Path: "a.go"}}},
	}))
	m2 = update(t, m2, keyMsg("c"))
	next, cmd := m2.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m2 = next.(Model)
	if cmd == nil {
		t.Fatal("ctrl+c in an empty editor returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c in an empty editor did not quit")
	}
}

func TestContextRadiusConfigurable(t *testing.T) {
	db := testutil.OpenTestDB(t)
	mgr := session.NewManager(db)
	sess, err := mgr.StartRound(session.StartRoundOptions{RepoPath: t.TempDir(), Branch: "main"})
	if err != nil {
		t.Fatalf("StartRound failed: %v", err)
	}
	w := newStubWorker()
	m := NewModel(w, mgr, sess, git.DiffMode{Kind: git.ModeUnstaged}, 0)

	m = update(t, m, keyMsg("r"))
	resp := git.DiffResponse{
		Seq:  m.reqSeq,
		Mode: git.DiffMode{Kind: git.ModeUnstaged},
		Result: &git.DiffResult{Files: []git.FileDiff{{
			Path: "a.go", Change: git.ChangeModified, Added: 1,
			Hunks: []git.Hunk{{
				Header: "@@ -1,1 +1,2 @@", OldStart: 1, OldLines: 1, NewStart: 1, NewLines: 2,
				Lines: []git.Line{
					{Kind: git.LineContext, Content: "package main", OldLine: 1, NewLine: 1},
					{Kind: git.LineAdded, Content: "var x int", NewLine: 2},
				},
			}},
		}}},
	}
	m = update(t, m, diffResponseMsg(resp))

	m = update(t, m, keyMsg("c"))
	for _, r := range "note" {
		m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m = update(t, m, keyMsg("enter"))

	if len(m.comments) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(m.comments))
	}
	if m.comments[0].Context != "" {
		t.Errorf("radius 0 still captured context: %q", m.comments[0].Context)
	}
}

func TestCursorLineCountsHunkHeaders(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = update(t, m, keyMsg("r"))

	// Two hunks; the rendered rows are: header, 2 lines, header, 2 lines.
	resp := git.DiffResponse{
		Seq:  m.reqSeq,
		Mode: git.DiffMode{Kind: git.ModeUnstaged},
		Result: &git.DiffResult{Files: []git.FileDiff{{
			Path: "a.go", Change: git.ChangeModified, Added: 2,
			Hunks: []git.Hunk{
				{
					Header: "@@ -1,2 +1,2 @@", OldStart: 1, OldLines: 2, NewStart: 1, NewLines: 2,
					Lines: []git.Line{
						{Kind: git.LineContext, Content: "package main", OldLine: 1, NewLine: 1},
						{Kind: git.LineAdded, Content: "var a int", NewLine: 2},
					},
				},
				{
					Header: "@@ -9,2 +10,2 @@", OldStart: 9, OldLines: 2, NewStart: 10, NewLines: 2,
					Lines: []git.Line{
						{Kind: git.LineContext, Content: "func f() {}", OldLine: 9, NewLine: 10},
						{Kind: git.LineAdded, Content: "func g() {}", NewLine: 11},
					},
				},
			},
		}}},
	}
	m = update(t, m, diffResponseMsg(resp))

	// Row 4 is the first line of the second hunk (rows 0 and 3 are headers).
	m.focus = FocusDiff
	m.diffScroll = 4
	m = update(t, m, keyMsg("c"))
	if m.mode != modeInsert {
		t.Fatal("comment key did not open the editor")
	}
	if m.editorLine != 10 {
		t.Errorf("cursor line drifted across hunk headers: got %d, want 10", m.editorLine)
	}
}

func TestHelpOverlayToggles(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = update(t, m, keyMsg("?"))
	if m.mode != modeHelp {
		t.Fatal("? did not open help")
	}
	m = update(t, m, keyMsg("j"))
	if m.mode != modeNormal {
		t.Fatal("any key should dismiss help")
	}
}
