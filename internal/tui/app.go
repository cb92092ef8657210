// Package tui holds the interactive application model. It is a single
// cooperatively-scheduled loop: keystrokes, resizes, and diff-worker
// responses all arrive as messages, and the model never performs VCS I/O
// itself — it fires requests at the worker and keeps handling input.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/wizardengineer/airev-sub001/internal/git"
	"github.com/wizardengineer/airev-sub001/internal/session"
	"github.com/wizardengineer/airev-sub001/internal/storage"
)

// appMode selects which keybinding set is active.
type appMode int

const (
	modeNormal appMode = iota
	modeInsert         // comment editor open
	modeHelp
	modeConfirmQuit
)

// PanelFocus identifies which panel receives navigation keys.
type PanelFocus int

const (
	FocusFileList PanelFocus = iota
	FocusDiff
	FocusComments
)

// Next cycles FileList → Diff → Comments → FileList.
func (f PanelFocus) Next() PanelFocus {
	return (f + 1) % 3
}

// Prev cycles in the reverse direction.
func (f PanelFocus) Prev() PanelFocus {
	return (f + 2) % 3
}

// diffWorker is the slice of git.Worker the model needs; tests substitute
// a scripted implementation.
type diffWorker interface {
	Request(git.DiffRequest)
	Responses() <-chan git.DiffResponse
}

// diffResponseMsg wraps a worker response for the bubbletea loop.
type diffResponseMsg git.DiffResponse

// workerClosedMsg signals the worker response channel closed (shutdown).
type workerClosedMsg struct{}

// startMsg triggers the first diff request. Issued from Init but processed
// in Update: bubbletea keeps the model returned by Update, not the value
// Init ran on, so the request's sequence bump must happen there or the
// first response arrives looking stale.
type startMsg struct{}

// Model is all mutable interactive state.
type Model struct {
	worker diffWorker
	mgr    *session.Manager
	sess   *storage.ReviewSession

	mode  appMode
	focus PanelFocus

	// Diff request/response correlation. reqSeq is the last issued
	// sequence; a response for an older sequence whose mode differs from
	// the current one is stale and dropped.
	diffMode git.DiffMode
	reqSeq   uint64
	loading  bool

	// Last accepted payload.
	result       *git.DiffResult
	selectedFile int

	// Open comments for the thread, refreshed after each mutation.
	comments []*storage.ReviewComment

	// Comment editor state (modeInsert). draft survives leaving the editor
	// so an unsaved comment still guards quitting.
	editorBody  string
	editorLine  int
	editorError string
	draft       string

	// Lines of surrounding code captured with each comment.
	contextLines int

	// Scroll offsets; viewport math itself lives in the render layer.
	diffScroll     int
	commentsScroll int

	width  int
	height int

	status string
	err    error
}

// NewModel wires the model to a started worker and an open session.
// contextLines is the capture radius around each comment.
func NewModel(w diffWorker, mgr *session.Manager, sess *storage.ReviewSession, initial git.DiffMode, contextLines int) Model {
	return Model{
		worker:       w,
		mgr:          mgr,
		sess:         sess,
		diffMode:     initial,
		contextLines: contextLines,
	}
}

// Init starts listening for responses and schedules the first diff request.
func (m Model) Init() tea.Cmd {
	return tea.Batch(func() tea.Msg { return startMsg{} }, m.waitForResponse())
}

// requestDiff issues a fire-and-forget query for the current mode.
func (m *Model) requestDiff() tea.Cmd {
	m.reqSeq++
	m.loading = true
	req := git.DiffRequest{Seq: m.reqSeq, Mode: m.diffMode}
	w := m.worker
	return func() tea.Msg {
		w.Request(req)
		return nil
	}
}

// waitForResponse blocks (in its own goroutine, courtesy of bubbletea) on
// the worker's response channel and forwards the next payload.
func (m Model) waitForResponse() tea.Cmd {
	ch := m.worker.Responses()
	return func() tea.Msg {
		resp, ok := <-ch
		if !ok {
			return workerClosedMsg{}
		}
		return diffResponseMsg(resp)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case startMsg:
		return m, m.requestDiff()

	case diffResponseMsg:
		return m.handleDiffResponse(msg)

	case workerClosedMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		switch m.mode {
		case modeInsert:
			return m.handleEditorKey(msg)
		case modeHelp:
			m.mode = modeNormal
			return m, nil
		case modeConfirmQuit:
			return m.handleConfirmQuitKey(msg)
		default:
			return m.handleNormalKey(msg)
		}
	}
	return m, nil
}

// handleDiffResponse merges a worker payload into state, unless it is
// stale: an older response for a mode the user has already left is
// discarded, because the worker never cancels in-flight work.
func (m Model) handleDiffResponse(msg diffResponseMsg) (tea.Model, tea.Cmd) {
	if msg.Seq != m.reqSeq {
		log.Debug().Uint64("seq", msg.Seq).Uint64("want", m.reqSeq).
			Str("mode", msg.Mode.String()).Msg("discarding stale diff response")
		return m, m.waitForResponse()
	}

	m.loading = false
	m.result = msg.Result
	if m.selectedFile >= len(msg.Result.Files) {
		m.selectedFile = 0
	}
	m.diffScroll = 0
	m.status = fmt.Sprintf("%s: %d files +%d -%d",
		msg.Mode, len(msg.Result.Files), msg.Result.TotalAdded(), msg.Result.TotalRemoved())

	// Persist the round's file panel state.
	if err := m.mgr.RecordFileSummaries(m.sess.ID, msg.Result); err != nil {
		log.Error().Err(err).Msg("record file summaries")
	}

	return m, m.waitForResponse()
}

func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.draft != "" {
			m.mode = modeConfirmQuit
			return m, nil
		}
		return m, tea.Quit

	case "?":
		m.mode = modeHelp
		return m, nil

	case "tab":
		m.focus = m.focus.Next()
		return m, nil
	case "shift+tab":
		m.focus = m.focus.Prev()
		return m, nil

	case "m":
		m.diffMode = m.diffMode.Next()
		return m, m.requestDiff()
	case "M":
		m.diffMode = m.diffMode.Prev()
		return m, m.requestDiff()
	case "r":
		return m, m.requestDiff()

	case "j", "down":
		m.moveDown(1)
		return m, nil
	case "k", "up":
		m.moveUp(1)
		return m, nil
	case "g":
		m.scrollTop()
		return m, nil
	case "G":
		m.scrollBottom()
		return m, nil

	case "c":
		if m.currentFile() != nil {
			m.mode = modeInsert
			m.editorBody = m.draft // resume an abandoned draft
			m.editorLine = m.cursorLine()
			m.editorError = ""
		}
		return m, nil

	case "x":
		return m.resolveSelected()
	}
	return m, nil
}

func (m Model) handleConfirmQuitKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		return m, tea.Quit
	default:
		m.mode = modeNormal
		return m, nil
	}
}

// handleEditorKey is a deliberately small line editor: enter saves, esc
// stashes the text as a draft, everything printable appends.
func (m Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeNormal
		m.draft = m.editorBody
		m.editorBody = ""
		if m.draft != "" {
			m.status = "draft kept — c to resume"
		}
		return m, nil

	case tea.KeyCtrlC:
		if strings.TrimSpace(m.editorBody) != "" {
			m.draft = m.editorBody
			m.editorBody = ""
			m.mode = modeConfirmQuit
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		return m.saveComment()

	case tea.KeyBackspace:
		if len(m.editorBody) > 0 {
			m.editorBody = m.editorBody[:len(m.editorBody)-1]
		}
		return m, nil

	case tea.KeyRunes, tea.KeySpace:
		m.editorBody += string(msg.Runes)
		if msg.Type == tea.KeySpace {
			m.editorBody += " "
		}
		return m, nil
	}
	return m, nil
}

// saveComment records the editor contents as a new comment on the selected
// file at the cursor line. InvalidRange cannot happen from this path (the
// range is a single line), but validation failures surface on the status
// line rather than the terminal stream.
func (m Model) saveComment() (tea.Model, tea.Cmd) {
	file := m.currentFile()
	if file == nil || strings.TrimSpace(m.editorBody) == "" {
		m.mode = modeNormal
		m.editorBody = ""
		m.draft = ""
		return m, nil
	}

	c := &storage.ReviewComment{
		SessionID: m.sess.ID,
		FilePath:  file.Path,
		StartLine: m.editorLine,
		EndLine:   m.editorLine,
		Body:      m.editorBody,
		Type:      storage.CommentConcern,
		Context:   contextAround(file, m.editorLine, m.contextLines),
	}
	if _, err := m.mgr.RecordComment(c); err != nil {
		m.editorError = err.Error()
		return m, nil
	}

	m.mode = modeNormal
	m.editorBody = ""
	m.draft = ""
	m.status = fmt.Sprintf("comment saved on %s:%d", file.Path, m.editorLine)
	m.refreshComments()
	return m, nil
}

// resolveSelected marks the comment under the cursor resolved in this round.
func (m Model) resolveSelected() (tea.Model, tea.Cmd) {
	if m.focus != FocusComments || m.commentsScroll >= len(m.comments) {
		return m, nil
	}
	c := m.comments[m.commentsScroll]
	if err := m.mgr.Resolve(c.ID, m.sess.Round); err != nil {
		m.status = "resolve failed: " + err.Error()
		return m, nil
	}
	m.status = "resolved " + c.ID[:8]
	m.refreshComments()
	return m, nil
}

func (m *Model) refreshComments() {
	comments, err := m.mgr.OpenComments(m.sess.ThreadID)
	if err != nil {
		log.Error().Err(err).Msg("load open comments")
		return
	}
	m.comments = comments
	if m.commentsScroll >= len(comments) {
		m.commentsScroll = 0
	}
}

// SetComments seeds the open-comment panel (used at startup with the
// thread's carry-forward set).
func (m *Model) SetComments(comments []*storage.ReviewComment) {
	m.comments = comments
}

func (m *Model) moveDown(n int) {
	switch m.focus {
	case FocusFileList:
		if m.result != nil && m.selectedFile+n < len(m.result.Files) {
			m.selectedFile += n
			m.diffScroll = 0
		}
	case FocusDiff:
		m.diffScroll += n
	case FocusComments:
		if m.commentsScroll+n < len(m.comments) {
			m.commentsScroll += n
		}
	}
}

func (m *Model) moveUp(n int) {
	switch m.focus {
	case FocusFileList:
		if m.selectedFile >= n {
			m.selectedFile -= n
			m.diffScroll = 0
		}
	case FocusDiff:
		if m.diffScroll >= n {
			m.diffScroll -= n
		} else {
			m.diffScroll = 0
		}
	case FocusComments:
		if m.commentsScroll >= n {
			m.commentsScroll -= n
		} else {
			m.commentsScroll = 0
		}
	}
}

func (m *Model) scrollTop() {
	switch m.focus {
	case FocusFileList:
		m.selectedFile = 0
	case FocusDiff:
		m.diffScroll = 0
	case FocusComments:
		m.commentsScroll = 0
	}
}

func (m *Model) scrollBottom() {
	switch m.focus {
	case FocusFileList:
		if m.result != nil && len(m.result.Files) > 0 {
			m.selectedFile = len(m.result.Files) - 1
		}
	case FocusComments:
		if len(m.comments) > 0 {
			m.commentsScroll = len(m.comments) - 1
		}
	}
}

// currentFile returns the file under the cursor, or nil with no payload.
func (m *Model) currentFile() *git.FileDiff {
	if m.result == nil || m.selectedFile >= len(m.result.Files) {
		return nil
	}
	return &m.result.Files[m.selectedFile]
}

// cursorLine maps the diff scroll position to a new-file line number for
// comment placement. The row count mirrors renderDiff exactly: one row per
// hunk header, then one per line. Falls back to the first changed line.
func (m *Model) cursorLine() int {
	file := m.currentFile()
	if file == nil {
		return 1
	}
	idx := 0
	for _, h := range file.Hunks {
		idx++ // header row
		for _, l := range h.Lines {
			if idx == m.diffScroll && l.NewLine > 0 {
				return int(l.NewLine)
			}
			idx++
		}
	}
	for _, h := range file.Hunks {
		for _, l := range h.Lines {
			if l.Kind == git.LineAdded {
				return int(l.NewLine)
			}
		}
	}
	return 1
}

// contextAround captures the hunk lines within radius of a new-file line so
// the comment stays meaningful after the working tree moves on. A radius of
// zero captures nothing.
func contextAround(file *git.FileDiff, line, radius int) string {
	if radius <= 0 {
		return ""
	}
	var sb strings.Builder
	for _, h := range file.Hunks {
		for _, l := range h.Lines {
			target := l.NewLine
			if target == 0 {
				target = l.OldLine
			}
			if target >= int64(line-radius) && target <= int64(line+radius) {
				sb.WriteString(l.Content)
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}
