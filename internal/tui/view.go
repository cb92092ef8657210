package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/wizardengineer/airev-sub001/internal/git"
)

// Styles use AdaptiveColor for light/dark terminal support, matching the
// rest of the charm-based surface.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "125", Dark: "205"})

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "242", Dark: "246"})

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "127", Dark: "212"})

	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "46"})
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "124", Dark: "196"})
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "30", Dark: "51"})

	severityStyles = map[string]lipgloss.Style{
		"critical": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "124", Dark: "196"}),
		"major":    lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "166", Dark: "208"}),
		"minor":    lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "136", Dark: "226"}),
		"info":     lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "242", Dark: "246"}),
	}

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "242", Dark: "246"})
)

const helpText = `  q       quit
  ?       toggle this help
  tab     cycle panel focus
  m / M   cycle diff mode forward / back
  r       re-run current diff
  j / k   move down / up
  g / G   jump to top / bottom
  c       comment on current line
  x       resolve selected comment (comments panel)

press any key to close`

func (m Model) View() string {
	if m.mode == modeHelp {
		return titleStyle.Render("airev — keys") + "\n\n" + helpStyle.Render(helpText)
	}
	if m.mode == modeConfirmQuit {
		return "unsaved comment — really quit? (y/N)"
	}

	var sb strings.Builder
	sb.WriteString(m.renderTitle())
	sb.WriteString("\n")
	sb.WriteString(m.renderFiles())
	sb.WriteString("\n")
	sb.WriteString(m.renderDiff())
	sb.WriteString("\n")
	sb.WriteString(m.renderComments())
	sb.WriteString("\n")
	if m.mode == modeInsert {
		sb.WriteString(m.renderEditor())
		sb.WriteString("\n")
	}
	sb.WriteString(m.renderStatus())
	return sb.String()
}

func (m Model) renderTitle() string {
	mode := m.diffMode.String()
	if m.loading {
		mode += " …"
	}
	return titleStyle.Render(fmt.Sprintf("airev  round %d  [%s]", m.sess.Round, mode))
}

func (m Model) renderFiles() string {
	if m.result == nil || len(m.result.Files) == 0 {
		return statusStyle.Render("  (no changes)")
	}

	var sb strings.Builder
	for i, f := range m.result.Files {
		marker := "  "
		if i == m.selectedFile {
			marker = "> "
		}
		line := fmt.Sprintf("%s%s %s +%d -%d", marker, changeChar(f.Change), f.Path, f.Added, f.Removed)
		line = runewidth.Truncate(line, maxWidth(m.width), "…")
		if i == m.selectedFile && m.focus == FocusFileList {
			line = selectedStyle.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m Model) renderDiff() string {
	file := m.currentFile()
	if file == nil {
		return ""
	}
	if file.Binary {
		return statusStyle.Render("  binary file")
	}

	var rows []string
	for _, h := range file.Hunks {
		rows = append(rows, hunkStyle.Render(h.Header))
		for _, l := range h.Lines {
			switch l.Kind {
			case git.LineAdded:
				rows = append(rows, addedStyle.Render("+"+l.Content))
			case git.LineRemoved:
				rows = append(rows, removedStyle.Render("-"+l.Content))
			default:
				rows = append(rows, " "+l.Content)
			}
		}
	}

	start := m.diffScroll
	if start >= len(rows) {
		start = len(rows) - 1
	}
	if start < 0 {
		start = 0
	}
	return strings.Join(rows[start:], "\n")
}

func (m Model) renderComments() string {
	if len(m.comments) == 0 {
		return statusStyle.Render("  no open comments")
	}

	var sb strings.Builder
	for i, c := range m.comments {
		marker := "  "
		if i == m.commentsScroll && m.focus == FocusComments {
			marker = "> "
		}
		sev := severityStyles[string(c.Severity)].Render(strings.ToUpper(string(c.Severity)))
		line := fmt.Sprintf("%s%s %s:%d %s", marker, sev, c.FilePath, c.StartLine, c.Body)
		sb.WriteString(runewidth.Truncate(line, maxWidth(m.width), "…"))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m Model) renderEditor() string {
	file := m.currentFile()
	path := ""
	if file != nil {
		path = file.Path
	}
	out := fmt.Sprintf("comment %s:%d> %s█", path, m.editorLine, m.editorBody)
	if m.editorError != "" {
		out += "\n" + removedStyle.Render(m.editorError)
	}
	return out
}

func (m Model) renderStatus() string {
	s := m.status
	if s == "" {
		s = "? for help"
	}
	return statusStyle.Render(runewidth.Truncate(s, maxWidth(m.width), "…"))
}

func changeChar(k git.ChangeKind) string {
	switch k {
	case git.ChangeAdded:
		return "A"
	case git.ChangeRemoved:
		return "D"
	case git.ChangeRenamed:
		return "R"
	}
	return "M"
}

func maxWidth(w int) int {
	if w <= 0 {
		return 80
	}
	return w
}
