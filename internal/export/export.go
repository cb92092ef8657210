// Package export renders a thread's open comments as markdown for hand-off
// to an external agent. The output is deterministic: comment ordering comes
// from the session manager's export contract, and grouping preserves it.
package export

import (
	"fmt"
	"strings"

	"github.com/wizardengineer/airev-sub001/internal/storage"
)

// Header introduces the exported feedback so the receiving agent knows
// what to do with it.
const Header = `You previously produced the changeset under review. The reviewer left the
following unresolved comments. Address each one, or explain why it should
stay as is. Comments are ordered most severe first.`

// Thread bundles everything the exporter needs about one review thread.
type Thread struct {
	ThreadID string
	Round    int // the round this export hands off from
	Branch   string
	Comments []*storage.ReviewComment // in export order (severity, path, line)
}

// Markdown renders the open comments grouped per file, preserving the
// export order within and across groups.
func Markdown(t *Thread) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Review feedback — round %d\n\n", t.Round))
	if t.Branch != "" {
		sb.WriteString(fmt.Sprintf("Branch: `%s`\n\n", t.Branch))
	}
	sb.WriteString(Header)
	sb.WriteString("\n")

	if len(t.Comments) == 0 {
		sb.WriteString("\nNo open comments. The review is clean.\n")
		return sb.String()
	}

	currentFile := ""
	for _, c := range t.Comments {
		if c.FilePath != currentFile {
			currentFile = c.FilePath
			sb.WriteString(fmt.Sprintf("\n## %s\n", currentFile))
		}
		sb.WriteString(fmt.Sprintf("\n### %s [%s] %s\n\n", severityTag(c.Severity), c.Type, lineRef(c)))
		sb.WriteString(c.Body)
		sb.WriteString("\n")
		if c.Context != "" {
			sb.WriteString("\n```\n")
			sb.WriteString(strings.TrimRight(c.Context, "\n"))
			sb.WriteString("\n```\n")
		}
	}

	return sb.String()
}

func severityTag(s storage.Severity) string {
	return strings.ToUpper(string(s))
}

func lineRef(c *storage.ReviewComment) string {
	if c.StartLine == c.EndLine {
		return fmt.Sprintf("line %d", c.StartLine)
	}
	return fmt.Sprintf("lines %d-%d", c.StartLine, c.EndLine)
}
