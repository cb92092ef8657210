package git

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// parseUnified converts raw `git diff` output into a DiffResult. Line
// numbers are tracked per hunk: context lines advance both counters, added
// lines only the new counter, removed lines only the old one.
func parseUnified(raw string) (*DiffResult, error) {
	if strings.TrimSpace(raw) == "" {
		return &DiffResult{}, nil
	}

	files, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}

	result := &DiffResult{}
	for _, f := range files {
		result.Files = append(result.Files, convertFile(f))
	}
	return result, nil
}

func convertFile(f *gitdiff.File) FileDiff {
	fd := FileDiff{
		Path:    f.NewName,
		OldPath: f.OldName,
		Change:  ChangeModified,
		Binary:  f.IsBinary,
	}
	switch {
	case f.IsNew:
		fd.Change = ChangeAdded
	case f.IsDelete:
		fd.Change = ChangeRemoved
		fd.Path = f.OldName
	case f.IsRename:
		fd.Change = ChangeRenamed
	}

	for _, frag := range f.TextFragments {
		hunk := Hunk{
			Header:   fragmentHeader(frag),
			OldStart: frag.OldPosition,
			OldLines: frag.OldLines,
			NewStart: frag.NewPosition,
			NewLines: frag.NewLines,
		}

		oldLine := frag.OldPosition
		newLine := frag.NewPosition
		for _, l := range frag.Lines {
			line := Line{Content: strings.TrimSuffix(l.Line, "\n")}
			switch l.Op {
			case gitdiff.OpAdd:
				line.Kind = LineAdded
				line.NewLine = newLine
				newLine++
				fd.Added++
			case gitdiff.OpDelete:
				line.Kind = LineRemoved
				line.OldLine = oldLine
				oldLine++
				fd.Removed++
			default:
				line.Kind = LineContext
				line.OldLine = oldLine
				line.NewLine = newLine
				oldLine++
				newLine++
			}
			hunk.Lines = append(hunk.Lines, line)
		}
		fd.Hunks = append(fd.Hunks, hunk)
	}

	return fd
}

// fragmentHeader rebuilds the `@@ -a,b +c,d @@` header string for display
// and context capture.
func fragmentHeader(frag *gitdiff.TextFragment) string {
	var sb strings.Builder
	sb.WriteString("@@ -")
	sb.WriteString(formatRange(frag.OldPosition, frag.OldLines))
	sb.WriteString(" +")
	sb.WriteString(formatRange(frag.NewPosition, frag.NewLines))
	sb.WriteString(" @@")
	if frag.Comment != "" {
		sb.WriteString(" ")
		sb.WriteString(frag.Comment)
	}
	return sb.String()
}

func formatRange(pos, length int64) string {
	if length == 1 {
		return strconv.FormatInt(pos, 10)
	}
	return strconv.FormatInt(pos, 10) + "," + strconv.FormatInt(length, 10)
}
