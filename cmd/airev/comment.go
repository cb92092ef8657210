package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wizardengineer/airev-sub001/internal/storage"
)

func commentCmd() *cobra.Command {
	var sessionID, ctype, severity string

	cmd := &cobra.Command{
		Use:   "comment <file>:<line>[-<end>] <body...>",
		Short: "Record a comment without opening the review UI",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComment(".", args[0], strings.Join(args[1:], " "), sessionID, ctype, severity)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session to attach to (default: latest round)")
	cmd.Flags().StringVar(&ctype, "type", "concern",
		"question, concern, til, suggestion, praise, or nitpick")
	cmd.Flags().StringVar(&severity, "severity", "", "critical, major, minor, or info")
	return cmd
}

func runComment(path, location, body, sessionID, ctype, severity string) error {
	db, mgr, err := openStore(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if sessionID == "" {
		threadID, err := latestThread(db)
		if err != nil {
			return err
		}
		sessions, err := db.SessionsForThread(threadID)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			return fmt.Errorf("thread %s has no sessions", threadID)
		}
		sessionID = sessions[len(sessions)-1].ID
	}

	file, start, end, err := parseLocation(location)
	if err != nil {
		return err
	}

	c, err := mgr.RecordComment(&storage.ReviewComment{
		SessionID: sessionID,
		FilePath:  file,
		StartLine: start,
		EndLine:   end,
		Body:      body,
		Type:      storage.CommentType(ctype),
		Severity:  storage.Severity(severity),
	})
	if err != nil {
		return err
	}

	fmt.Printf("comment %s on %s:%d\n", c.ID[:8], file, start)
	return nil
}

// parseLocation splits "path/to/file.go:12" or "path/to/file.go:12-20" into
// its parts. The last colon separates file from lines, so paths containing
// colons still parse.
func parseLocation(s string) (file string, start, end int, err error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return "", 0, 0, fmt.Errorf("expected <file>:<line>[-<end>], got %q", s)
	}
	file = s[:i]
	spec := s[i+1:]

	startStr, endStr := spec, spec
	if j := strings.Index(spec, "-"); j >= 0 {
		startStr, endStr = spec[:j], spec[j+1:]
	}
	start, err = strconv.Atoi(startStr)
	if err != nil {
		return "", 0, 0, fmt.Errorf("bad line number %q", startStr)
	}
	end, err = strconv.Atoi(endStr)
	if err != nil {
		return "", 0, 0, fmt.Errorf("bad line number %q", endStr)
	}
	return file, start, end, nil
}
