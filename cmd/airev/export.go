package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wizardengineer/airev-sub001/internal/export"
	"github.com/wizardengineer/airev-sub001/internal/git"
	"github.com/wizardengineer/airev-sub001/internal/session"
	"github.com/wizardengineer/airev-sub001/internal/storage"
)

func exportCmd() *cobra.Command {
	var threadID string
	var plain bool

	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Export a thread's unresolved comments for the next round",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runExport(path, threadID, plain)
		},
	}

	cmd.Flags().StringVar(&threadID, "thread", "", "thread to export (default: most recent)")
	cmd.Flags().BoolVar(&plain, "plain", false, "skip terminal rendering, print raw markdown")
	return cmd
}

func runExport(path, threadID string, plain bool) error {
	db, mgr, err := openStore(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if threadID == "" {
		threadID, err = latestThread(db)
		if err != nil {
			return err
		}
	}

	sessions, err := db.SessionsForThread(threadID)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		return fmt.Errorf("thread %s has no sessions", threadID)
	}
	last := sessions[len(sessions)-1]

	comments, err := mgr.OpenCommentsForExport(threadID)
	if err != nil {
		return err
	}

	md := export.Markdown(&export.Thread{
		ThreadID: threadID,
		Round:    last.Round,
		Branch:   last.Branch,
		Comments: comments,
	})

	// Render for humans on a TTY; raw markdown is the agent hand-off format.
	if !plain && term.IsTerminal(int(os.Stdout.Fd())) {
		out, err := glamour.Render(md, "auto")
		if err == nil {
			fmt.Print(out)
			return nil
		}
	}
	fmt.Print(md)
	return nil
}

// openStore resolves the repo at path and opens its review store.
func openStore(path string) (*storage.DB, *session.Manager, error) {
	reader, err := git.Open(path)
	if err != nil {
		return nil, nil, err
	}
	db, err := storage.Open(storage.DefaultDBPath(reader.Root()))
	if err != nil {
		return nil, nil, err
	}
	return db, session.NewManager(db), nil
}

func latestThread(db *storage.DB) (string, error) {
	threads, err := db.ListThreads()
	if err != nil {
		return "", err
	}
	if len(threads) == 0 {
		return "", fmt.Errorf("no review threads found")
	}
	return threads[0].ThreadID, nil
}
