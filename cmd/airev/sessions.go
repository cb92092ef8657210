package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func sessionsCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "sessions [path]",
		Short: "List review threads and their rounds",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runSessions(path, all)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "show every round, not just thread summaries")
	return cmd
}

func runSessions(path string, all bool) error {
	db, _, err := openStore(path)
	if err != nil {
		return err
	}
	defer db.Close()

	threads, err := db.ListThreads()
	if err != nil {
		return err
	}
	if len(threads) == 0 {
		fmt.Println("no review threads")
		return nil
	}

	for _, t := range threads {
		branch := t.Branch
		if branch == "" {
			branch = "-"
		}
		fmt.Printf("%s  %s  rounds=%d  open=%d  last=%s  started=%s\n",
			t.ThreadID, branch, t.Rounds, t.OpenComments, t.LastOutcome,
			t.StartedAt.Format("2006-01-02 15:04"))

		if !all {
			continue
		}
		sessions, err := db.SessionsForThread(t.ThreadID)
		if err != nil {
			return err
		}
		for _, s := range sessions {
			elapsed := ""
			if s.ElapsedSecs > 0 {
				elapsed = fmt.Sprintf("  %dm%ds", s.ElapsedSecs/60, s.ElapsedSecs%60)
			}
			fmt.Printf("  round %d  %s  %s%s\n", s.Round, s.ID, s.Outcome, elapsed)
		}
	}
	return nil
}
