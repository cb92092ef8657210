package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wizardengineer/airev-sub001/internal/git"
	"github.com/wizardengineer/airev-sub001/internal/storage"
)

func resolveCmd() *cobra.Command {
	var round int

	cmd := &cobra.Command{
		Use:   "resolve <comment-id>",
		Short: "Mark a comment resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, mgr, err := openStore(".")
			if err != nil {
				return err
			}
			defer db.Close()

			r := round
			if r == 0 {
				// Default to the comment's thread's latest round.
				c, err := db.GetComment(args[0])
				if err != nil {
					return err
				}
				s, err := db.GetSession(c.SessionID)
				if err != nil {
					return err
				}
				r, err = db.MaxRoundForThread(s.ThreadID)
				if err != nil {
					return err
				}
			}

			if err := mgr.Resolve(args[0], r); err != nil {
				return err
			}
			fmt.Printf("resolved %s in round %d\n", args[0], r)
			return nil
		},
	}

	cmd.Flags().IntVar(&round, "round", 0, "round the resolution belongs to (default: latest)")
	return cmd
}

func reopenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <comment-id>",
		Short: "Reopen a resolved comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, mgr, err := openStore(".")
			if err != nil {
				return err
			}
			defer db.Close()

			if err := mgr.Reopen(args[0]); err != nil {
				return err
			}
			fmt.Printf("reopened %s\n", args[0])
			return nil
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <comment-id>",
		Short: "Delete a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, mgr, err := openStore(".")
			if err != nil {
				return err
			}
			defer db.Close()

			if err := mgr.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}

func closeCmd() *cobra.Command {
	var outcome string
	var difficulty, confidence string

	cmd := &cobra.Command{
		Use:   "close <session-id>",
		Short: "Close a review round with an outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, mgr, err := openStore(".")
			if err != nil {
				return err
			}
			defer db.Close()

			sess, err := db.GetSession(args[0])
			if err != nil {
				return err
			}

			endRef, _ := git.ResolveSHA(sess.RepoPath, "HEAD")
			if err := mgr.CloseRound(args[0], storage.Outcome(outcome), endRef); err != nil {
				return err
			}

			d, err := parseRating(difficulty)
			if err != nil {
				return err
			}
			c, err := parseRating(confidence)
			if err != nil {
				return err
			}
			if d != nil || c != nil {
				if err := mgr.RateRound(args[0], d, c); err != nil {
					return err
				}
			}

			fmt.Printf("closed round %d: %s\n", sess.Round, outcome)
			return nil
		},
	}

	cmd.Flags().StringVar(&outcome, "outcome", "changes_requested",
		"accepted, rejected, changes_requested, or pending")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "difficulty rating 1-5")
	cmd.Flags().StringVar(&confidence, "confidence", "", "confidence rating 1-5")
	return cmd
}

func parseRating(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("rating must be a number 1-5: %q", s)
	}
	return &n, nil
}
