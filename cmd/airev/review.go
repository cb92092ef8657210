package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wizardengineer/airev-sub001/internal/config"
	"github.com/wizardengineer/airev-sub001/internal/git"
	"github.com/wizardengineer/airev-sub001/internal/logutil"
	"github.com/wizardengineer/airev-sub001/internal/session"
	"github.com/wizardengineer/airev-sub001/internal/storage"
	"github.com/wizardengineer/airev-sub001/internal/tui"
)

func reviewCmd() *cobra.Command {
	var threadID string

	cmd := &cobra.Command{
		Use:   "review [path]",
		Short: "Start or resume an interactive review round",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runReview(path, threadID)
		},
	}

	cmd.Flags().StringVar(&threadID, "thread", "", "resume an existing review thread")
	return cmd
}

func runReview(path, threadID string) error {
	// RepositoryNotFound is fatal at startup, before the terminal enters
	// interactive mode; afterwards everything goes to the log file.
	reader, err := git.Open(path)
	if err != nil {
		return err
	}
	root := reader.Root()

	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger, closeLog, err := logutil.New(level, config.LogPath(root))
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer closeLog()
	log.Logger = logger

	db, err := storage.Open(storage.DefaultDBPath(root))
	if err != nil {
		return err
	}
	defer db.Close()

	mgr := session.NewManager(db)

	startRef, _ := git.ResolveSHA(root, "HEAD")
	sess, err := mgr.StartRound(session.StartRoundOptions{
		ThreadID: threadID,
		RepoPath: root,
		Branch:   git.CurrentBranch(root),
		StartRef: startRef,
		Agent:    cfg.Agent,
		Model:    cfg.Model,
	})
	if err != nil {
		return fmt.Errorf("start round: %w", err)
	}

	// Carry forward the thread's unresolved comments into this round.
	open, err := mgr.OpenComments(sess.ThreadID)
	if err != nil {
		return fmt.Errorf("load open comments: %w", err)
	}

	worker := git.NewWorker(reader)
	defer worker.Close()

	model := tui.NewModel(worker, mgr, sess, git.DiffMode{Kind: git.ModeUnstaged, Base: cfg.BaseBranch}, cfg.ContextLines)
	model.SetComments(open)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}

	fmt.Printf("round %d of thread %s — close it with: airev close %s --outcome <outcome>\n",
		sess.Round, sess.ThreadID, sess.ID)
	return nil
}
