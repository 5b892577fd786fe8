package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/tagrid"
	"github.com/aretw0/tagrid/internal/printer"
	"github.com/aretw0/tagrid/pkg/adapters/fs"
	"github.com/aretw0/tagrid/pkg/adapters/sqlite"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past saves of the board",
	Long: `List past saves of the board, newest first. The fs adapter reads the git
log of the snapshot file; the sqlite adapter keeps a save log.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, readOnlyView())
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		switch repo := s.repo.(type) {
		case *fs.Repository:
			revs, err := repo.History(ctx, historyLimit)
			if err != nil {
				return printer.Error("History unavailable", err.Error(),
					[]string{"Initialize the board with --versioning=true to keep history."})
			}
			for _, r := range revs {
				printer.Info("%s  %s  %s\n", shortID(r.Hash), r.Time.Format(time.DateTime), r.Message)
			}
		case *sqlite.Repository:
			saves, err := repo.History(ctx, historyLimit)
			if err != nil {
				return err
			}
			for _, r := range saves {
				printer.Info("%s  %s\n", r.Time.Format(time.DateTime), r.Reason)
			}
		default:
			return printer.Error("History unavailable",
				"This storage adapter does not keep history.",
				[]string{"Use the fs adapter with git versioning.", "Use the sqlite adapter."})
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <revision>",
	Short: "Render the board as it was at a git revision (fs adapter)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := boardConfig()
		if err != nil {
			return err
		}
		s, err := openSession(cmd, readOnlyView())
		if err != nil {
			return err
		}
		defer s.Close()

		repo, ok := s.repo.(*fs.Repository)
		if !ok {
			return printer.Error("History unavailable", "Only the fs adapter can load past revisions.", nil)
		}
		snap, err := repo.LoadRevision(context.Background(), args[0])
		if err != nil {
			return err
		}

		b := tagrid.NewBoard(commonOptions(cfg)...)
		if err := b.Load(*snap); err != nil {
			return err
		}
		g, err := buildGrid(b, false, false)
		if err != nil {
			return err
		}
		g.Render()
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of entries")
}
