package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tagrid/internal/printer"
	"github.com/aretw0/tagrid/pkg/core"
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Create, edit and remove notes",
}

var noteAddCmd = &cobra.Command{
	Use:   "add <row,col> <text>",
	Short: "Add a note at the end of a cell",
	Long: `Add a note at the end of a cell. The note gets the cell's tags appended,
plus any #tags written in the text.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cell, err := parseCell(args[0])
		if err != nil {
			return err
		}
		text := strings.Join(args[1:], " ")

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		var n core.Note
		err = s.update("add note at "+cell.String(), func(b *core.Board) error {
			// Same sequence as double-clicking the cell and typing.
			created, err := b.DoubleClickCell(cell)
			if err != nil {
				return err
			}
			target := core.NoteEdit(created.ID)
			if err := b.TextChanged(target, core.AppendTags(text, created.Tags())); err != nil {
				return err
			}
			if err := b.Blur(target); err != nil {
				return err
			}
			var ok bool
			if n, ok = b.Note(created.ID); !ok {
				return fmt.Errorf("note text is empty")
			}
			return nil
		})
		if err != nil {
			return err
		}
		printer.Success("Added note %s: %s\n", shortID(n.ID), n.Text)
		return nil
	},
}

var noteEditCmd = &cobra.Command{
	Use:   "edit <id> <text>",
	Short: "Replace the text of a note (tags included); empty text deletes it",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args[1:], " ")

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		var (
			id      string
			removed bool
		)
		err = s.update("edit note", func(b *core.Board) error {
			var err error
			if id, err = noteID(b, args[0]); err != nil {
				return err
			}
			target := core.NoteEdit(id)
			if err := b.TextChanged(target, text); err != nil {
				return err
			}
			if err := b.Blur(target); err != nil {
				return err
			}
			_, exists := b.Note(id)
			removed = !exists
			return nil
		})
		if err != nil {
			return err
		}
		if removed {
			printer.Warning("Note %s had no text left and was removed\n", shortID(id))
			return nil
		}
		printer.Success("Updated note %s\n", shortID(id))
		return nil
	},
}

var noteRmCmd = &cobra.Command{
	Use:   "rm <id>...",
	Short: "Delete notes from every cell",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		err = s.update(fmt.Sprintf("remove %d note(s)", len(args)), func(b *core.Board) error {
			for _, short := range args {
				id, err := noteID(b, short)
				if err != nil {
					return err
				}
				if err := b.RemoveNote(id); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		printer.Success("Removed %d note(s)\n", len(args))
		return nil
	},
}

var noteDetachCmd = &cobra.Command{
	Use:   "detach <id[@row,col]>...",
	Short: "Take notes out of a cell by stripping the cell's tags",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		err = s.update(fmt.Sprintf("detach %d note(s)", len(args)), func(b *core.Board) error {
			instances := make([]core.Instance, 0, len(args))
			for _, a := range args {
				inst, err := parseInstance(b, a)
				if err != nil {
					return err
				}
				instances = append(instances, inst)
			}
			_, err := b.Detach(instances)
			return err
		})
		if err != nil {
			return err
		}
		printer.Success("Detached %d note(s)\n", len(args))
		return nil
	},
}

var noteShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a note and the cells it appears in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, readOnlyView())
		if err != nil {
			return err
		}
		defer s.Close()

		return s.svc.View(func(b *core.Board) error {
			id, err := noteID(b, args[0])
			if err != nil {
				return err
			}
			n, _ := b.Note(id)
			cells, err := b.CellsOf(id)
			if err != nil {
				return err
			}
			printer.Info("id:    %s\ntext:  %s\ntags:  %v\norder: %g\ncells:", n.ID, n.Text, n.Tags(), n.Order)
			for _, c := range cells {
				printer.Info(" %s", c)
			}
			printer.Info("\n")
			return nil
		})
	},
}

func init() {
	noteCmd.AddCommand(noteAddCmd, noteEditCmd, noteRmCmd, noteDetachCmd, noteShowCmd)
	rootCmd.AddCommand(noteCmd)
}
