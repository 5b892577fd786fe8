package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/aretw0/tagrid/internal/printer"
	"github.com/aretw0/tagrid/pkg/core"
)

var (
	listJSON    bool
	listTag     string
	listOrphans bool
	listCell    string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, optionally filtered by tag glob, cell or orphan status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, readOnlyView())
		if err != nil {
			return err
		}
		defer s.Close()

		var notes []core.Note
		err = s.svc.View(func(b *core.Board) error {
			var err error
			switch {
			case listOrphans:
				notes = b.Orphans()
			case listCell != "":
				var cell core.Cell
				if cell, err = parseCell(listCell); err != nil {
					return err
				}
				notes, err = b.NotesIn(cell)
			default:
				notes = b.Notes()
			}
			if err != nil || listTag == "" {
				return err
			}
			matching, err := b.NotesMatching(listTag)
			if err != nil {
				return err
			}
			notes = intersect(notes, matching)
			return nil
		})
		if err != nil {
			return err
		}

		if listJSON {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			if notes == nil {
				notes = []core.Note{}
			}
			return encoder.Encode(notes)
		}

		for _, n := range notes {
			printer.Info("%s %s\n", shortID(n.ID), n.Text)
		}
		return nil
	},
}

// intersect keeps the notes of a that are also in b, in a's order.
func intersect(a, b []core.Note) []core.Note {
	keep := make(map[string]struct{}, len(b))
	for _, n := range b {
		keep[n.ID] = struct{}{}
	}
	var out []core.Note
	for _, n := range a {
		if _, ok := keep[n.ID]; ok {
			out = append(out, n)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listTag, "tag", "", "Filter notes by tag glob (e.g. '#row-*')")
	listCmd.Flags().BoolVar(&listOrphans, "orphans", false, "Only notes that match no header")
	listCmd.Flags().StringVar(&listCell, "cell", "", "Only notes in this row,col cell, in cell order")
}
