package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tagrid/internal/printer"
	"github.com/aretw0/tagrid/pkg/core"
)

var (
	showAnchors bool
	showIDs     bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Render the board as a grid",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, readOnlyView())
		if err != nil {
			return err
		}
		defer s.Close()

		return s.svc.View(func(b *core.Board) error {
			g, err := buildGrid(b, showAnchors, showIDs)
			if err != nil {
				return err
			}
			g.Render()
			if orphans := len(b.Orphans()); orphans > 0 {
				printer.Warning("%d orphaned note(s), see 'tagrid list --orphans'\n", orphans)
			}
			return nil
		})
	},
}

// buildGrid lays out the board. The anchor row and column are skipped unless
// anchors is set.
func buildGrid(b *core.Board, anchors, ids bool) (printer.Grid, error) {
	first := 1
	if anchors {
		first = 0
	}
	rows := b.Headers(core.Rows)[first:]
	cols := b.Headers(core.Cols)[first:]

	g := printer.Grid{Cells: make([][][]string, len(rows))}
	for _, c := range cols {
		g.Cols = append(g.Cols, headerLabel(c))
	}
	for r, rh := range rows {
		g.Rows = append(g.Rows, headerLabel(rh))
		g.Cells[r] = make([][]string, len(cols))
		for c := range cols {
			notes, err := b.NotesIn(core.Cell{Row: r + first, Col: c + first})
			if err != nil {
				return printer.Grid{}, err
			}
			for _, n := range notes {
				g.Cells[r][c] = append(g.Cells[r][c], noteLabel(n, ids))
			}
		}
	}
	return g, nil
}

func headerLabel(h core.Header) string {
	if h.Title == "" {
		return "*"
	}
	return h.Title
}

func noteLabel(n core.Note, withID bool) string {
	text := core.DisplayText(n.Text)
	if !withID {
		return text
	}
	return fmt.Sprintf("%s %s", shortID(n.ID), text)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showAnchors, "anchors", false, "Include the anchor row and column")
	showCmd.Flags().BoolVar(&showIDs, "ids", false, "Prefix notes with their short id")
}
