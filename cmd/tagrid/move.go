package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aretw0/tagrid/internal/printer"
	"github.com/aretw0/tagrid/pkg/core"
)

var moveCmd = &cobra.Command{
	Use:   "move <row,col> <index> <id[@row,col]>...",
	Short: "Move notes to a position inside a cell",
	Long: `Move notes to a position inside a cell, as if they were selected and
dragged there together. Each note is taken from the given source cell (or its
first cell when none is given): the source cell's tags are replaced with the
destination's. Index 0 is the top of the cell; larger indexes are clamped.`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		dest, err := parseCell(args[0])
		if err != nil {
			return err
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid index %q: %w", args[1], err)
		}

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		var moved []core.Instance
		err = s.update(fmt.Sprintf("move %d note(s) to %s", len(args)-2, dest), func(b *core.Board) error {
			var instances []core.Instance
			for _, a := range args[2:] {
				inst, err := parseInstance(b, a)
				if err != nil {
					return err
				}
				instances = append(instances, inst)
			}
			for i, inst := range instances {
				if err := b.Click(inst, i > 0); err != nil {
					return err
				}
			}
			if err := b.DragStart(instances[0]); err != nil {
				return err
			}
			var err error
			moved, err = b.DragEnd(&dest, index)
			return err
		})
		if err != nil {
			return err
		}
		printer.Success("Moved %d note(s) to %s\n", len(moved), dest)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(moveCmd)
}
