package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aretw0/tagrid/internal/printer"
	"github.com/aretw0/tagrid/pkg/core"
)

// headerCmd builds the "rows" or "cols" command group.
func headerCmd(axis core.Axis, use string) *cobra.Command {
	name := axis.String()
	group := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Manage the %ss of the board", name),
	}

	var at int
	add := &cobra.Command{
		Use:   "add <title>",
		Short: fmt.Sprintf("Insert a %s (tags come from #words in the title)", name),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			var h core.Header
			err = s.update(fmt.Sprintf("add %s %q", name, args[0]), func(b *core.Board) error {
				index := at
				if !cmd.Flags().Changed("at") {
					index = b.Len(axis)
				}
				var err error
				h, err = b.InsertHeader(axis, index, args[0])
				return err
			})
			if err != nil {
				return err
			}
			printer.Success("Added %s %q with tags %v\n", name, h.Title, h.Tags)
			return nil
		},
	}
	add.Flags().IntVar(&at, "at", 0, "Index to insert at (default: last)")

	rm := &cobra.Command{
		Use:   "rm <index>",
		Short: fmt.Sprintf("Remove a %s", name),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[0], err)
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			var h core.Header
			err = s.update(fmt.Sprintf("remove %s %d", name, index), func(b *core.Board) error {
				var err error
				h, err = b.RemoveHeader(axis, index)
				return err
			})
			if err != nil {
				return err
			}
			printer.Success("Removed %s %q\n", name, h.Title)
			return nil
		},
	}

	title := &cobra.Command{
		Use:   "title <index> <title>",
		Short: fmt.Sprintf("Retitle a %s, re-deriving its tags", name),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[0], err)
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			var h core.Header
			err = s.update(fmt.Sprintf("retitle %s %d", name, index), func(b *core.Board) error {
				// Same sequence as editing the header in place.
				if err := b.DoubleClickHeader(axis, index); err != nil {
					return err
				}
				target, _ := b.Editing()
				if err := b.TextChanged(target, args[1]); err != nil {
					return err
				}
				if err := b.Blur(target); err != nil {
					return err
				}
				var err error
				h, err = b.Header(axis, index)
				return err
			})
			if err != nil {
				return err
			}
			printer.Success("Retitled %s %d to %q with tags %v\n", name, index, h.Title, h.Tags)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List the %ss with their tags", name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, readOnlyView())
			if err != nil {
				return err
			}
			defer s.Close()

			return s.svc.View(func(b *core.Board) error {
				for i, h := range b.Headers(axis) {
					if i == 0 {
						continue
					}
					printer.Info("%d\t%s\t%v\n", i, h.DisplayTitle(), h.Tags)
				}
				return nil
			})
		},
	}

	group.AddCommand(add, rm, title, list)
	return group
}

func init() {
	rootCmd.AddCommand(headerCmd(core.Rows, "rows"), headerCmd(core.Cols, "cols"))
}
