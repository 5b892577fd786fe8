package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tagrid/internal/printer"
	boardevents "github.com/aretw0/tagrid/pkg/adapters/lifecycle"
	"github.com/aretw0/tagrid/pkg/core"
)

var (
	watchTypes []string
	watchCount int
	watchQuiet bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow changes made to the board by other processes",
	Long: `Follow changes made to the board by other processes and re-render it
after each one. Supported by the fs, memory and redis adapters.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var types []core.EventType
		for _, t := range watchTypes {
			types = append(types, core.EventType(strings.ToUpper(t)))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		s, err := openSession(cmd, readOnlyView())
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.svc.Watch(ctx)
		if err != nil {
			return printer.Error("Cannot watch this board", err.Error(),
				[]string{"Use the fs, memory or redis adapter to follow changes."})
		}
		source := boardevents.NewSource(events, types...)
		if err := source.Start(ctx); err != nil {
			return fmt.Errorf("failed to start event source: %w", err)
		}

		printer.Step("Watching board in %s (Ctrl+C to stop)\n", s.root)
		seen := 0
		for e := range source.Events() {
			printer.Info("%s\n", e)
			if ev, ok := e.(core.Event); ok && ev.Type != core.EventDelete && !watchQuiet {
				err := s.svc.View(func(b *core.Board) error {
					g, err := buildGrid(b, false, false)
					if err != nil {
						return err
					}
					g.Render()
					return nil
				})
				if err != nil {
					printer.Warning("failed to render board: %v\n", err)
				}
			}
			seen++
			if watchCount > 0 && seen >= watchCount {
				cancel()
				break
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringSliceVar(&watchTypes, "type", nil, "Only report these event types (create, modify, delete)")
	watchCmd.Flags().IntVar(&watchCount, "count", 0, "Exit after this many events")
	watchCmd.Flags().BoolVarP(&watchQuiet, "quiet", "q", false, "Print events without re-rendering the board")
}
