package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tagrid/internal/printer"
)

var (
	verbose   bool
	noColor   bool
	boardDir  string
	adapter   string
	boardName string
	readOnly  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tagrid",
	Short: "A grid of notes placed by their tags",
	Long: `tagrid keeps notes on a board of tagged rows and columns.
A note shows up in every cell whose row and column tags it carries, so moving
a note between cells rewrites its tags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
		slog.SetDefault(logger)

		printer.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
		printer.SetColor(!noColor)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printer.Error("Error: "+err.Error(), "", nil)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVarP(&boardDir, "dir", "C", ".", "Directory to look for the board in")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "", "Storage adapter (fs, memory, bolt, sqlite, redis)")
	rootCmd.PersistentFlags().StringVarP(&boardName, "board", "b", "", "Board name")
	rootCmd.PersistentFlags().BoolVar(&readOnly, "read-only", false, "Never write to storage")
}
