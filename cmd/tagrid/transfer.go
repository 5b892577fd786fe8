package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/tagrid/internal/printer"
	"github.com/aretw0/tagrid/pkg/adapters/fs"
	"github.com/aretw0/tagrid/pkg/core"
)

var (
	exportFormat string
	exportOutput string
	importFormat string
	importStrict bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the board snapshot as JSON or YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := exportFormat
		if format == "" && exportOutput != "" {
			format = filepath.Ext(exportOutput)
		}
		serializer, err := fs.SerializerFor(format, false)
		if err != nil {
			return err
		}

		s, err := openSession(cmd, readOnlyView())
		if err != nil {
			return err
		}
		defer s.Close()

		var snap core.Snapshot
		_ = s.svc.View(func(b *core.Board) error {
			snap = b.Serialize()
			return nil
		})
		data, err := serializer.Serialize(snap)
		if err != nil {
			return err
		}

		if exportOutput == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(exportOutput, data, 0644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		printer.Success("Exported %d note(s) to %s\n", len(snap.Notes), exportOutput)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the board with a JSON or YAML snapshot",
	Long: `Replace the board with a JSON or YAML snapshot. The snapshot is validated
as a whole first; an invalid file leaves the board untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := importFormat
		if format == "" {
			format = filepath.Ext(args[0])
		}
		serializer, err := fs.SerializerFor(format, importStrict)
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open snapshot: %w", err)
		}
		defer f.Close()
		snap, err := serializer.Parse(f)
		if err != nil {
			return printer.Error("Invalid snapshot", err.Error(), nil)
		}

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		err = s.update("import "+filepath.Base(args[0]), func(b *core.Board) error {
			return b.Load(*snap)
		})
		if err != nil {
			return printer.Error("Invalid snapshot", err.Error(), nil)
		}
		printer.Success("Imported %d row(s), %d column(s) and %d note(s)\n",
			len(snap.Rows)-1, len(snap.Cols)-1, len(snap.Notes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format (json or yaml, default from -o or json)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")
	importCmd.Flags().StringVarP(&importFormat, "format", "f", "", "Input format (default from the file extension)")
	importCmd.Flags().BoolVar(&importStrict, "strict", false, "Reject unknown fields")
}
