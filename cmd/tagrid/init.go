package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/tagrid"
	"github.com/aretw0/tagrid/internal/printer"
)

var (
	initFormat     string
	initVersioning bool
	initRows       []string
	initCols       []string
	initMinHeaders int
	initPolicy     string
	initURL        string
	initForce      bool
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a board in the current directory",
	Long: `Create a board and write its .tagrid.yaml configuration.
With the fs adapter the board is a JSON or YAML file, versioned with git unless --versioning=false.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := filepath.Abs(boardDir)
		if err != nil {
			return err
		}
		cfgPath := filepath.Join(dir, tagrid.ConfigFile)
		if _, err := os.Stat(cfgPath); err == nil && !initForce {
			return printer.Error("Board already initialized",
				fmt.Sprintf("%s already exists.", cfgPath),
				[]string{"Use --force to overwrite the configuration."})
		}

		cfg := tagrid.FileConfig{
			Adapter: adapter,
			Board:   boardName,
			Format:  initFormat,
			Policy:  initPolicy,
		}
		switch adapter {
		case "bolt":
			cfg.Path = "tagrid.db"
		case "sqlite":
			cfg.Path = "tagrid.sqlite"
		case "redis":
			cfg.Path = initURL
		}
		if !initVersioning {
			cfg.Versioning = &initVersioning
		}
		if cmd.Flags().Changed("min-headers") {
			cfg.MinHeaders = &initMinHeaders
		}
		if len(initRows) > 0 || len(initCols) > 0 {
			cfg.Seed = &tagrid.SeedConfig{Rows: initRows, Cols: initCols}
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create board directory: %w", err)
		}
		data, err := yaml.Marshal(&cfg)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		if err := os.WriteFile(cfgPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		uri := dir
		if cfg.Path != "" && adapter != "redis" {
			uri = filepath.Join(dir, cfg.Path)
		} else if adapter == "redis" {
			uri = cfg.Path
		}
		opts := append(cfg.Options(), tagrid.WithAutoInit(true), tagrid.WithLogger(slog.Default()))
		repo, err := tagrid.Init(uri, opts...)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		s := &session{repo: repo, root: dir}
		defer s.Close()

		s.svc, err = tagrid.New(uri, append(opts, tagrid.WithRepository(repo))...)
		if err != nil {
			return fmt.Errorf("failed to initialize board: %w", err)
		}
		st := s.svc.Board().State()
		printer.Success("Initialized board in %s (%d rows, %d columns)\n", dir, st.Rows, st.Cols)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initFormat, "format", "", "Snapshot format for the fs adapter (json or yaml)")
	initCmd.Flags().BoolVar(&initVersioning, "versioning", true, "Version the board with git (fs adapter)")
	initCmd.Flags().StringSliceVar(&initRows, "rows", nil, "Row titles of the new board")
	initCmd.Flags().StringSliceVar(&initCols, "cols", nil, "Column titles of the new board")
	initCmd.Flags().IntVar(&initMinHeaders, "min-headers", 1, "Minimum number of rows and columns")
	initCmd.Flags().StringVar(&initPolicy, "policy", "", "Orphan policy (orphan, block or cascade)")
	initCmd.Flags().StringVar(&initURL, "url", "", "Redis URL for the redis adapter")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration")
}
