package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/tagrid/pkg/core"
)

// FileConfig is the content of a .tagrid.yaml file.
type FileConfig struct {
	Adapter    string        `yaml:"adapter,omitempty"` // fs, memory, bolt, sqlite or redis
	Path       string        `yaml:"path,omitempty"`    // adapter uri, relative to the config file
	Board      string        `yaml:"board,omitempty"`
	Format     string        `yaml:"format,omitempty"` // json or yaml
	Versioning *bool         `yaml:"versioning,omitempty"`
	MinHeaders *int          `yaml:"min_headers,omitempty"`
	Policy     string        `yaml:"policy,omitempty"` // orphan, block or cascade
	Prefixes   *PrefixConfig `yaml:"prefixes,omitempty"`
	Seed       *SeedConfig   `yaml:"seed,omitempty"`
}

// PrefixConfig sets the synthesized tag prefixes.
type PrefixConfig struct {
	Row string `yaml:"row,omitempty"`
	Col string `yaml:"col,omitempty"`
}

// SeedConfig lists the header titles of a fresh board.
type SeedConfig struct {
	Rows []string `yaml:"rows"`
	Cols []string `yaml:"cols"`
}

// Validate checks the settings that can be checked without opening storage.
func (c *FileConfig) Validate() error {
	if c.Adapter != "" && !slices.Contains(Adapters, c.Adapter) {
		return fmt.Errorf("unknown adapter %q", c.Adapter)
	}
	switch c.Format {
	case "", "json", "yaml", "yml":
	default:
		return fmt.Errorf("unsupported format %q (expected: json or yaml)", c.Format)
	}
	if c.MinHeaders != nil && *c.MinHeaders < 0 {
		return fmt.Errorf("min_headers must be >= 0, got %d", *c.MinHeaders)
	}
	if _, err := core.PolicyByName(c.Policy); err != nil {
		return err
	}
	return nil
}

// LoadConfig reads and validates a config file. A missing file yields an
// empty config.
func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &FileConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Path != "" && !filepath.IsAbs(cfg.Path) && cfg.Adapter != "redis" {
		cfg.Path = filepath.Join(filepath.Dir(path), cfg.Path)
	}
	return &cfg, nil
}

// Options converts the file settings to functional options.
func (c *FileConfig) Options() []Option {
	var opts []Option
	if c.Adapter != "" {
		opts = append(opts, WithAdapter(c.Adapter))
	}
	if c.Board != "" {
		opts = append(opts, WithBoardName(c.Board))
	}
	if c.Format != "" {
		opts = append(opts, WithFormat(c.Format))
	}
	if c.Versioning != nil {
		opts = append(opts, WithVersioning(*c.Versioning))
	}
	if c.MinHeaders != nil {
		opts = append(opts, WithMinHeaders(*c.MinHeaders))
	}
	if c.Policy != "" {
		// Validated on load.
		p, _ := core.PolicyByName(c.Policy)
		opts = append(opts, WithOrphanPolicy(p))
	}
	if c.Prefixes != nil {
		opts = append(opts, WithTagPrefixes(c.Prefixes.Row, c.Prefixes.Col))
	}
	if c.Seed != nil {
		opts = append(opts, WithSeed(c.Seed.Rows, c.Seed.Cols))
	}
	return opts
}
