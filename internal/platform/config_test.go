package platform_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tagrid/internal/platform"
	"github.com/aretw0/tagrid/pkg/adapters/memory"
	"github.com/aretw0/tagrid/pkg/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), platform.ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("Missing File", func(t *testing.T) {
		cfg, err := platform.LoadConfig(filepath.Join(t.TempDir(), platform.ConfigFile))
		require.NoError(t, err)
		assert.Equal(t, &platform.FileConfig{}, cfg)
	})

	t.Run("Full", func(t *testing.T) {
		path := writeConfig(t, `
adapter: fs
path: boards
board: sprint
format: yaml
versioning: false
min_headers: 2
policy: cascade
prefixes:
  row: r
  col: c
seed:
  rows: [Todo, Doing]
  cols: [Alice, Bob]
`)
		cfg, err := platform.LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "fs", cfg.Adapter)
		assert.Equal(t, filepath.Join(filepath.Dir(path), "boards"), cfg.Path)
		assert.Equal(t, "sprint", cfg.Board)
		require.NotNil(t, cfg.Versioning)
		assert.False(t, *cfg.Versioning)
		require.NotNil(t, cfg.MinHeaders)
		assert.Equal(t, 2, *cfg.MinHeaders)
		assert.Equal(t, "cascade", cfg.Policy)
		assert.Equal(t, []string{"Todo", "Doing"}, cfg.Seed.Rows)
	})

	t.Run("Redis Path Kept", func(t *testing.T) {
		cfg, err := platform.LoadConfig(writeConfig(t, "adapter: redis\npath: localhost:6379\n"))
		require.NoError(t, err)
		assert.Equal(t, "localhost:6379", cfg.Path)
	})

	t.Run("Invalid", func(t *testing.T) {
		cases := map[string]string{
			"adapter":     "adapter: s3\n",
			"format":      "format: toml\n",
			"min_headers": "min_headers: -1\n",
			"policy":      "policy: maybe\n",
			"yaml":        "adapter: [\n",
		}
		for name, content := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := platform.LoadConfig(writeConfig(t, content))
				assert.Error(t, err)
			})
		}
	})
}

func TestFileConfig_Options(t *testing.T) {
	minHeaders := 2
	cfg := &platform.FileConfig{
		Adapter:    "memory",
		Board:      "sprint",
		MinHeaders: &minHeaders,
		Policy:     "block",
		Prefixes:   &platform.PrefixConfig{Row: "lane", Col: "who"},
		Seed:       &platform.SeedConfig{Rows: []string{"Todo #todo"}, Cols: []string{"Alice"}},
	}

	repo, err := platform.Init("", cfg.Options()...)
	require.NoError(t, err)
	assert.IsType(t, &memory.Repository{}, repo)

	b := platform.NewBoard(cfg.Options()...)
	assert.Equal(t, "block", b.Policy().Name())
	assert.Equal(t, 2, b.MinHeaders())

	rows := b.Headers(core.Rows)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"#todo"}, rows[1].Tags)
	assert.Contains(t, rows[2].Tags[0], "#lane")

	cols := b.Headers(core.Cols)
	require.Len(t, cols, 3)
	assert.Contains(t, cols[1].Tags[0], "#who")
}
