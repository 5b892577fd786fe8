package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFile is the per-directory configuration read by the CLI.
const ConfigFile = ".tagrid.yaml"

// FindRoot looks upwards from startDir for a board root indicator:
// a .tagrid.yaml config file, a board.json / board.yaml snapshot or a .git directory.
// It returns the absolute path of the first directory that has one.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, ConfigFile) || hasFile(dir, "board.json") || hasFile(dir, "board.yaml") || hasFile(dir, ".git") {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("root not found")
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
