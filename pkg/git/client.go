package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrLockTimeout is returned when the repository lock could not be acquired in time.
var ErrLockTimeout = errors.New("timed out waiting for git lock")

// Identity overrides the committer configured in git.
type Identity struct {
	Name  string
	Email string
}

// Commit is one entry of a file's history.
type Commit struct {
	Hash    string
	Time    time.Time
	Message string
}

// Client wraps git command execution with a file-based lock for process safety.
type Client struct {
	WorkDir  string
	Logger   *slog.Logger
	Identity *Identity
	lockPath string
}

// NewClient creates a new git client for the given working directory.
// lockName is the lock file created inside workDir while a caller holds the lock.
func NewClient(workDir, lockName string, logger *slog.Logger) *Client {
	if lockName == "" {
		lockName = ".tagrid.lock"
	}
	return &Client{
		WorkDir:  workDir,
		Logger:   logger,
		lockPath: lockName,
	}
}

// IsInstalled reports whether the git binary is on PATH.
func IsInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// Lock acquires the file-based lock, polling until it is free or ctx is done.
func (c *Client) Lock(ctx context.Context) (func(), error) {
	fullLockPath := filepath.Join(c.WorkDir, c.lockPath)

	for {
		f, err := os.OpenFile(fullLockPath, os.O_CREATE|os.O_EXCL, 0666)
		if err == nil {
			f.Close()
			return func() {
				os.Remove(fullLockPath)
			}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrLockTimeout, ctx.Err())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Run executes a raw git command in the working directory.
// It does not acquire the lock; callers serialize through Lock.
func (c *Client) Run(args ...string) (string, error) {
	if c.Logger != nil {
		c.Logger.Debug("executing git", "args", args, "dir", c.WorkDir)
	}

	full := args
	if c.Identity != nil {
		full = append([]string{"-c", "user.name=" + c.Identity.Name, "-c", "user.email=" + c.Identity.Email}, args...)
	}
	cmd := exec.Command("git", full...)
	cmd.Dir = c.WorkDir

	out, err := cmd.CombinedOutput()
	output := string(out)

	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\nOutput: %s", args[0], err, output)
	}

	return strings.TrimSpace(output), nil
}

// IsRepo reports whether the working directory is inside a git work tree.
func (c *Client) IsRepo() bool {
	out, err := c.Run("rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// Init initializes a new git repository. Re-running it is harmless.
func (c *Client) Init() error {
	_, err := c.Run("init")
	return err
}

// Add adds files to the stage.
func (c *Client) Add(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"add"}, files...)
	_, err := c.Run(args...)
	return err
}

// Commit records staged changes. A commit with nothing staged is skipped.
func (c *Client) Commit(msg string) error {
	status, err := c.Run("diff", "--cached", "--name-only")
	if err != nil {
		return err
	}
	if status == "" {
		return nil
	}
	_, err = c.Run("commit", "-m", msg)
	return err
}

// Status returns the porcelain status of the repo.
func (c *Client) Status() (string, error) {
	return c.Run("status", "--porcelain")
}

// Log returns up to limit commits touching path, newest first.
func (c *Client) Log(path string, limit int) ([]Commit, error) {
	args := []string{"log", "--format=%H%x1f%ct%x1f%s"}
	if limit > 0 {
		args = append(args, fmt.Sprintf("-n%d", limit))
	}
	args = append(args, "--", path)
	out, err := c.Run(args...)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	var commits []Commit
	for _, line := range strings.Split(out, "\n") {
		parts := strings.SplitN(line, "\x1f", 3)
		if len(parts) != 3 {
			continue
		}
		var sec int64
		if _, err := fmt.Sscan(parts[1], &sec); err != nil {
			return nil, fmt.Errorf("failed to parse commit time %q: %w", parts[1], err)
		}
		commits = append(commits, Commit{Hash: parts[0], Time: time.Unix(sec, 0), Message: parts[2]})
	}
	return commits, nil
}

// Show returns the content of path at revision rev.
func (c *Client) Show(rev, path string) ([]byte, error) {
	cmd := exec.Command("git", "show", rev+":"+filepath.ToSlash(path))
	cmd.Dir = c.WorkDir
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git show %s:%s failed: %w", rev, path, err)
	}
	return out, nil
}
