package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tagrid/pkg/core"
)

func sampleSnapshot(t *testing.T) core.Snapshot {
	t.Helper()
	n := 0
	b := core.NewBoard(core.BoardConfig{
		Registry: core.RegistryConfig{
			MinHeaders: core.DefaultMinHeaders,
			IDs: func() string {
				n++
				return fmt.Sprintf("id%d", n)
			},
		},
		Clock:    func() time.Time { return time.UnixMilli(1_700_000_000_000) },
		SeedRows: []string{"Todo #todo", "Doing"},
		SeedCols: []string{"Alice #alice", "Bob #bob"},
	})
	for _, text := range []string{"one", "two"} {
		_, err := b.CreateNote(core.Cell{Row: 1, Col: 2}, text)
		require.NoError(t, err)
	}
	return b.Serialize()
}

func newTestRepo(t *testing.T, dsn, board string) *Repository {
	t.Helper()
	repo, err := NewRepository(Config{DSN: dsn, Board: board})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	require.NoError(t, repo.Initialize(context.Background()))
	return repo
}

func TestRepository_SaveLoad(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, ":memory:", "board")

	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, core.ErrSnapshotNotFound)

	snap := sampleSnapshot(t)
	require.NoError(t, repo.Save(ctx, snap))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, *loaded)

	// Saving again replaces rather than accumulates.
	smaller := snap.Clone()
	for id := range smaller.Notes {
		delete(smaller.Notes, id)
		break
	}
	require.NoError(t, repo.Save(ctx, smaller))
	loaded, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, smaller, *loaded)
}

func TestRepository_FileAndBoards(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "nested", "boards.db")

	a := newTestRepo(t, dsn, "a")
	require.NoError(t, a.Save(ctx, sampleSnapshot(t)))
	require.NoError(t, a.Close())

	b := newTestRepo(t, dsn, "b")
	_, err := b.Load(ctx)
	assert.ErrorIs(t, err, core.ErrSnapshotNotFound)

	reopened := newTestRepo(t, dsn, "a")
	loaded, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded.Notes, 2)
}

func TestRepository_History(t *testing.T) {
	repo := newTestRepo(t, ":memory:", "board")
	snap := sampleSnapshot(t)

	require.NoError(t, repo.Save(context.WithValue(context.Background(), core.ChangeReasonKey, "init board"), snap))
	require.NoError(t, repo.Save(context.Background(), snap))

	saves, err := repo.History(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, saves, 2)
	assert.Equal(t, "update", saves[0].Reason)
	assert.Equal(t, "init board", saves[1].Reason)

	saves, err = repo.History(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, saves, 1)
}

func TestRepository_ReadOnly(t *testing.T) {
	repo, err := NewRepository(Config{DSN: ":memory:", ReadOnly: true})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	require.NoError(t, repo.Initialize(context.Background()))

	assert.ErrorIs(t, repo.Save(context.Background(), sampleSnapshot(t)), core.ErrReadOnly)
}

func TestNewRepository_RequiresDSN(t *testing.T) {
	_, err := NewRepository(Config{})
	assert.Error(t, err)
}

func TestState(t *testing.T) {
	repo := newTestRepo(t, ":memory:", "board")
	assert.Equal(t, "sqlite", repo.ComponentType())
	st := repo.State().(RepositoryState)
	assert.Equal(t, ":memory:", st.DSN)
	assert.Equal(t, "board", st.Board)
}
