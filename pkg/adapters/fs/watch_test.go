package fs

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/tagrid/pkg/core"
)

func nextEvent(t *testing.T, events <-chan core.Event) core.Event {
	t.Helper()
	select {
	case e, ok := <-events:
		require.True(t, ok, "events channel closed")
		return e
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		return core.Event{}
	}
}

func requireQuiet(t *testing.T, events <-chan core.Event, d time.Duration) {
	t.Helper()
	select {
	case e := <-events:
		t.Fatalf("unexpected event %s", e)
	case <-time.After(d):
	}
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := newTestRepo(t)
	events, err := repo.Watch(ctx)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return repo.State().(RepositoryState).WatcherActive
	}, time.Second, 10*time.Millisecond)

	snap := sampleSnapshot(t)
	data, err := NewJSONSerializer(false).Serialize(snap)
	require.NoError(t, err)

	t.Run("external create", func(t *testing.T) {
		require.NoError(t, os.WriteFile(repo.Filename(), data, 0644))
		e := nextEvent(t, events)
		require.Equal(t, core.EventCreate, e.Type)
		require.Equal(t, "board", e.ID)
	})

	t.Run("own writes are silent", func(t *testing.T) {
		changed := snap.Clone()
		n := changed.Notes["id7"]
		n.Text = "rewritten"
		changed.Notes[n.ID] = n
		require.NoError(t, repo.Save(ctx, changed))
		requireQuiet(t, events, 300*time.Millisecond)
	})

	t.Run("external modify", func(t *testing.T) {
		require.NoError(t, os.WriteFile(repo.Filename(), data, 0644))
		e := nextEvent(t, events)
		require.Equal(t, core.EventModify, e.Type)
	})

	t.Run("other files are ignored", func(t *testing.T) {
		require.NoError(t, os.WriteFile(repo.Filename()+".bak", data, 0644))
		requireQuiet(t, events, 300*time.Millisecond)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, os.Remove(repo.Filename()))
		e := nextEvent(t, events)
		require.Equal(t, core.EventDelete, e.Type)
	})

	cancel()
	require.Eventually(t, func() bool {
		_, ok := <-events
		return !ok
	}, 6*time.Second, 10*time.Millisecond)
	require.False(t, repo.State().(RepositoryState).WatcherActive)
}
